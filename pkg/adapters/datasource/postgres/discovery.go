package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

// DiscoverJSONBColumns returns all JSONB columns outside the system schemas.
// The row estimate comes from pg_stat_user_tables and is nil for tables the
// statistics collector has not seen.
func (a *Adapter) DiscoverJSONBColumns(ctx context.Context) ([]datasource.JSONBColumn, error) {
	const query = `
		SELECT
			c.table_schema,
			c.table_name,
			c.column_name,
			s.n_live_tup AS estimated_rows
		FROM information_schema.columns c
		LEFT JOIN pg_stat_user_tables s
			ON s.schemaname = c.table_schema
			AND s.relname = c.table_name
		WHERE c.data_type = 'jsonb'
		  AND c.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY c.table_schema, c.table_name, c.column_name
	`

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query jsonb columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.JSONBColumn
	for rows.Next() {
		var c datasource.JSONBColumn
		if err := rows.Scan(&c.Schema, &c.Table, &c.Column, &c.EstimatedRows); err != nil {
			return nil, fmt.Errorf("scan jsonb column: %w", err)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jsonb columns: %w", err)
	}

	a.logger.Debug("Discovered JSONB columns", zap.Int("count", len(columns)))
	return columns, nil
}

// EstimateRowCount returns the planner's estimate from pg_class.reltuples.
// Returns apperrors.ErrNotFound if the table does not exist. The estimate is -1
// for tables that have never been vacuumed or analyzed.
func (a *Adapter) EstimateRowCount(ctx context.Context, schema, table string) (int64, error) {
	const query = `
		SELECT c.reltuples::bigint
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2
	`

	var estimate int64
	err := a.pool.QueryRow(ctx, query, schema, table).Scan(&estimate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("table %s.%s: %w", schema, table, apperrors.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("estimate rows for %s.%s: %w", schema, table, err)
	}
	return estimate, nil
}

// CountRows returns the exact row count. This scans the whole table.
func (a *Adapter) CountRows(ctx context.Context, schema, table string) (int64, error) {
	query := "SELECT COUNT(*) FROM " + sql.QualifiedTableName(schema, table)

	var count int64
	if err := a.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s.%s: %w", schema, table, err)
	}
	return count, nil
}

// FindPrimaryKey returns the table's primary key column when it is a single
// integer column. Composite and non-integer keys report apperrors.ErrNoPrimaryKey
// because PK-driven sampling needs MAX(pk) and numeric candidate ids.
func (a *Adapter) FindPrimaryKey(ctx context.Context, schema, table string) (string, error) {
	// pg_index.indisprimary detects PKs even when created as unique indexes by ORMs.
	const query = `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE ix.indisprimary = true
		  AND n.nspname = $1
		  AND t.relname = $2
		  AND array_length(ix.indkey, 1) = 1
		  AND a.atttypid IN ('int2'::regtype, 'int4'::regtype, 'int8'::regtype)
	`

	var pk string
	err := a.pool.QueryRow(ctx, query, schema, table).Scan(&pk)
	if errors.Is(err, pgx.ErrNoRows) {
		a.logger.Debug("No single-column integer primary key",
			zap.String("schema", schema),
			zap.String("table", table))
		return "", apperrors.ErrNoPrimaryKey
	}
	if err != nil {
		return "", fmt.Errorf("find primary key for %s.%s: %w", schema, table, err)
	}
	return pk, nil
}
