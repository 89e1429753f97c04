// Package postgres implements the datasource interfaces on top of a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
)

// Adapter provides PostgreSQL connectivity, JSONB column discovery and document streaming.
type Adapter struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	ownedPool bool // true if we created the pool
}

// NewAdapter wraps an existing pool. The caller keeps ownership of the pool.
// If logger is nil, a no-op logger is used.
func NewAdapter(pool *pgxpool.Pool, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		pool:   pool,
		logger: logger.Named("postgres"),
	}
}

// Open creates an adapter with its own pool. Close releases it.
func Open(ctx context.Context, connStr string, logger *zap.Logger) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	a := NewAdapter(pool, logger)
	a.ownedPool = true
	return a, nil
}

// TestConnection verifies the database is reachable with valid credentials.
// It checks:
// 1. Server connectivity (ping)
// 2. Database access (simple query)
// 3. Correct database name, when the connection string named one
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	var currentDB string
	if err := a.pool.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	expectedDB := a.pool.Config().ConnConfig.Database
	if expectedDB != "" && !strings.EqualFold(currentDB, expectedDB) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", expectedDB, currentDB)
	}

	return nil
}

// Close releases the pool if the adapter created it.
func (a *Adapter) Close() error {
	if a.ownedPool && a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ensure Adapter implements the full datasource capability set at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
