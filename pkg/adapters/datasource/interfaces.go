package datasource

import (
	"context"
	"iter"
)

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// ColumnDiscoverer enumerates candidate JSONB columns.
type ColumnDiscoverer interface {
	// DiscoverJSONBColumns returns every JSONB column outside the system schemas.
	DiscoverJSONBColumns(ctx context.Context) ([]JSONBColumn, error)
}

// RowCounter supplies row counts for strategy selection.
type RowCounter interface {
	// CountRows returns the exact number of rows via COUNT(*).
	CountRows(ctx context.Context, schema, table string) (int64, error)
}

// RowEstimator supplies the planner's approximate row count, which avoids a full scan.
// Implementations return a non-positive estimate when the table has never been analyzed.
type RowEstimator interface {
	EstimateRowCount(ctx context.Context, schema, table string) (int64, error)
}

// PrimaryKeyFinder looks up a table's primary key.
type PrimaryKeyFinder interface {
	// FindPrimaryKey returns the single integer primary key column.
	// Returns apperrors.ErrNoPrimaryKey when the table has none.
	FindPrimaryKey(ctx context.Context, schema, table string) (string, error)
}

// TableInspector is what the sampling strategy selector needs from the database.
type TableInspector interface {
	RowCounter
	PrimaryKeyFinder
}

// DocumentSource streams the first column of a query as raw JSON documents.
type DocumentSource interface {
	// Documents runs query and yields one document per row without buffering the result set.
	// Stopping the iteration early releases the server-side cursor.
	Documents(ctx context.Context, query string) iter.Seq2[[]byte, error]
}

// Adapter is the full capability set of a database backend.
type Adapter interface {
	ConnectionTester
	ColumnDiscoverer
	TableInspector
	RowEstimator
	DocumentSource
}
