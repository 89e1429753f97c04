// Package fixtures ships demo tables with known drift, loaded as golang-migrate migrations
// into the pgdrift_fixtures schema. They back the integration tests and let a new user
// see every kind of drift report against a scratch database.
package fixtures

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/database"
	"github.com/ekaya-inc/pgdrift/pkg/models"
)

// Schema holds every fixture table.
const Schema = "pgdrift_fixtures"

// RowsPerTable is the number of documents generated in each fixture table.
const RowsPerTable = 5000

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Fixture describes one generated table and the drift it is built to exhibit.
type Fixture struct {
	Table       string
	Column      string
	Description string
}

// Target returns the fixture's column target.
func (f Fixture) Target() models.Target {
	return models.Target{Schema: Schema, Table: f.Table, Column: f.Column}
}

// All lists the fixture tables in creation order.
var All = []Fixture{
	{Table: "users", Column: "metadata", Description: "consistent schema"},
	{Table: "users_mixed_types", Column: "metadata", Description: "age is a number in 8% of documents"},
	{Table: "users_sparse", Column: "metadata", Description: "ghost, sparse and missing keys"},
	{Table: "users_nested", Column: "metadata", Description: "deep nesting with arrays of objects"},
	{Table: "products", Column: "data", Description: "schema evolution in the second half of rows"},
}

// Load creates the fixture schema and tables. Already-applied fixtures are left alone.
func Load(pool *pgxpool.Pool, logger *zap.Logger) error {
	return withMigrationDB(pool, func(db *sql.DB) error {
		src, err := iofs.New(migrationFiles, "migrations")
		if err != nil {
			return fmt.Errorf("failed to open fixture migrations: %w", err)
		}
		return database.RunMigrations(db, src, logger)
	})
}

// Drop removes every fixture table and the fixture schema.
func Drop(pool *pgxpool.Pool, logger *zap.Logger) error {
	return withMigrationDB(pool, func(db *sql.DB) error {
		src, err := iofs.New(migrationFiles, "migrations")
		if err != nil {
			return fmt.Errorf("failed to open fixture migrations: %w", err)
		}
		return database.RollbackMigrations(db, src, logger)
	})
}

// withMigrationDB opens a database/sql handle to the pool's database, which golang-migrate requires.
func withMigrationDB(pool *pgxpool.Pool, fn func(*sql.DB) error) error {
	db, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer db.Close()
	return fn(db)
}
