package fixtures

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_UpDownPairs(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		assert.Contains(t, downs, down)
	}
}

func TestMigrations_SourceParses(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	count := 1
	for {
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
		count++
	}
	assert.Equal(t, len(All)+1, count, "one schema migration plus one per fixture table")
}

func TestAll_TablesHaveMigrations(t *testing.T) {
	for _, f := range All {
		matches, err := fs.Glob(migrationFiles, "migrations/*_"+f.Table+".up.sql")
		require.NoError(t, err)
		require.Len(t, matches, 1, "table %s", f.Table)

		body, err := fs.ReadFile(migrationFiles, matches[0])
		require.NoError(t, err)
		assert.Contains(t, string(body), "CREATE TABLE "+Schema+"."+f.Table+" (")
		assert.Contains(t, string(body), f.Column+" JSONB NOT NULL")
	}
}

func TestFixture_Target(t *testing.T) {
	target := All[4].Target()
	assert.Equal(t, "pgdrift_fixtures", target.Schema)
	assert.Equal(t, "products", target.Table)
	assert.Equal(t, "data", target.Column)
}
