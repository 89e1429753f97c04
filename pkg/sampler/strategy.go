// Package sampler decides how to pull a representative subset of rows from a JSONB column
// and builds the query that does it.
package sampler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

// Strategy is one of Full, Random, ReservoirPK or TableSample.
// The set is closed: only this package can add variants.
type Strategy interface {
	// Kind is a stable machine-readable name.
	Kind() string
	// Describe is a human-readable summary.
	Describe() string
	// MaxSamples returns the row limit, or false when the strategy is unbounded.
	MaxSamples() (int, bool)

	sealed()
}

// Full reads every non-NULL row.
type Full struct{}

// Random orders the table randomly and takes the first Limit rows.
type Random struct {
	Limit int `json:"limit"`
}

// ReservoirPK draws 2*SampleSize candidate keys uniformly over [0, MAX(PK)] and joins them through the PK index.
type ReservoirPK struct {
	SampleSize int    `json:"sample_size"`
	PK         string `json:"pk"`
}

// TableSample uses BERNOULLI block sampling at Percentage percent, capped at Limit rows.
type TableSample struct {
	Percentage float64 `json:"percentage"`
	Limit      int     `json:"limit"`
}

func (Full) sealed()        {}
func (Random) sealed()      {}
func (ReservoirPK) sealed() {}
func (TableSample) sealed() {}

func (Full) Kind() string        { return "full" }
func (Random) Kind() string      { return "random" }
func (ReservoirPK) Kind() string { return "reservoir_pk" }
func (TableSample) Kind() string { return "table_sample" }

func (Full) Describe() string {
	return "Full table scan (all non-NULL rows)"
}

func (s Random) Describe() string {
	return fmt.Sprintf("Random sampling (up to %d rows)", s.Limit)
}

func (s ReservoirPK) Describe() string {
	return fmt.Sprintf("Reservoir sampling using PK '%s' (up to %d rows)", s.PK, s.SampleSize)
}

func (s TableSample) Describe() string {
	return fmt.Sprintf("TABLESAMPLE %.2f%% (up to %d rows)", s.Percentage, s.Limit)
}

func (Full) MaxSamples() (int, bool)          { return 0, false }
func (s Random) MaxSamples() (int, bool)      { return s.Limit, true }
func (s ReservoirPK) MaxSamples() (int, bool) { return s.SampleSize, true }
func (s TableSample) MaxSamples() (int, bool) { return s.Limit, true }

// BuildQuery returns the SELECT that streams target's documents under strategy.
// Every identifier is quoted and NULL documents are excluded.
func BuildQuery(strategy Strategy, target models.Target) (string, error) {
	table := sql.QualifiedTableName(target.Schema, target.Table)
	column := sql.QuoteIdentifier(target.Column)

	switch s := strategy.(type) {
	case Full:
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", column, table, column), nil

	case Random:
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY random() LIMIT %d",
			column, table, column, s.Limit), nil

	case ReservoirPK:
		pk := sql.QuoteIdentifier(s.PK)
		var b strings.Builder
		b.WriteString("WITH random_ids AS (\n")
		fmt.Fprintf(&b, "    SELECT floor(random() * (SELECT MAX(%s) FROM %s))::bigint AS rand_id\n", pk, table)
		fmt.Fprintf(&b, "    FROM generate_series(1, %d)\n", s.SampleSize*2)
		b.WriteString(")\n")
		fmt.Fprintf(&b, "SELECT t.%s\n", column)
		fmt.Fprintf(&b, "FROM %s t\n", table)
		fmt.Fprintf(&b, "INNER JOIN random_ids r ON t.%s = r.rand_id\n", pk)
		fmt.Fprintf(&b, "WHERE t.%s IS NOT NULL\n", column)
		fmt.Fprintf(&b, "LIMIT %d", s.SampleSize)
		return b.String(), nil

	case TableSample:
		return fmt.Sprintf("SELECT %s FROM %s TABLESAMPLE BERNOULLI(%s) WHERE %s IS NOT NULL LIMIT %d",
			column, table, strconv.FormatFloat(s.Percentage, 'f', -1, 64), column, s.Limit), nil

	default:
		return "", fmt.Errorf("unsupported sampling strategy %T", strategy)
	}
}
