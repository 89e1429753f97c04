package sampler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/models"
)

type mockInspector struct {
	rows      int64
	countErr  error
	pk        string
	pkErr     error
	countCall int
	pkCall    int
}

func (m *mockInspector) CountRows(ctx context.Context, schema, table string) (int64, error) {
	m.countCall++
	return m.rows, m.countErr
}

func (m *mockInspector) FindPrimaryKey(ctx context.Context, schema, table string) (string, error) {
	m.pkCall++
	return m.pk, m.pkErr
}

type mockSource struct {
	docs    [][]byte
	err     error
	query   string
	yielded int
	stopped bool
}

func (m *mockSource) Documents(ctx context.Context, query string) iter.Seq2[[]byte, error] {
	m.query = query
	return func(yield func([]byte, error) bool) {
		for _, doc := range m.docs {
			m.yielded++
			if !yield(doc, nil) {
				m.stopped = true
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

var usersTarget = models.Target{Schema: "public", Table: "users", Column: "metadata"}

func int64Ptr(v int64) *int64 { return &v }

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name      string
		estimate  *int64
		inspector *mockInspector
		sample    int
		want      Strategy
	}{
		{
			name:      "sample larger than table is full scan",
			estimate:  int64Ptr(50),
			inspector: &mockInspector{},
			sample:    5000,
			want:      Full{},
		},
		{
			name:      "sample equal to table is full scan",
			estimate:  int64Ptr(5000),
			inspector: &mockInspector{},
			sample:    5000,
			want:      Full{},
		},
		{
			name:      "small table uses random",
			estimate:  int64Ptr(99_999),
			inspector: &mockInspector{},
			sample:    5000,
			want:      Random{Limit: 5000},
		},
		{
			name:      "medium table with pk uses reservoir",
			estimate:  int64Ptr(100_000),
			inspector: &mockInspector{pk: "id"},
			sample:    5000,
			want:      ReservoirPK{SampleSize: 5000, PK: "id"},
		},
		{
			name:      "medium table without pk falls back to random",
			estimate:  int64Ptr(5_000_000),
			inspector: &mockInspector{pkErr: apperrors.ErrNoPrimaryKey},
			sample:    5000,
			want:      Random{Limit: 5000},
		},
		{
			name:      "large table uses tablesample",
			estimate:  int64Ptr(10_000_000),
			inspector: &mockInspector{},
			sample:    5000,
			want:      TableSample{Percentage: 0.1, Limit: 5000},
		},
		{
			name:      "missing estimate fetches exact count",
			estimate:  nil,
			inspector: &mockInspector{rows: 50},
			sample:    5000,
			want:      Full{},
		},
		{
			name:      "non-positive estimate fetches exact count",
			estimate:  int64Ptr(-1),
			inspector: &mockInspector{rows: 20_000},
			sample:    5000,
			want:      Random{Limit: 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectStrategy(context.Background(), tt.inspector, usersTarget, tt.estimate, tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectStrategy_CountsOnlyWithoutUsableEstimate(t *testing.T) {
	inspector := &mockInspector{rows: 10}
	_, err := SelectStrategy(context.Background(), inspector, usersTarget, int64Ptr(200_000), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, inspector.countCall)

	_, err = SelectStrategy(context.Background(), inspector, usersTarget, int64Ptr(0), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, inspector.countCall)
}

func TestSelectStrategy_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")

	_, err := SelectStrategy(context.Background(), &mockInspector{countErr: boom}, usersTarget, nil, 10)
	assert.ErrorIs(t, err, boom)

	_, err = SelectStrategy(context.Background(), &mockInspector{pkErr: boom}, usersTarget, int64Ptr(500_000), 10)
	assert.ErrorIs(t, err, boom)
}

func TestTableSamplePercentage(t *testing.T) {
	assert.InDelta(t, 0.1, TableSamplePercentage(5000, 1_000_000_000), 1e-9)
	assert.InDelta(t, 0.5, TableSamplePercentage(100_000, 20_000_000), 1e-9)
	assert.InDelta(t, 100.0, TableSamplePercentage(50_000_000, 20_000_000), 1e-9)
	assert.InDelta(t, 100.0, TableSamplePercentage(10, 0), 1e-9)
}

func TestBuildQuery(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		q, err := BuildQuery(Full{}, usersTarget)
		require.NoError(t, err)
		assert.Equal(t, `SELECT "metadata" FROM "public"."users" WHERE "metadata" IS NOT NULL`, q)
	})

	t.Run("random", func(t *testing.T) {
		q, err := BuildQuery(Random{Limit: 5000}, usersTarget)
		require.NoError(t, err)
		assert.Contains(t, q, "ORDER BY random()")
		assert.Contains(t, q, "LIMIT 5000")
		assert.Contains(t, q, `"metadata" IS NOT NULL`)
	})

	t.Run("reservoir", func(t *testing.T) {
		q, err := BuildQuery(ReservoirPK{SampleSize: 5000, PK: "id"}, usersTarget)
		require.NoError(t, err)
		assert.Contains(t, q, "WITH random_ids")
		assert.Contains(t, q, `SELECT MAX("id") FROM "public"."users"`)
		assert.Contains(t, q, "generate_series(1, 10000)")
		assert.Contains(t, q, `INNER JOIN random_ids r ON t."id" = r.rand_id`)
		assert.Contains(t, q, `WHERE t."metadata" IS NOT NULL`)
		assert.True(t, strings.HasSuffix(q, "LIMIT 5000"))
	})

	t.Run("tablesample", func(t *testing.T) {
		q, err := BuildQuery(TableSample{Percentage: 0.5, Limit: 10000}, usersTarget)
		require.NoError(t, err)
		assert.Contains(t, q, "TABLESAMPLE BERNOULLI(0.5)")
		assert.Contains(t, q, "LIMIT 10000")
		assert.Contains(t, q, "IS NOT NULL")
	})

	t.Run("quotes hostile identifiers", func(t *testing.T) {
		target := models.Target{Schema: "public", Table: "table\"; DROP TABLE users; --", Column: "metadata"}
		q, err := BuildQuery(Full{}, target)
		require.NoError(t, err)
		assert.Contains(t, q, "\"table\"\"; DROP TABLE users; --\"")
	})
}

func TestStrategyDescriptions(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
		max      int
		bounded  bool
	}{
		{Full{}, "Full table scan (all non-NULL rows)", 0, false},
		{Random{Limit: 5000}, "Random sampling (up to 5000 rows)", 5000, true},
		{ReservoirPK{SampleSize: 100, PK: "id"}, "Reservoir sampling using PK 'id' (up to 100 rows)", 100, true},
		{TableSample{Percentage: 2.5, Limit: 5000}, "TABLESAMPLE 2.50% (up to 5000 rows)", 5000, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.Kind(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.Describe())
			limit, bounded := tt.strategy.MaxSamples()
			assert.Equal(t, tt.max, limit)
			assert.Equal(t, tt.bounded, bounded)
		})
	}
}

func TestNew_ProductionModeCapsTableSample(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(TableSample{Percentage: 5, Limit: 5000}, Options{ProductionMode: true, Logger: zap.New(core)})

	assert.Equal(t, TableSample{Percentage: ProductionMaxPercent, Limit: 5000}, s.Strategy())
	assert.Equal(t, 1, logs.Len())
}

func TestNew_ProductionModeLeavesOthersAlone(t *testing.T) {
	assert.Equal(t, TableSample{Percentage: 0.5, Limit: 10}, New(TableSample{Percentage: 0.5, Limit: 10}, Options{ProductionMode: true}).Strategy())
	assert.Equal(t, TableSample{Percentage: 5, Limit: 10}, New(TableSample{Percentage: 5, Limit: 10}, Options{}).Strategy())
	assert.Equal(t, Random{Limit: 10}, New(Random{Limit: 10}, Options{ProductionMode: true}).Strategy())
}

func TestSampler_Documents(t *testing.T) {
	source := &mockSource{docs: [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`), []byte(`{"a":3}`)}}
	var progress []uint64
	s := New(Random{Limit: 3}, Options{Progress: func(n uint64) { progress = append(progress, n) }, Logger: zap.NewNop()})

	var got []string
	for doc, err := range s.Documents(context.Background(), source, usersTarget) {
		require.NoError(t, err)
		got = append(got, string(doc))
	}

	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`, `{"a":3}`}, got)
	assert.Equal(t, []uint64{1, 2, 3}, progress)
	assert.Contains(t, source.query, "ORDER BY random()")
}

func TestSampler_DocumentsStopsEarly(t *testing.T) {
	source := &mockSource{}
	for i := 0; i < 100; i++ {
		source.docs = append(source.docs, []byte(fmt.Sprintf(`{"i":%d}`, i)))
	}
	s := New(Full{}, Options{})

	n := 0
	for range s.Documents(context.Background(), source, usersTarget) {
		n++
		if n == 5 {
			break
		}
	}

	assert.Equal(t, 5, source.yielded)
	assert.True(t, source.stopped)
}

func TestSampler_DocumentsPropagatesError(t *testing.T) {
	boom := errors.New("cursor failed")
	source := &mockSource{docs: [][]byte{[]byte(`{}`)}, err: boom}
	s := New(Full{}, Options{})

	var lastErr error
	docs := 0
	for doc, err := range s.Documents(context.Background(), source, usersTarget) {
		if err != nil {
			lastErr = err
			break
		}
		_ = doc
		docs++
	}

	assert.Equal(t, 1, docs)
	assert.ErrorIs(t, lastErr, boom)
}
