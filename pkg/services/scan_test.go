package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
)

func scanFixture() *mockDatabase {
	mixed := docs(`{"email": "u%d@example.com", "age": %s}`, 100, func(i int) []any {
		if i < 12 {
			return []any{i, "30"}
		}
		return []any{i, `"30"`}
	})

	return &mockDatabase{
		columns: []datasource.JSONBColumn{
			{Schema: "public", Table: "users", Column: "metadata"},
			{Schema: "public", Table: "empty", Column: "payload"},
			{Schema: "public", Table: "locked", Column: "doc"},
			{Schema: "public", Table: "mixed", Column: "metadata"},
		},
		tables: map[string]mockTable{
			"users":  {rows: 2, docs: [][]byte{[]byte(`{"a": 1}`), []byte(`{"a": 2}`)}},
			"empty":  {rows: 0},
			"locked": {countErr: errors.New("permission denied for table locked")},
			"mixed":  {rows: 100, docs: mixed},
		},
	}
}

func TestScanAll_IsolatesFailuresAndKeepsOrder(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		db := scanFixture()
		analysis := newTestAnalysisService(db, 5000)
		pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: concurrency}, zap.NewNop())
		svc := NewScanService(db, analysis, pool, zap.NewNop())

		summary, err := svc.ScanAll(context.Background(), drift.DefaultConfig(), nil)
		require.NoError(t, err)
		require.Len(t, summary.Columns, 4)

		names := make([]string, len(summary.Columns))
		for i, c := range summary.Columns {
			names[i] = c.Column.FullName()
		}
		assert.Equal(t, []string{
			"public.users.metadata",
			"public.empty.payload",
			"public.locked.doc",
			"public.mixed.metadata",
		}, names, "concurrency %d", concurrency)

		users := summary.Columns[0]
		assert.Empty(t, users.Error)
		assert.Equal(t, uint64(2), users.SamplesAnalyzed)
		assert.Empty(t, users.Issues)
		assert.Equal(t, "Full table scan (all non-NULL rows)", users.Strategy)

		empty := summary.Columns[1]
		assert.Contains(t, empty.Error, apperrors.ErrNoSamples.Error())
		assert.Zero(t, empty.SamplesAnalyzed)
		assert.Empty(t, empty.Issues)

		locked := summary.Columns[2]
		assert.Contains(t, locked.Error, "permission denied")
		assert.Zero(t, locked.Critical+locked.Warning+locked.Info)

		mixed := summary.Columns[3]
		assert.Empty(t, mixed.Error)
		assert.Equal(t, 1, mixed.Critical, "a 12 percent minority type is critical")
		assert.Len(t, mixed.Issues, 1)

		critical, warning, info := summary.SeverityTotals()
		assert.Equal(t, 1, critical)
		assert.Zero(t, warning)
		assert.Zero(t, info)
		assert.Equal(t, 1, summary.TotalIssues())
		assert.Equal(t, 2, summary.FailedColumns())
	}
}

func TestScanAll_Progress(t *testing.T) {
	db := scanFixture()
	svc := NewScanService(db, newTestAnalysisService(db, 5000), nil, nil)

	var last, total int
	_, err := svc.ScanAll(context.Background(), drift.DefaultConfig(), func(completed, n int) {
		last, total = completed, n
	})
	require.NoError(t, err)
	assert.Equal(t, 4, last)
	assert.Equal(t, 4, total)
}

func TestScanAll_DiscoveryError(t *testing.T) {
	db := &mockDatabase{discoverErr: errors.New("connection reset by peer")}
	svc := NewScanService(db, newTestAnalysisService(db, 5000), nil, zap.NewNop())

	_, err := svc.ScanAll(context.Background(), drift.DefaultConfig(), nil)
	assert.ErrorContains(t, err, "connection reset by peer")
}

func TestScanAll_NoColumns(t *testing.T) {
	db := &mockDatabase{}
	svc := NewScanService(db, newTestAnalysisService(db, 5000), nil, zap.NewNop())

	summary, err := svc.ScanAll(context.Background(), drift.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Columns)
	assert.Zero(t, summary.TotalIssues())
}
