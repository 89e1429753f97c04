package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
)

// ColumnScanResult is the drift outcome for one column of a scan-all sweep.
type ColumnScanResult struct {
	Column          datasource.JSONBColumn
	Strategy        string
	SamplesAnalyzed uint64
	Issues          []drift.Issue
	Critical        int
	Warning         int
	Info            int
	// Error is set when the column could not be analyzed. The other counts are then zero.
	Error string
}

// ScanSummary aggregates a scan-all sweep.
type ScanSummary struct {
	RunID    uuid.UUID
	Columns  []ColumnScanResult
	Duration time.Duration
}

// TotalIssues returns the number of issues across all columns.
func (s *ScanSummary) TotalIssues() int {
	total := 0
	for _, c := range s.Columns {
		total += len(c.Issues)
	}
	return total
}

// SeverityTotals returns the critical, warning and info totals across all columns.
func (s *ScanSummary) SeverityTotals() (critical, warning, info int) {
	for _, c := range s.Columns {
		critical += c.Critical
		warning += c.Warning
		info += c.Info
	}
	return critical, warning, info
}

// FailedColumns returns the number of columns that could not be analyzed.
func (s *ScanSummary) FailedColumns() int {
	failed := 0
	for _, c := range s.Columns {
		if c.Error != "" {
			failed++
		}
	}
	return failed
}

// ScanService defines the database-wide drift sweep.
type ScanService interface {
	// ScanAll discovers every JSONB column and runs drift detection on each.
	// A column that fails is recorded with its error; the sweep continues.
	// onProgress, if set, is called after each column completes.
	ScanAll(ctx context.Context, cfg drift.Config, onProgress func(completed, total int)) (*ScanSummary, error)
}

type scanService struct {
	discoverer datasource.ColumnDiscoverer
	analysis   AnalysisService
	pool       *WorkerPool
	logger     *zap.Logger
}

// NewScanService creates a scan service. Columns are analyzed on pool.
func NewScanService(
	discoverer datasource.ColumnDiscoverer,
	analysis AnalysisService,
	pool *WorkerPool,
	logger *zap.Logger,
) ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = NewWorkerPool(DefaultWorkerPoolConfig(), logger)
	}
	return &scanService{
		discoverer: discoverer,
		analysis:   analysis,
		pool:       pool,
		logger:     logger.Named("scan"),
	}
}

func (s *scanService) ScanAll(ctx context.Context, cfg drift.Config, onProgress func(completed, total int)) (*ScanSummary, error) {
	start := time.Now()

	columns, err := s.discoverer.DiscoverJSONBColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover jsonb columns: %w", err)
	}

	s.logger.Info("Scanning JSONB columns", zap.Int("columns", len(columns)))

	items := make([]WorkItem[ColumnScanResult], len(columns))
	for i, col := range columns {
		items[i] = WorkItem[ColumnScanResult]{
			ID: col.FullName(),
			Execute: func(ctx context.Context) (ColumnScanResult, error) {
				return s.scanColumn(ctx, col, cfg)
			},
		}
	}

	results := Process(ctx, s.pool, items, onProgress)

	summary := &ScanSummary{
		RunID:   uuid.New(),
		Columns: make([]ColumnScanResult, len(results)),
	}
	for i, r := range results {
		if r.Err != nil {
			s.logger.Warn("Column analysis failed",
				zap.String("column", r.ID),
				zap.Error(r.Err))
			summary.Columns[i] = ColumnScanResult{Column: columns[i], Error: r.Err.Error()}
			continue
		}
		summary.Columns[i] = r.Result
	}
	summary.Duration = time.Since(start)

	critical, warning, info := summary.SeverityTotals()
	s.logger.Info("Scan complete",
		zap.Int("columns", len(summary.Columns)),
		zap.Int("failed", summary.FailedColumns()),
		zap.Int("critical", critical),
		zap.Int("warning", warning),
		zap.Int("info", info),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

func (s *scanService) scanColumn(ctx context.Context, col datasource.JSONBColumn, cfg drift.Config) (ColumnScanResult, error) {
	analysis, err := s.analysis.AnalyzeColumn(ctx, col.Target(), col.EstimatedRows)
	if err != nil {
		return ColumnScanResult{}, err
	}

	result := ColumnScanResult{
		Column:          col,
		Strategy:        analysis.Strategy.Describe(),
		SamplesAnalyzed: analysis.SamplesAnalyzed,
		Issues:          drift.Detect(analysis.Stats, cfg),
	}
	for _, issue := range result.Issues {
		switch issue.Severity() {
		case drift.SeverityCritical:
			result.Critical++
		case drift.SeverityWarning:
			result.Warning++
		default:
			result.Info++
		}
	}
	return result, nil
}
