package output

import (
	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
	"github.com/ekaya-inc/pgdrift/pkg/index"
	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/services"
)

// ColumnsDocument is the serialized result of discovery.
type ColumnsDocument struct {
	Columns []datasource.JSONBColumn `json:"columns" yaml:"columns"`
	Count   int                      `json:"count" yaml:"count"`
}

// NewColumnsDocument wraps a discovery result.
func NewColumnsDocument(columns []datasource.JSONBColumn) ColumnsDocument {
	if columns == nil {
		columns = []datasource.JSONBColumn{}
	}
	return ColumnsDocument{Columns: columns, Count: len(columns)}
}

// AnalysisSummary condenses a drift report.
type AnalysisSummary struct {
	TotalPaths     int `json:"total_paths" yaml:"total_paths"`
	MaxDepth       int `json:"max_depth" yaml:"max_depth"`
	CriticalIssues int `json:"critical_issues" yaml:"critical_issues"`
	WarningIssues  int `json:"warning_issues" yaml:"warning_issues"`
	InfoIssues     int `json:"info_issues" yaml:"info_issues"`
}

// AnalysisDocument is the serialized form of a drift report.
type AnalysisDocument struct {
	RunID            string               `json:"run_id" yaml:"run_id"`
	Schema           string               `json:"schema" yaml:"schema"`
	Table            string               `json:"table" yaml:"table"`
	Column           string               `json:"column" yaml:"column"`
	Strategy         string               `json:"strategy" yaml:"strategy"`
	SamplesAnalyzed  uint64               `json:"samples_analyzed" yaml:"samples_analyzed"`
	SkippedDocuments uint64               `json:"skipped_documents" yaml:"skipped_documents"`
	DurationMS       int64                `json:"duration_ms" yaml:"duration_ms"`
	FieldStats       []*models.FieldStats `json:"field_stats" yaml:"field_stats"`
	DriftIssues      []drift.Document     `json:"drift_issues" yaml:"drift_issues"`
	Summary          AnalysisSummary      `json:"summary" yaml:"summary"`
}

// NewAnalysisDocument flattens a drift report. Field stats are ordered by path.
func NewAnalysisDocument(report *services.DriftReport) AnalysisDocument {
	stats := report.Stats.Sorted()
	critical, warning, info := severityCounts(report.Issues)
	return AnalysisDocument{
		RunID:            report.RunID.String(),
		Schema:           report.Target.Schema,
		Table:            report.Target.Table,
		Column:           report.Target.Column,
		Strategy:         report.Strategy.Describe(),
		SamplesAnalyzed:  report.SamplesAnalyzed,
		SkippedDocuments: report.SkippedDocuments,
		DurationMS:       report.Duration.Milliseconds(),
		FieldStats:       stats,
		DriftIssues:      drift.ToDocuments(report.Issues),
		Summary: AnalysisSummary{
			TotalPaths:     len(stats),
			MaxDepth:       maxDepth(stats),
			CriticalIssues: critical,
			WarningIssues:  warning,
			InfoIssues:     info,
		},
	}
}

// IndexSummary counts recommendations by priority.
type IndexSummary struct {
	TotalRecommendations int `json:"total_recommendations" yaml:"total_recommendations"`
	HighPriority         int `json:"high_priority" yaml:"high_priority"`
	MediumPriority       int `json:"medium_priority" yaml:"medium_priority"`
	LowPriority          int `json:"low_priority" yaml:"low_priority"`
}

// IndexDocument is the serialized form of an index report.
type IndexDocument struct {
	RunID           string                 `json:"run_id" yaml:"run_id"`
	Schema          string                 `json:"schema" yaml:"schema"`
	Table           string                 `json:"table" yaml:"table"`
	Column          string                 `json:"column" yaml:"column"`
	SamplesAnalyzed uint64                 `json:"samples_analyzed" yaml:"samples_analyzed"`
	Recommendations []index.Recommendation `json:"recommendations" yaml:"recommendations"`
	Summary         IndexSummary           `json:"summary" yaml:"summary"`
}

// NewIndexDocument flattens an index report.
func NewIndexDocument(report *services.IndexReport) IndexDocument {
	recs := report.Recommendations
	if recs == nil {
		recs = []index.Recommendation{}
	}
	summary := IndexSummary{TotalRecommendations: len(recs)}
	for _, r := range recs {
		switch r.Priority {
		case index.PriorityHigh:
			summary.HighPriority++
		case index.PriorityMedium:
			summary.MediumPriority++
		case index.PriorityLow:
			summary.LowPriority++
		}
	}
	return IndexDocument{
		RunID:           report.RunID.String(),
		Schema:          report.Target.Schema,
		Table:           report.Target.Table,
		Column:          report.Target.Column,
		SamplesAnalyzed: report.SamplesAnalyzed,
		Recommendations: recs,
		Summary:         summary,
	}
}

// ScanColumnDocument is one column of a scan-all sweep.
type ScanColumnDocument struct {
	Schema          string           `json:"schema" yaml:"schema"`
	Table           string           `json:"table" yaml:"table"`
	Column          string           `json:"column" yaml:"column"`
	EstimatedRows   *int64           `json:"estimated_rows,omitempty" yaml:"estimated_rows,omitempty"`
	Strategy        string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	SamplesAnalyzed uint64           `json:"samples_analyzed" yaml:"samples_analyzed"`
	Critical        int              `json:"critical" yaml:"critical"`
	Warning         int              `json:"warning" yaml:"warning"`
	Info            int              `json:"info" yaml:"info"`
	Issues          []drift.Document `json:"issues" yaml:"issues"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// ScanTotals aggregates a sweep.
type ScanTotals struct {
	Columns       int `json:"columns" yaml:"columns"`
	FailedColumns int `json:"failed_columns" yaml:"failed_columns"`
	TotalIssues   int `json:"total_issues" yaml:"total_issues"`
	Critical      int `json:"critical" yaml:"critical"`
	Warning       int `json:"warning" yaml:"warning"`
	Info          int `json:"info" yaml:"info"`
}

// ScanDocument is the serialized form of a scan-all summary.
type ScanDocument struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	DurationMS int64                `json:"duration_ms" yaml:"duration_ms"`
	Columns    []ScanColumnDocument `json:"columns" yaml:"columns"`
	Summary    ScanTotals           `json:"summary" yaml:"summary"`
}

// NewScanDocument flattens a scan summary, keeping discovery order.
func NewScanDocument(summary *services.ScanSummary) ScanDocument {
	cols := make([]ScanColumnDocument, 0, len(summary.Columns))
	for _, c := range summary.Columns {
		cols = append(cols, ScanColumnDocument{
			Schema:          c.Column.Schema,
			Table:           c.Column.Table,
			Column:          c.Column.Column,
			EstimatedRows:   c.Column.EstimatedRows,
			Strategy:        c.Strategy,
			SamplesAnalyzed: c.SamplesAnalyzed,
			Critical:        c.Critical,
			Warning:         c.Warning,
			Info:            c.Info,
			Issues:          drift.ToDocuments(c.Issues),
			Error:           c.Error,
		})
	}
	critical, warning, info := summary.SeverityTotals()
	return ScanDocument{
		RunID:      summary.RunID.String(),
		DurationMS: summary.Duration.Milliseconds(),
		Columns:    cols,
		Summary: ScanTotals{
			Columns:       len(cols),
			FailedColumns: summary.FailedColumns(),
			TotalIssues:   summary.TotalIssues(),
			Critical:      critical,
			Warning:       warning,
			Info:          info,
		},
	}
}

func severityCounts(issues []drift.Issue) (critical, warning, info int) {
	for _, issue := range issues {
		switch issue.Severity() {
		case drift.SeverityCritical:
			critical++
		case drift.SeverityWarning:
			warning++
		default:
			info++
		}
	}
	return critical, warning, info
}

func maxDepth(stats []*models.FieldStats) int {
	depth := 0
	for _, s := range stats {
		depth = max(depth, s.Depth)
	}
	return depth
}
