package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
	"github.com/ekaya-inc/pgdrift/pkg/services"
)

// Renderer writes results to w in one format.
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer. An empty format renders tables.
func NewRenderer(w io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatTable
	}
	return &Renderer{w: w, format: format}
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// Columns renders a discovery result.
func (r *Renderer) Columns(columns []datasource.JSONBColumn) error {
	return r.render(NewColumnsDocument(columns), func(b *strings.Builder) {
		if r.format == FormatMarkdown {
			columnsMarkdown(b, columns)
		} else {
			columnsTable(b, columns)
		}
	})
}

// Drift renders an analysis with its drift issues.
func (r *Renderer) Drift(report *services.DriftReport) error {
	doc := NewAnalysisDocument(report)
	return r.render(doc, func(b *strings.Builder) {
		if r.format == FormatMarkdown {
			driftMarkdown(b, doc, report.Issues)
		} else {
			driftTable(b, doc, report.Issues)
		}
	})
}

// Indexes renders index recommendations.
func (r *Renderer) Indexes(report *services.IndexReport) error {
	doc := NewIndexDocument(report)
	return r.render(doc, func(b *strings.Builder) {
		if r.format == FormatMarkdown {
			indexMarkdown(b, doc)
		} else {
			indexTable(b, doc)
		}
	})
}

// Scan renders a scan-all summary.
func (r *Renderer) Scan(summary *services.ScanSummary) error {
	doc := NewScanDocument(summary)
	return r.render(doc, func(b *strings.Builder) {
		if r.format == FormatMarkdown {
			scanMarkdown(b, doc)
		} else {
			scanTable(b, doc)
		}
	})
}

func (r *Renderer) render(doc any, text func(b *strings.Builder)) error {
	switch r.format {
	case FormatJSON:
		return WriteJSON(r.w, doc)
	case FormatYAML:
		return WriteYAML(r.w, doc)
	case FormatTable, FormatMarkdown:
		var b strings.Builder
		text(&b)
		_, err := io.WriteString(r.w, b.String())
		return err
	default:
		return fmt.Errorf("unsupported output format %q", r.format)
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteYAML writes v as a YAML document with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func newTabWriter(b *strings.Builder) *tabwriter.Writer {
	return tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
}

// Table format.

func columnsTable(b *strings.Builder, columns []datasource.JSONBColumn) {
	if len(columns) == 0 {
		b.WriteString("No JSONB columns found.\n")
		return
	}

	b.WriteString("\nJSONB Columns:\n")
	tw := newTabWriter(b)
	fmt.Fprintln(tw, "SCHEMA\tTABLE\tCOLUMN\tEST. ROWS")
	for _, c := range columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Schema, c.Table, c.Column, formatEstimate(c.EstimatedRows))
	}
	tw.Flush()
	fmt.Fprintf(b, "\nFound %s\n\n", countNoun(len(columns), "JSONB column"))
}

func driftTable(b *strings.Builder, doc AnalysisDocument, issues []drift.Issue) {
	fmt.Fprintf(b, "\nAnalyzing %s.%s.%s (%s)\n", doc.Schema, doc.Table, doc.Column, countNoun(doc.SamplesAnalyzed, "sample"))
	fmt.Fprintf(b, "Strategy: %s\n", doc.Strategy)
	if doc.SkippedDocuments > 0 {
		fmt.Fprintf(b, "Skipped: %s\n", countNoun(doc.SkippedDocuments, "undecodable document"))
	}

	b.WriteString("\nSchema Summary:\n")
	fmt.Fprintf(b, "  Total unique paths: %s\n", formatCount(doc.Summary.TotalPaths))
	fmt.Fprintf(b, "  Max nesting depth: %d\n", doc.Summary.MaxDepth)

	if len(issues) == 0 {
		b.WriteString("  No drift issues found!\n\n")
		return
	}

	s := doc.Summary
	fmt.Fprintf(b, "  Issues found: %d critical, %s, %d info\n",
		s.CriticalIssues, countNoun(s.WarningIssues, "warning"), s.InfoIssues)

	for _, group := range []struct {
		title    string
		severity drift.Severity
	}{
		{"Critical Issues", drift.SeverityCritical},
		{"Warnings", drift.SeverityWarning},
		{"Info", drift.SeverityInfo},
	} {
		var rows []drift.Issue
		for _, issue := range issues {
			if issue.Severity() == group.severity {
				rows = append(rows, issue)
			}
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(b, "\n%s:\n", group.title)
		tw := newTabWriter(b)
		fmt.Fprintln(tw, "PATH\tSEVERITY\tISSUE")
		for _, issue := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", issue.Path(), issue.Severity(), issue.Description())
		}
		tw.Flush()
	}
	b.WriteString("\n")
}

func indexTable(b *strings.Builder, doc IndexDocument) {
	fmt.Fprintf(b, "\nIndex Recommendations for %s.%s.%s\n\n", doc.Schema, doc.Table, doc.Column)

	if len(doc.Recommendations) == 0 {
		b.WriteString("No index recommendations.\n")
		b.WriteString("\nThis could mean:\n")
		writeNoRecommendationReasons(b, "  • ")
		b.WriteString("\n")
		return
	}

	s := doc.Summary
	b.WriteString("Summary:\n")
	fmt.Fprintf(b, "  Total recommendations: %d\n", s.TotalRecommendations)
	if s.HighPriority > 0 {
		fmt.Fprintf(b, "  High priority: %d\n", s.HighPriority)
	}
	if s.MediumPriority > 0 {
		fmt.Fprintf(b, "  Medium priority: %d\n", s.MediumPriority)
	}
	if s.LowPriority > 0 {
		fmt.Fprintf(b, "  Low priority: %d\n", s.LowPriority)
	}

	b.WriteString("\nRecommendations:\n")
	tw := newTabWriter(b)
	fmt.Fprintln(tw, "FIELD PATH\tINDEX TYPE\tPRIORITY\tREASON")
	for _, rec := range doc.Recommendations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.FieldPath, rec.IndexType.DisplayName(), rec.Priority.DisplayName(), rec.Reason)
	}
	tw.Flush()

	b.WriteString("\nSQL Commands:\n")
	for i, rec := range doc.Recommendations {
		fmt.Fprintf(b, "\n%d - %s\n", i+1, rec.FieldPath)
		fmt.Fprintf(b, "%s\n", rec.SQL)
		fmt.Fprintf(b, "Benefit: %s\n", rec.EstimatedBenefit)
	}
	b.WriteString("\n")
}

func scanTable(b *strings.Builder, doc ScanDocument) {
	if len(doc.Columns) == 0 {
		b.WriteString("No JSONB columns found.\n")
		return
	}

	fmt.Fprintf(b, "\nScanned %s in %s\n\n", countNoun(len(doc.Columns), "JSONB column"), formatDuration(doc.DurationMS))
	tw := newTabWriter(b)
	fmt.Fprintln(tw, "COLUMN\tSAMPLES\tCRITICAL\tWARNING\tINFO\tSTATUS")
	for _, c := range doc.Columns {
		name := c.Schema + "." + c.Table + "." + c.Column
		if c.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\terror: %s\n", name, c.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", name, formatCount(c.SamplesAnalyzed), c.Critical, c.Warning, c.Info, scanStatus(c))
	}
	tw.Flush()

	s := doc.Summary
	fmt.Fprintf(b, "\nTotal: %s (%d critical, %s, %d info)",
		countNoun(s.TotalIssues, "issue"), s.Critical, countNoun(s.Warning, "warning"), s.Info)
	if s.FailedColumns > 0 {
		fmt.Fprintf(b, ", %s failed", countNoun(s.FailedColumns, "column"))
	}
	b.WriteString("\n\n")
}

func scanStatus(c ScanColumnDocument) string {
	switch {
	case c.Critical > 0:
		return "critical"
	case c.Warning > 0:
		return "warning"
	case c.Info > 0:
		return "info"
	default:
		return "ok"
	}
}

// Markdown format.

func columnsMarkdown(b *strings.Builder, columns []datasource.JSONBColumn) {
	b.WriteString("# JSONB Columns\n\n")
	b.WriteString("| Schema | Table | Column | Est. Rows |\n")
	b.WriteString("|--------|-------|--------|-----------|\n")
	for _, c := range columns {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			escapeMarkdown(c.Schema), escapeMarkdown(c.Table), escapeMarkdown(c.Column), formatEstimate(c.EstimatedRows))
	}
	fmt.Fprintf(b, "\nFound %s\n", countNoun(len(columns), "JSONB column"))
}

func driftMarkdown(b *strings.Builder, doc AnalysisDocument, issues []drift.Issue) {
	fmt.Fprintf(b, "# Schema Analysis: %s.%s\n\n", doc.Table, doc.Column)
	fmt.Fprintf(b, "**Samples analyzed:** %s\n\n", formatCount(doc.SamplesAnalyzed))
	fmt.Fprintf(b, "**Strategy:** %s\n\n", doc.Strategy)

	s := doc.Summary
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- Total unique paths: %d\n", s.TotalPaths)
	fmt.Fprintf(b, "- Max nesting depth: %d\n", s.MaxDepth)
	fmt.Fprintf(b, "- Issues: %d critical, %s, %d info\n\n",
		s.CriticalIssues, countNoun(s.WarningIssues, "warning"), s.InfoIssues)

	if len(issues) == 0 {
		b.WriteString("**No drift issues found!**\n")
		return
	}

	b.WriteString("## Drift Issues\n\n")
	b.WriteString("| Path | Severity | Issue |\n")
	b.WriteString("|------|----------|-------|\n")
	for _, issue := range issues {
		fmt.Fprintf(b, "| %s | %s | %s |\n",
			escapeMarkdown(issue.Path()), issue.Severity(), escapeMarkdown(issue.Description()))
	}
}

func indexMarkdown(b *strings.Builder, doc IndexDocument) {
	fmt.Fprintf(b, "# Index Recommendations: %s.%s\n\n", doc.Table, doc.Column)

	if len(doc.Recommendations) == 0 {
		b.WriteString("**No index recommendations.**\n\n")
		b.WriteString("This could mean:\n\n")
		writeNoRecommendationReasons(b, "- ")
		return
	}

	fmt.Fprintf(b, "Found %s\n\n", countNoun(len(doc.Recommendations), "recommendation"))
	b.WriteString("| Field Path | Index Type | Priority | Reason |\n")
	b.WriteString("|------------|------------|----------|--------|\n")
	for _, rec := range doc.Recommendations {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			escapeMarkdown(rec.FieldPath), rec.IndexType.DisplayName(), rec.Priority.DisplayName(), escapeMarkdown(rec.Reason))
	}

	b.WriteString("\n## SQL Commands\n")
	for i, rec := range doc.Recommendations {
		fmt.Fprintf(b, "\n### %d - %s\n\n", i+1, rec.FieldPath)
		fmt.Fprintf(b, "```sql\n%s\n```\n\n", rec.SQL)
		fmt.Fprintf(b, "**Estimated Benefit:** %s\n", rec.EstimatedBenefit)
	}
}

func scanMarkdown(b *strings.Builder, doc ScanDocument) {
	b.WriteString("# JSONB Drift Scan\n\n")
	fmt.Fprintf(b, "Scanned %s in %s\n\n", countNoun(len(doc.Columns), "JSONB column"), formatDuration(doc.DurationMS))
	if len(doc.Columns) == 0 {
		return
	}

	b.WriteString("| Column | Samples | Critical | Warning | Info | Status |\n")
	b.WriteString("|--------|---------|----------|---------|------|--------|\n")
	for _, c := range doc.Columns {
		name := escapeMarkdown(c.Schema + "." + c.Table + "." + c.Column)
		if c.Error != "" {
			fmt.Fprintf(b, "| %s | - | - | - | - | error: %s |\n", name, escapeMarkdown(c.Error))
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %d | %d | %d | %s |\n",
			name, formatCount(c.SamplesAnalyzed), c.Critical, c.Warning, c.Info, scanStatus(c))
	}

	s := doc.Summary
	fmt.Fprintf(b, "\n**Total:** %s (%d critical, %s, %d info)\n",
		countNoun(s.TotalIssues, "issue"), s.Critical, countNoun(s.Warning, "warning"), s.Info)
}

func writeNoRecommendationReasons(b *strings.Builder, bullet string) {
	for _, reason := range []string{
		"All fields have low occurrence counts (< 100 samples)",
		"All fields are objects or arrays (not directly indexable)",
		"Field densities are in the middle range without strong indexing needs",
	} {
		b.WriteString(bullet + reason + "\n")
	}
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
