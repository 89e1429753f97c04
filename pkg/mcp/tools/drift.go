package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
	"github.com/ekaya-inc/pgdrift/pkg/index"
	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/output"
	"github.com/ekaya-inc/pgdrift/pkg/services"
)

// Database is what the drift tools read through.
type Database interface {
	datasource.ColumnDiscoverer
	datasource.TableInspector
	datasource.DocumentSource
}

// DriftToolDeps contains dependencies for the JSONB drift tools.
type DriftToolDeps struct {
	DB              Database
	Sampling        services.SamplingOptions
	Drift           drift.Config
	Index           index.Config
	ScanConcurrency int
	Logger          *zap.Logger
}

// DriftToolNames lists every tool in the drift group.
var DriftToolNames = []string{
	"discover_jsonb_columns",
	"analyze_jsonb_column",
	"recommend_jsonb_indexes",
	"scan_all_jsonb_columns",
}

// RegisterDriftTools registers the read-only JSONB analysis tools.
func RegisterDriftTools(s *server.MCPServer, deps *DriftToolDeps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	registerDiscoverTool(s, deps)
	registerAnalyzeTool(s, deps)
	registerRecommendIndexesTool(s, deps)
	registerScanAllTool(s, deps)
}

// analysisService builds a per-call service. sampleSize overrides the configured size when positive.
func (d *DriftToolDeps) analysisService(sampleSize int) services.AnalysisService {
	opts := d.Sampling
	// stdout carries the protocol, so no progress output.
	opts.Progress = nil
	if sampleSize > 0 {
		opts.SampleSize = sampleSize
	}
	return services.NewAnalysisService(d.DB, d.DB, opts, d.Logger)
}

func readOnlyAnnotations() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	}
}

func sampleSizeOption() mcp.ToolOption {
	return mcp.WithNumber(
		"sample_size",
		mcp.Description("Maximum number of documents to sample (default: configured sampling.sample_size, 5000)"),
	)
}

func targetOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified (e.g. 'users' or 'app.users'). Defaults to the public schema."),
		),
		mcp.WithString(
			"column",
			mcp.Required(),
			mcp.Description("JSONB column name"),
		),
	}
}

// parseTargetRequest reads table, column and sample_size. A non-nil result is a structured parameter error.
func parseTargetRequest(req mcp.CallToolRequest) (models.Target, int, *mcp.CallToolResult) {
	table, err := requireTrimmedString(req, "table")
	if err != nil {
		return models.Target{}, 0, NewErrorResult("invalid_parameters", err.Error())
	}
	column, err := requireTrimmedString(req, "column")
	if err != nil {
		return models.Target{}, 0, NewErrorResult("invalid_parameters", err.Error())
	}
	sampleSize, _, err := getOptionalPositiveInt(req, "sample_size")
	if err != nil {
		return models.Target{}, 0, NewErrorResult("invalid_parameters", err.Error())
	}
	return models.NewTarget(table, column), sampleSize, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func registerDiscoverTool(s *server.MCPServer, deps *DriftToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"List every JSONB column in the database outside the system schemas, " +
				"with the planner's estimated row count when statistics exist.",
		),
	}
	tool := mcp.NewTool("discover_jsonb_columns", append(opts, readOnlyAnnotations()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		columns, err := deps.DB.DiscoverJSONBColumns(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to discover JSONB columns: %w", err)
		}
		return jsonResult(output.NewColumnsDocument(columns))
	})
}

func registerAnalyzeTool(s *server.MCPServer, deps *DriftToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Sample a JSONB column and report per-path field statistics plus detected schema drift: " +
				"type inconsistencies, ghost keys, sparse fields, missing keys and schema evolution. " +
				"Issues are ranked critical, warning or info.",
		),
	}
	opts = append(opts, targetOptions()...)
	opts = append(opts, sampleSizeOption())
	tool := mcp.NewTool("analyze_jsonb_column", append(opts, readOnlyAnnotations()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, sampleSize, errResult := parseTargetRequest(req)
		if errResult != nil {
			return errResult, nil
		}

		report, err := deps.analysisService(sampleSize).DetectDrift(ctx, target, deps.Drift)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(output.NewAnalysisDocument(report))
	})
}

func registerRecommendIndexesTool(s *server.MCPServer, deps *DriftToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Sample a JSONB column and recommend GIN, partial GIN or extracted B-tree indexes with ready-to-run DDL. " +
				"Nothing is executed; the SQL is advisory.",
		),
	}
	opts = append(opts, targetOptions()...)
	opts = append(opts, sampleSizeOption())
	tool := mcp.NewTool("recommend_jsonb_indexes", append(opts, readOnlyAnnotations()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, sampleSize, errResult := parseTargetRequest(req)
		if errResult != nil {
			return errResult, nil
		}

		report, err := deps.analysisService(sampleSize).RecommendIndexes(ctx, target, deps.Index)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(output.NewIndexDocument(report))
	})
}

func registerScanAllTool(s *server.MCPServer, deps *DriftToolDeps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Run drift detection on every JSONB column in the database. " +
				"A column that cannot be analyzed is reported with its error and the scan continues.",
		),
		sampleSizeOption(),
	}
	tool := mcp.NewTool("scan_all_jsonb_columns", append(opts, readOnlyAnnotations()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sampleSize, _, err := getOptionalPositiveInt(req, "sample_size")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		pool := services.NewWorkerPool(services.WorkerPoolConfig{MaxConcurrent: deps.ScanConcurrency}, deps.Logger)
		scan := services.NewScanService(deps.DB, deps.analysisService(sampleSize), pool, deps.Logger)

		summary, err := scan.ScanAll(ctx, deps.Drift, nil)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		return jsonResult(output.NewScanDocument(summary))
	})
}
