package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/fixtures"
	"github.com/ekaya-inc/pgdrift/pkg/mcp"
	"github.com/ekaya-inc/pgdrift/pkg/mcp/tools"
	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/services"
)

// DiscoverCmd lists every JSONB column.
type DiscoverCmd struct{}

func (c *DiscoverCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.renderer(g)
	if err != nil {
		return err
	}

	columns, err := a.adapter.DiscoverJSONBColumns(ctx)
	if err != nil {
		return fmt.Errorf("discover JSONB columns: %w", err)
	}
	return r.Columns(columns)
}

// TargetArgs identify one JSONB column.
type TargetArgs struct {
	Table  string `arg:"" help:"Table name, optionally schema-qualified (schema.table)."`
	Column string `arg:"" help:"JSONB column name."`
}

func (t TargetArgs) target() models.Target {
	return models.NewTarget(t.Table, t.Column)
}

// AnalyzeCmd samples one column and reports drift.
type AnalyzeCmd struct {
	TargetArgs    `embed:""`
	SamplingFlags `embed:""`
}

func (c *AnalyzeCmd) Run(ctx context.Context, g *Globals) error {
	target := c.target()

	a, err := newApp(ctx, g, &c.SamplingFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.renderer(g)
	if err != nil {
		return err
	}

	progress := a.progress("Sampling " + target.FullName())
	report, err := a.analysisService(progress).DetectDrift(ctx, target, a.cfg.ToDriftConfig())
	progress.Done()
	if err != nil {
		return err
	}
	return r.Drift(report)
}

// IndexCmd recommends indexes for one column.
type IndexCmd struct {
	TargetArgs    `embed:""`
	SamplingFlags `embed:""`
}

func (c *IndexCmd) Run(ctx context.Context, g *Globals) error {
	target := c.target()

	a, err := newApp(ctx, g, &c.SamplingFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.renderer(g)
	if err != nil {
		return err
	}

	progress := a.progress("Sampling " + target.FullName())
	report, err := a.analysisService(progress).RecommendIndexes(ctx, target, a.cfg.ToIndexConfig())
	progress.Done()
	if err != nil {
		return err
	}
	return r.Indexes(report)
}

// ScanAllCmd runs drift detection on every JSONB column.
type ScanAllCmd struct {
	SamplingFlags `embed:""`
	Concurrency   int `short:"c" help:"Columns analyzed in parallel (default from config, 1)."`
}

func (c *ScanAllCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, &c.SamplingFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.renderer(g)
	if err != nil {
		return err
	}

	concurrency := a.cfg.Scan.Concurrency
	if c.Concurrency > 0 {
		concurrency = c.Concurrency
	}

	// Row counts from parallel columns would interleave, so only column progress is shown.
	progress := a.progress("Scanning")
	pool := services.NewWorkerPool(services.WorkerPoolConfig{MaxConcurrent: concurrency}, a.logger)
	scan := services.NewScanService(a.adapter, a.analysisService(nil), pool, a.logger)

	var onProgress func(completed, total int)
	if progress != nil {
		onProgress = progress.Columns
	}
	summary, err := scan.ScanAll(ctx, a.cfg.ToDriftConfig(), onProgress)
	progress.Done()
	if err != nil {
		return err
	}
	return r.Scan(summary)
}

// PingCmd checks that the database is reachable with the configured credentials.
type PingCmd struct{}

func (c *PingCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.adapter.TestConnection(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Connection OK")
	return nil
}

// MCPCmd serves the analysis tools to an MCP client over stdin and stdout.
type MCPCmd struct {
	SamplingFlags `embed:""`
}

func (c *MCPCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, &c.SamplingFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer("pgdrift", Version, a.logger)
	tools.RegisterDriftTools(srv.MCP(), &tools.DriftToolDeps{
		DB:              a.adapter,
		Sampling:        a.samplingOptions(nil),
		Drift:           a.cfg.ToDriftConfig(),
		Index:           a.cfg.ToIndexConfig(),
		ScanConcurrency: a.cfg.Scan.Concurrency,
		Logger:          a.logger,
	})

	a.logger.Info("Serving MCP on stdio", zap.String("version", Version))
	return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
}

// FixturesCmd manages the drift fixture tables.
type FixturesCmd struct {
	Load FixturesLoadCmd `cmd:"" help:"Create the fixture schema and its drifting tables"`
	Drop FixturesDropCmd `cmd:"" help:"Drop the fixture schema"`
}

// FixturesLoadCmd creates the fixtures.
type FixturesLoadCmd struct{}

func (c *FixturesLoadCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fixtures.Load(a.db.Pool, a.logger); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Fixtures loaded. Try: pgdrift discover")
	return nil
}

// FixturesDropCmd removes the fixtures.
type FixturesDropCmd struct{}

func (c *FixturesDropCmd) Run(ctx context.Context, g *Globals) error {
	a, err := newApp(ctx, g, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fixtures.Drop(a.db.Pool, a.logger); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Fixtures dropped.")
	return nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("pgdrift %s\n", Version)
	return nil
}
