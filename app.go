package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/pgdrift/pkg/config"
	"github.com/ekaya-inc/pgdrift/pkg/database"
	"github.com/ekaya-inc/pgdrift/pkg/logging"
	"github.com/ekaya-inc/pgdrift/pkg/output"
	"github.com/ekaya-inc/pgdrift/pkg/services"
)

// Globals are flags shared by every command.
type Globals struct {
	Config      string `help:"Path to the YAML config file." default:"pgdrift.yaml" placeholder:"PATH"`
	DatabaseURL string `name:"database-url" help:"PostgreSQL connection URL. Overrides the PG* settings." env:"DATABASE_URL" placeholder:"URL"`
	Format      string `short:"f" help:"Output format: table, json, yaml or markdown." default:"table" enum:"table,json,yaml,markdown"`
	LogLevel    string `name:"log-level" help:"Log level: debug, info, warn or error. Overrides log_level from the config." placeholder:"LEVEL"`
}

// SamplingFlags tune how documents are sampled.
type SamplingFlags struct {
	SampleSize int  `short:"s" name:"sample-size" help:"Maximum number of documents to sample (default from config, 5000)."`
	Production bool `help:"Production mode: cap TABLESAMPLE at 1% of rows on very large tables."`
	NoProgress bool `name:"no-progress" help:"Do not print sampling progress to stderr."`
}

// apply copies the global overrides onto cfg.
func (g *Globals) apply(cfg *config.Config) {
	if g.DatabaseURL != "" {
		cfg.Database.URL = g.DatabaseURL
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
}

// apply copies the sampling overrides onto cfg.
func (f *SamplingFlags) apply(cfg *config.Config) {
	if f.SampleSize != 0 {
		cfg.Sampling.SampleSize = f.SampleSize
	}
	if f.Production {
		cfg.Sampling.ProductionMode = true
	}
	if f.NoProgress {
		cfg.Sampling.ShowProgress = false
	}
}

// loadConfig reads the config file and environment, then layers the flags on top.
func loadConfig(g *Globals, sampling *SamplingFlags) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	g.apply(cfg)
	if sampling != nil {
		sampling.apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connectionURL prefers an explicit URL over the discrete PG* settings.
func connectionURL(cfg *config.Config) string {
	if cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return postgres.BuildConnectionString(postgres.FromDatabaseConfig(cfg.Database))
}

// app holds what a command needs once configuration is resolved and the database is reachable.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *database.DB
	adapter *postgres.Adapter
	stdout  io.Writer
	stderr  io.Writer
}

func newApp(ctx context.Context, g *Globals, sampling *SamplingFlags) (*app, error) {
	cfg, err := loadConfig(g, sampling)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	connURL := connectionURL(cfg)
	logger.Debug("Connecting to database", zap.String("url", logging.SanitizeConnectionString(connURL)))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connURL,
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect to database: %s", logging.SanitizeError(err))
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		adapter: postgres.NewAdapter(db.Pool, logger),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}, nil
}

func (a *app) Close() {
	_ = a.adapter.Close()
	a.db.Close()
	_ = a.logger.Sync()
}

func (a *app) renderer(g *Globals) (*output.Renderer, error) {
	format, err := output.ParseFormat(g.Format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(a.stdout, format), nil
}

// samplingOptions returns the configured options. progress may be nil.
func (a *app) samplingOptions(progress *progressPrinter) services.SamplingOptions {
	opts := services.SamplingOptions{
		SampleSize:     a.cfg.Sampling.SampleSize,
		ProductionMode: a.cfg.Sampling.ProductionMode,
	}
	if progress != nil {
		opts.Progress = progress.Rows
	}
	return opts
}

// progress returns a stderr progress printer, or nil when progress is off.
func (a *app) progress(label string) *progressPrinter {
	if !a.cfg.Sampling.ShowProgress {
		return nil
	}
	return newProgressPrinter(a.stderr, label)
}

func (a *app) analysisService(progress *progressPrinter) services.AnalysisService {
	return services.NewAnalysisService(a.adapter, a.adapter, a.samplingOptions(progress), a.logger)
}
