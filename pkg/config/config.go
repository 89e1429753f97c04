package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
	"github.com/ekaya-inc/pgdrift/pkg/index"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "pgdrift.yaml"

// Config holds all configuration for pgdrift.
// Configuration can come from a YAML file (pgdrift.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, connection URLs) must only come from environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`

	LogLevel  string `yaml:"log_level" env:"PGDRIFT_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"PGDRIFT_LOG_FORMAT" env-default:"console"`

	Sampling SamplingConfig `yaml:"sampling"`
	Drift    DriftConfig    `yaml:"drift"`
	Index    IndexConfig    `yaml:"index"`
	Scan     ScanConfig     `yaml:"scan"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
// When URL is set it takes precedence over the individual fields.
type DatabaseConfig struct {
	URL      string `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE" env-default:"postgres"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"prefer"`
	// MaxConnections bounds the pool; scan-all with concurrency N needs at least N.
	MaxConnections int32 `yaml:"max_connections" env:"PGDRIFT_MAX_CONNECTIONS" env-default:"4"`
}

// SamplingConfig controls how many documents are read per column.
type SamplingConfig struct {
	SampleSize int `yaml:"sample_size" env:"PGDRIFT_SAMPLE_SIZE" env-default:"5000"`
	// ProductionMode caps TABLESAMPLE at 1% to limit I/O on live systems.
	ProductionMode bool `yaml:"production_mode" env:"PGDRIFT_PRODUCTION_MODE" env-default:"false"`
	// ShowProgress defaults to true in newConfig; cleanenv would treat an explicit false as unset.
	ShowProgress bool `yaml:"show_progress" env:"PGDRIFT_SHOW_PROGRESS"`
}

// DriftConfig holds the drift classifier thresholds.
type DriftConfig struct {
	TypeInconsistencyThreshold float64 `yaml:"type_inconsistency_threshold" env-default:"5.0"`
	GhostKeyThreshold          float64 `yaml:"ghost_key_threshold" env-default:"0.10"`
	SparseFieldThreshold       float64 `yaml:"sparse_field_threshold" env-default:"0.80"`
	MissingKeyThreshold        float64 `yaml:"missing_key_threshold" env-default:"0.95"`
	DetectSchemaEvolution      bool    `yaml:"detect_schema_evolution"` // defaults to true in newConfig
}

// IndexConfig holds the index recommender thresholds.
type IndexConfig struct {
	HighDensityThreshold   float64 `yaml:"high_density_threshold" env-default:"0.8"`
	MediumDensityThreshold float64 `yaml:"medium_density_threshold" env-default:"0.2"`
	MinOccurrences         uint64  `yaml:"min_occurrences" env-default:"100"`
}

// ScanConfig controls scan-all.
type ScanConfig struct {
	Concurrency int `yaml:"concurrency" env:"PGDRIFT_SCAN_CONCURRENCY" env-default:"1"`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error when path is the default: configuration then
// comes from the environment and built-in defaults alone.
func Load(path string) (*Config, error) {
	cfg := newConfig()

	if path == "" {
		path = DefaultPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && path == DefaultPath:
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to open config file %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newConfig pre-sets the defaults that are true booleans.
func newConfig() *Config {
	cfg := &Config{}
	cfg.Sampling.ShowProgress = true
	cfg.Drift.DetectSchemaEvolution = true
	return cfg
}

// Validate checks threshold ordering and value ranges.
func (c *Config) Validate() error {
	if c.Sampling.SampleSize <= 0 {
		return fmt.Errorf("%w: sampling.sample_size must be positive, got %d", apperrors.ErrInvalidConfig, c.Sampling.SampleSize)
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("%w: scan.concurrency must be positive, got %d", apperrors.ErrInvalidConfig, c.Scan.Concurrency)
	}

	d := c.Drift
	if d.TypeInconsistencyThreshold < 0 || d.TypeInconsistencyThreshold > 100 {
		return fmt.Errorf("%w: drift.type_inconsistency_threshold must be within [0, 100], got %g",
			apperrors.ErrInvalidConfig, d.TypeInconsistencyThreshold)
	}
	if !(d.GhostKeyThreshold > 0 && d.GhostKeyThreshold < d.SparseFieldThreshold &&
		d.SparseFieldThreshold < d.MissingKeyThreshold && d.MissingKeyThreshold <= 1) {
		return fmt.Errorf("%w: drift thresholds must satisfy 0 < ghost (%g) < sparse (%g) < missing (%g) <= 1",
			apperrors.ErrInvalidConfig, d.GhostKeyThreshold, d.SparseFieldThreshold, d.MissingKeyThreshold)
	}

	i := c.Index
	if !(i.MediumDensityThreshold > 0 && i.MediumDensityThreshold < i.HighDensityThreshold && i.HighDensityThreshold <= 1) {
		return fmt.Errorf("%w: index thresholds must satisfy 0 < medium (%g) < high (%g) <= 1",
			apperrors.ErrInvalidConfig, i.MediumDensityThreshold, i.HighDensityThreshold)
	}

	return nil
}

// ToDriftConfig converts the drift section into classifier options.
func (c *Config) ToDriftConfig() drift.Config {
	return drift.Config{
		TypeInconsistencyThreshold: c.Drift.TypeInconsistencyThreshold,
		GhostKeyThreshold:          c.Drift.GhostKeyThreshold,
		SparseFieldThreshold:       c.Drift.SparseFieldThreshold,
		MissingKeyThreshold:        c.Drift.MissingKeyThreshold,
		DetectSchemaEvolution:      c.Drift.DetectSchemaEvolution,
	}
}

// ToIndexConfig converts the index section into recommender options.
func (c *Config) ToIndexConfig() index.Config {
	return index.Config{
		HighDensityThreshold:   c.Index.HighDensityThreshold,
		MediumDensityThreshold: c.Index.MediumDensityThreshold,
		MinOccurrences:         c.Index.MinOccurrences,
	}
}
