package postgres

import (
	"net"
	"net/url"
	"strconv"

	"github.com/ekaya-inc/pgdrift/pkg/config"
)

// Config contains PostgreSQL connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "prefer", "require", "verify-ca", "verify-full"
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "prefer"
}

// FromDatabaseConfig converts the application's database section into adapter options.
func FromDatabaseConfig(db config.DatabaseConfig) *Config {
	cfg := &Config{
		Host:     db.Host,
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		Database: db.Database,
		SSLMode:  db.SSLMode,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode()
	}
	return cfg
}

// BuildConnectionString builds a PostgreSQL URL. Credentials and the database name are
// escaped by net/url, so characters such as @, /, # or ? in a password survive parsing.
// When running in Docker, localhost is resolved to host.docker.internal.
func BuildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort()
	}

	u := url.URL{
		Scheme:   "postgresql",
		Host:     net.JoinHostPort(config.ResolveHostForDocker(cfg.Host), strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else if cfg.User != "" {
		u.User = url.User(cfg.User)
	}

	return u.String()
}
