// Package config provides centralized configuration management for csvxform.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Transform TransformConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
}

// TransformConfig holds batch conversion settings.
type TransformConfig struct {
	// InputDir is the directory scanned for input files (default: ./data/lz)
	InputDir string `env:"XFORM_INPUT_DIR" default:"./data/lz"`

	// OutputDir receives converted files under the same names (default: ./data/pub)
	OutputDir string `env:"XFORM_OUTPUT_DIR" default:"./data/pub"`

	// Extension selects input files by literal, case-sensitive suffix (default: .csv)
	Extension string `env:"XFORM_EXTENSION" default:".csv"`

	// Layout is the registered output layout key (default: security_positions)
	Layout string `env:"XFORM_LAYOUT" default:"security_positions"`

	// Verbose logs one progress line per file (default: true)
	Verbose bool `env:"XFORM_VERBOSE" default:"true"`

	// UseCRLF terminates output lines with \r\n instead of \n (default: false)
	UseCRLF bool `env:"XFORM_CRLF" default:"false"`

	// WriteFailedRows writes "<name> - failed.csv" next to outputs with failures (default: false)
	WriteFailedRows bool `env:"XFORM_WRITE_FAILED_ROWS" default:"false"`

	// ContinueOnError keeps going after a file fails as a whole (default: false)
	ContinueOnError bool `env:"XFORM_CONTINUE_ON_ERROR" default:"false"`
}

// DatabaseConfig holds the optional history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. History is disabled when empty.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is a local history database, used when URL is empty.
	SQLitePath string `env:"XFORM_HISTORY_SQLITE"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryEnabled reports whether a PostgreSQL history database is configured.
func (c *DatabaseConfig) HistoryEnabled() bool {
	return c.URL != ""
}

// SQLiteHistoryEnabled reports whether the local SQLite history is used.
// PostgreSQL takes precedence when both are set.
func (c *DatabaseConfig) SQLiteHistoryEnabled() bool {
	return c.URL == "" && c.SQLitePath != ""
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	db := "disabled"
	switch {
	case c.Database.HistoryEnabled():
		db = "[MASKED]"
	case c.Database.SQLiteHistoryEnabled():
		db = fmt.Sprintf("sqlite:%s", c.Database.SQLitePath)
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Transform: {InputDir: %q, OutputDir: %q, Extension: %q, Layout: %q}, ",
		c.Transform.InputDir, c.Transform.OutputDir, c.Transform.Extension, c.Transform.Layout)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", db, c.Database.MaxConns)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
