// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"runtime"
	"time"
)

// Data source kinds.
const (
	SourceMemory = "memory"
	SourceSQL    = "sql"
	SourceCSV    = "csv"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Source selects where player rows come from: memory, sql or csv.
	Source string `koanf:"source"`

	// SQLDriver is postgres or sqlite when Source is sql.
	SQLDriver string `koanf:"sql_driver"`

	// SQLDSN is the connection string (or file path for sqlite).
	SQLDSN string `koanf:"sql_dsn"`

	// SQLPageSize bounds rows read per query page.
	SQLPageSize int `koanf:"sql_page_size"`

	// CSVPath is the export file when Source is csv.
	CSVPath string `koanf:"csv_path"`

	// CSVWatch reloads the CSV file when it changes.
	CSVWatch bool `koanf:"csv_watch"`

	// SeedRows is how many synthetic rows the memory source starts with.
	SeedRows int `koanf:"seed_rows"`

	// Seed makes the memory source's synthetic rows reproducible.
	Seed uint64 `koanf:"seed"`

	// CatalogFile optionally replaces the built-in metric catalog.
	CatalogFile string `koanf:"catalog_file"`

	// SourceCacheTTL is how long listed rows are reused. Zero disables expiry.
	SourceCacheTTL time.Duration `koanf:"source_cache_ttl"`

	// ScoreWorkers sizes the scoring worker pool.
	ScoreWorkers int `koanf:"score_workers"`

	// DefaultTopN is used when a leaderboard request omits top_n.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN caps top_n.
	MaxTopN int `koanf:"max_top_n"`

	// MaxCompare caps how many players one comparison may chart.
	MaxCompare int `koanf:"max_compare"`

	// CellColorThreshold is the score below which leaderboard cells stay white.
	CellColorThreshold float64 `koanf:"cell_color_threshold"`
}

// New returns a Config holding the defaults. The context is unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Source:             SourceMemory,
		SQLDriver:          "postgres",
		SQLPageSize:        1000,
		SeedRows:           200,
		Seed:               1,
		SourceCacheTTL:     time.Hour,
		ScoreWorkers:       runtime.NumCPU(),
		DefaultTopN:        20,
		MaxTopN:            500,
		MaxCompare:         2,
		CellColorThreshold: 30,
	}
}
