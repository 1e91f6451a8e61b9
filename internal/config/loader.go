package config

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SCOUT_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SCOUT_CONFIG is set
//  3. env (prefix SCOUT_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(errors.Mark(err, ErrLoadConfig), "config file %s", path)
		}
	}

	// SCOUT_MAX_TOP_N -> max_top_n; keys are flat so underscores stay.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrLoadConfig), "env")
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrLoadConfig), "decode")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.Wrap(ErrInvalidConfig, "addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errors.Wrapf(ErrInvalidConfig, "log_format %q must be text or json", c.LogFormat)
	case c.MaxTopN < 1:
		return errors.Wrap(ErrInvalidConfig, "max_top_n must be at least 1")
	case c.DefaultTopN < 1 || c.DefaultTopN > c.MaxTopN:
		return errors.Wrapf(ErrInvalidConfig, "default_top_n must be within 1..%d", c.MaxTopN)
	case c.MaxCompare < 1:
		return errors.Wrap(ErrInvalidConfig, "max_compare must be at least 1")
	case c.ScoreWorkers < 1:
		return errors.Wrap(ErrInvalidConfig, "score_workers must be at least 1")
	case c.CellColorThreshold < 0 || c.CellColorThreshold >= 100:
		return errors.Wrap(ErrInvalidConfig, "cell_color_threshold must be within [0,100)")
	}

	switch c.Source {
	case SourceMemory:
		if c.SeedRows < 0 {
			return errors.Wrap(ErrInvalidConfig, "seed_rows must not be negative")
		}
	case SourceSQL:
		if c.SQLDSN == "" {
			return errors.Wrap(ErrInvalidConfig, "sql source requires sql_dsn")
		}
		if c.SQLDriver != "postgres" && c.SQLDriver != "sqlite" {
			return errors.Wrapf(ErrInvalidConfig, "sql_driver %q must be postgres or sqlite", c.SQLDriver)
		}
		if c.SQLPageSize < 1 {
			return errors.Wrap(ErrInvalidConfig, "sql_page_size must be at least 1")
		}
	case SourceCSV:
		if c.CSVPath == "" {
			return errors.Wrap(ErrInvalidConfig, "csv source requires csv_path")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown source %q", c.Source)
	}
	return nil
}
