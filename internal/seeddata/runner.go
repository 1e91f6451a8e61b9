package seeddata

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/pkg/logger"
)

// Run generates rows, writes them, and optionally verifies a running server.
func Run(ctx context.Context, cfg *Config, profiles *catalog.Profiles) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting player seeding",
		logger.Int("rows", cfg.Rows),
		logger.Any("seed", cfg.Seed),
		logger.String("format", cfg.Format),
		logger.String("output", cfg.Output),
		logger.String("verifyURL", cfg.VerifyURL))

	rows, err := Generate(ctx, cfg, profiles, stats)
	if err != nil {
		return stats, errors.Wrap(err, "row generation failed")
	}
	if cfg.Output != "" {
		if err := Write(ctx, cfg, profiles, rows, stats); err != nil {
			return stats, errors.Wrap(err, "writing rows failed")
		}
	}
	if cfg.VerifyURL != "" {
		if err := Verify(ctx, cfg); err != nil {
			return stats, errors.Wrap(err, "verification failed")
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("rowsWritten", stats.RowsWritten),
		logger.Int("unknownProfiles", stats.UnknownProfiles),
		logger.Int("storedOnly", stats.StoredOnly),
		logger.Int("missingCells", stats.MissingCells),
		logger.Duration("duration", stats.Duration))
}
