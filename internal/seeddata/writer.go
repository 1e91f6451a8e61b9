package seeddata

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0640
)

// ErrUnknownFormat is returned for output formats other than sqlite and csv.
var ErrUnknownFormat = errors.New("unknown output format")

// Write stores rows at cfg.Output in cfg.Format. CSV output gets one column
// per catalog metric, in catalog order.
func Write(ctx context.Context, cfg *Config, profiles *catalog.Profiles, rows []model.PlayerMetricRow, stats *Stats) error {
	if cfg.Output == "" {
		return errors.New("output path is required")
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	var err error
	switch cfg.Format {
	case FormatSQLite:
		err = writeSQLite(ctx, cfg.Output, rows)
	case FormatCSV:
		err = writeCSV(cfg.Output, allMetricKeys(profiles), rows)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", cfg.Format)
	}
	if err != nil {
		return err
	}
	if stats != nil {
		stats.RowsWritten = len(rows)
	}
	logger.Get().Info(ctx, "rows written",
		logger.String("format", cfg.Format),
		logger.String("output", cfg.Output),
		logger.Int("count", len(rows)))
	return nil
}

func writeSQLite(ctx context.Context, path string, rows []model.PlayerMetricRow) error {
	store, err := repository.OpenSQL(ctx, repository.DriverSQLite, path)
	if err != nil {
		return errors.Wrap(err, "open sqlite output")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close sqlite output", logger.Error(err))
		}
	}()
	return errors.Wrap(store.Insert(ctx, rows), "insert rows")
}

// writeCSV writes to a sibling temp file and renames it into place, so a
// server watching the path never reads a half-written file.
func writeCSV(path string, metricKeys []string, rows []model.PlayerMetricRow) error {
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return errors.Wrap(err, "create csv output")
	}
	if err := repository.WriteCSV(file, rows, metricKeys); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close csv output")
	}
	return errors.Wrap(os.Rename(tmp, path), "replace csv output")
}
