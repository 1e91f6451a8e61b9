package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/chart"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Chart scores one row and lays out its chart. A non-empty profileKey scores
// and plots the row under that profile instead of its own, so the summary
// always matches the plotted metrics.
func (s *Service) Chart(ctx context.Context, rowID, profileKey string) (chart.Payload, error) {
	row, err := s.store.Get(ctx, rowID)
	if err != nil {
		metrics.RecordChartError()
		return chart.Payload{}, errors.Wrapf(err, "chart row %q", rowID)
	}
	if profileKey != "" {
		row.ProfileKey = profileKey
	}

	scored, err := s.scorer.Score(row)
	if err != nil {
		metrics.RecordChartError()
		return chart.Payload{}, err
	}
	payload, err := s.charts.Build(scored, "")
	if err != nil {
		metrics.RecordChartError()
		return chart.Payload{}, err
	}

	metrics.RecordChartBuild()
	s.log().Debug(ctx, "chart built",
		logger.String("row", rowID),
		logger.String("profile", payload.ProfileKey),
		logger.Int("items", len(payload.Items)),
	)
	return payload, nil
}

// Compare charts several rows under one profile. An empty profileKey uses the
// first row's profile.
func (s *Service) Compare(ctx context.Context, rowIDs []string, profileKey string) ([]chart.Payload, error) {
	switch {
	case len(rowIDs) == 0:
		return nil, errors.Wrap(ErrInvalidQuery, "no rows to compare")
	case len(rowIDs) > s.maxCompare:
		return nil, errors.Wrapf(ErrTooManyPlayers, "%d rows requested, at most %d", len(rowIDs), s.maxCompare)
	}

	if profileKey == "" {
		first, err := s.store.Get(ctx, rowIDs[0])
		if err != nil {
			return nil, errors.Wrapf(err, "compare row %q", rowIDs[0])
		}
		profileKey = first.ProfileKey
	}

	out := make([]chart.Payload, 0, len(rowIDs))
	for _, id := range rowIDs {
		p, err := s.Chart(ctx, id, profileKey)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
