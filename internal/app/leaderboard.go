package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/ranking"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Skip reasons recorded on metrics.
const skipUnresolvedProfile = "unresolved_profile"

// scoreResult is one row's outcome, stored at the row's input index.
type scoreResult struct {
	row model.ScoredPlayerRow
	err error
}

// Leaderboard filters rows at the source, scores and ranks all of them, then
// keeps the top N and applies the category thresholds. Ranks are relative to
// the whole filtered universe, so gaps may appear after thresholds.
func (s *Service) Leaderboard(ctx context.Context, q types.LeaderboardQuery) (types.Leaderboard, error) {
	start := time.Now()

	n, err := s.checkQuery(ctx, q)
	if err != nil {
		return types.Leaderboard{}, err
	}

	rows, err := s.store.List(ctx, repository.Filter{
		Competitions: q.Competitions,
		Seasons:      q.Seasons,
		Profiles:     q.Profiles,
		Teams:        q.Teams,
		AgeMin:       q.AgeMin,
		AgeMax:       q.AgeMax,
		EUOnly:       q.EUOnly,
	})
	if err != nil {
		metrics.RecordLeaderboardError()
		return types.Leaderboard{}, errors.Wrap(err, "list rows")
	}

	scored, skipped, err := s.scoreAll(ctx, rows)
	if err != nil {
		metrics.RecordLeaderboardError()
		return types.Leaderboard{}, err
	}

	ranked := s.ranker.Rank(scored)
	kept, err := s.ranker.FilterTopNThenThreshold(ranked, n, ranking.Thresholds{
		Physical: q.MinPhysical,
		Attack:   q.MinAttack,
		Defense:  q.MinDefense,
	})
	if err != nil {
		metrics.RecordLeaderboardError()
		return types.Leaderboard{}, errors.Mark(err, ErrInvalidQuery)
	}

	lb := types.Leaderboard{
		SnapshotID:  uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Universe:    len(ranked),
		Rows:        kept,
		Skipped:     skipped,
		Empty:       len(kept) == 0,
	}

	elapsed := time.Since(start)
	metrics.RecordLeaderboardBuild(float64(elapsed.Milliseconds()), len(kept))
	s.log().Debug(ctx, "leaderboard built",
		logger.String("snapshot", lb.SnapshotID),
		logger.Int("universe", lb.Universe),
		logger.Int("rows", len(kept)),
		logger.Int("skipped", len(skipped)),
		logger.Duration("elapsed", elapsed),
	)
	return lb, nil
}

// Search scores and ranks every row whose player name is one of names.
// No top-N or thresholds apply.
func (s *Service) Search(ctx context.Context, names []string) (types.Leaderboard, error) {
	lb := types.Leaderboard{SnapshotID: uuid.NewString(), GeneratedAt: time.Now().UTC(), Empty: true}
	if len(names) == 0 {
		return lb, nil
	}

	rows, err := s.store.List(ctx, repository.Filter{Names: names})
	if err != nil {
		return types.Leaderboard{}, errors.Wrap(err, "list rows")
	}
	scored, skipped, err := s.scoreAll(ctx, rows)
	if err != nil {
		return types.Leaderboard{}, err
	}

	lb.Rows = s.ranker.Rank(scored)
	lb.Universe = len(lb.Rows)
	lb.Skipped = skipped
	lb.Empty = len(lb.Rows) == 0

	s.log().Debug(ctx, "player search",
		logger.Strings("names", names),
		logger.Int("rows", len(lb.Rows)),
	)
	return lb, nil
}

// checkQuery validates q and returns the effective top N.
func (s *Service) checkQuery(ctx context.Context, q types.LeaderboardQuery) (int, error) {
	if err := s.validate.StructCtx(ctx, q); err != nil {
		return 0, errors.Wrapf(ErrInvalidQuery, "validation failed: %v", err)
	}
	n := q.TopN
	if n == 0 {
		n = s.defaultTopN
	}
	if n > s.maxTopN {
		return 0, errors.Wrapf(ErrInvalidQuery, "top_n %d exceeds %d", n, s.maxTopN)
	}
	if q.AgeMax > 0 && q.AgeMin > q.AgeMax {
		return 0, errors.Wrapf(ErrInvalidQuery, "age_min %d is above age_max %d", q.AgeMin, q.AgeMax)
	}
	return n, nil
}

// scoreAll scores rows on the pool in contiguous chunks. Results keep input
// order so ranking ties stay stable. Rows with an unresolvable profile are
// returned as skipped; any other scorer error fails the pass.
func (s *Service) scoreAll(ctx context.Context, rows []model.PlayerMetricRow) ([]model.ScoredPlayerRow, []types.SkippedRow, error) {
	pool, err := s.workers()
	if err != nil {
		return nil, nil, err
	}

	results := make([]scoreResult, len(rows))
	chunk := (len(rows) + s.workerCount - 1) / s.workerCount
	if chunk < 1 {
		chunk = 1
	}

	var wg sync.WaitGroup
	for lo := 0; lo < len(rows); lo += chunk {
		hi := min(lo+chunk, len(rows))
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				row, err := s.scorer.Score(rows[i])
				results[i] = scoreResult{row: row, err: err}
			}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, nil, errors.Wrap(err, "submit scoring task")
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	scored := make([]model.ScoredPlayerRow, 0, len(rows))
	var skipped []types.SkippedRow
	for i, res := range results {
		if res.err != nil {
			if !errors.Is(res.err, scoring.ErrUnresolvedProfile) {
				return nil, nil, errors.Wrapf(res.err, "score row %q", rows[i].RowID)
			}
			skipped = append(skipped, types.SkippedRow{
				RowID:      rows[i].RowID,
				PlayerName: rows[i].PlayerName,
				ProfileKey: rows[i].ProfileKey,
				Reason:     res.err.Error(),
			})
			metrics.RecordRowSkipped(skipUnresolvedProfile)
			continue
		}
		scored = append(scored, res.row)
		metrics.RecordRowScored(string(res.row.Source))
	}

	if len(skipped) > 0 {
		s.log().Warn(ctx, "rows skipped during scoring",
			logger.Int("skipped", len(skipped)),
			logger.String("firstRow", skipped[0].RowID),
			logger.String("firstProfile", skipped[0].ProfileKey),
		)
	}
	return scored, skipped, nil
}

// log returns the service logger, falling back to the global one before Start.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}
