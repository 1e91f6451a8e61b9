// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/chart"
	"github.com/okian/scout/internal/domain/ranking"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
	"github.com/panjf2000/ants/v2"
)

// Default service configuration constants.
const (
	defaultTopN           = 20
	defaultMaxTopN        = 500
	defaultMaxCompare     = 2
	defaultColorThreshold = 30
)

// Service implements the API dependencies for the scouting leaderboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	profiles *catalog.Profiles
	scorer   scoring.Scorer
	ranker   *ranking.Ranker
	charts   *chart.Builder
	validate *validator.Validate
	pool     *ants.Pool

	// Configuration
	workerCount    int
	defaultTopN    int
	maxTopN        int
	maxCompare     int
	colorThreshold float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithTopN sets the default and maximum leaderboard sizes.
func WithTopN(def, maximum int) Option {
	return func(s *Service) {
		if maximum > 0 && def > 0 && def <= maximum {
			s.defaultTopN = def
			s.maxTopN = maximum
		}
	}
}

// WithMaxCompare caps how many players one comparison may chart.
func WithMaxCompare(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCompare = n
		}
	}
}

// WithColorThreshold sets the score below which leaderboard cells stay white.
func WithColorThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t < 100 {
			s.colorThreshold = t
		}
	}
}

// WithScorer replaces the default aggregator.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithChartBuilder replaces the default chart builder.
func WithChartBuilder(b *chart.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.charts = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service reading rows from store and resolving
// profiles through a sealed catalog.
func New(store repository.Store, profiles *catalog.Profiles, opts ...Option) *Service {
	s := &Service{
		store:          store,
		profiles:       profiles,
		ranker:         ranking.NewRanker(),
		validate:       validator.New(),
		workerCount:    runtime.NumCPU(),
		defaultTopN:    defaultTopN,
		maxTopN:        defaultMaxTopN,
		maxCompare:     defaultMaxCompare,
		colorThreshold: defaultColorThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scorer == nil {
		s.scorer = scoring.NewAggregator(profiles)
	}
	if s.charts == nil {
		s.charts = chart.NewBuilder(profiles)
	}
	return s
}

// Start creates the scoring pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	pool, err := ants.NewPool(s.workerCount)
	if err != nil {
		return err
	}
	s.pool = pool
	s.started = true

	metrics.UpdateScoreWorkers(s.workerCount)
	s.logger.Info(ctx, "scouting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("profiles", s.profiles.Len()),
		logger.Int("metrics", s.profiles.Metrics().Len()),
		logger.Int("maxTopN", s.maxTopN),
	)
	return nil
}

// Stop releases the scoring pool and closes the store if it can be closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.pool.Release()
	s.pool = nil

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "scouting service stopped")
}

// Profiles exposes the catalog the service scores against.
func (s *Service) Profiles() *catalog.Profiles { return s.profiles }

// Palette returns the chart category colors.
func (s *Service) Palette() chart.Palette { return s.charts.Palette() }

// ColorThreshold returns the leaderboard cell shading threshold.
func (s *Service) ColorThreshold() float64 { return s.colorThreshold }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"profiles":    s.profiles.Len(),
		"metrics":     s.profiles.Metrics().Len(),
		"defaultTopN": s.defaultTopN,
		"maxTopN":     s.maxTopN,
		"maxCompare":  s.maxCompare,
	}

	if s.started {
		rows := s.store.Count(context.Background())
		stats["totalRows"] = rows
		stats["runningWorkers"] = s.pool.Running()
		metrics.UpdateSourceRows(rows)
	}

	return stats
}

// workers returns the started pool.
func (s *Service) workers() (*ants.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.pool, nil
}
