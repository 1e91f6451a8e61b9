package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/adapters/http/api"
	"github.com/okian/scout/internal/adapters/http/swagger"
	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/seeddata"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run wires and serves the API until a signal arrives. Every deferred
// cleanup has run by the time it returns.
func run() error {
	// We collect our own system metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return err
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	profiles, err := loadCatalog(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load catalog", logger.Error(err))
		return err
	}
	metrics.UpdateCatalogSize(profiles.Metrics().Len(), profiles.Len())

	store, err := openStore(ctx, cfg, profiles)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open data source", logger.String("source", cfg.Source), logger.Error(err))
		return err
	}

	svc := service.New(store, profiles,
		service.WithLogger(loggerInstance),
		service.WithWorkerCount(cfg.ScoreWorkers),
		service.WithTopN(cfg.DefaultTopN, cfg.MaxTopN),
		service.WithMaxCompare(cfg.MaxCompare),
		service.WithColorThreshold(cfg.CellColorThreshold),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		_ = store.Close()
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("source", cfg.Source))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "serve http")
	default:
		return nil
	}
}

// loadCatalog returns the built-in catalog unless a catalog file is configured.
func loadCatalog(cfg *config.Config) (*catalog.Profiles, error) {
	if cfg.CatalogFile == "" {
		return catalog.NewDefault()
	}
	return catalog.LoadFile(cfg.CatalogFile)
}

// closableStore is a row source that releases resources on shutdown.
type closableStore interface {
	repository.Store
	Close() error
}

// openStore builds the configured row source behind the row cache.
func openStore(ctx context.Context, cfg *config.Config, profiles *catalog.Profiles) (closableStore, error) {
	var next repository.Store
	switch cfg.Source {
	case config.SourceMemory:
		rows, err := seeddata.Generate(ctx, &seeddata.Config{
			Rows:         cfg.SeedRows,
			Seed:         cfg.Seed,
			Workers:      runtime.NumCPU(),
			MissingShare: 0.05,
		}, profiles, nil)
		if err != nil {
			return nil, errors.Wrap(err, "seed memory source")
		}
		next = repository.NewMemoryStore(rows)
	case config.SourceSQL:
		s, err := repository.OpenSQL(ctx, cfg.SQLDriver, cfg.SQLDSN, repository.WithPageSize(cfg.SQLPageSize))
		if err != nil {
			return nil, err
		}
		next = s
	case config.SourceCSV:
		s, err := repository.OpenCSV(ctx, cfg.CSVPath, repository.WithWatch(cfg.CSVWatch))
		if err != nil {
			return nil, err
		}
		next = s
	default:
		return nil, errors.Newf("unknown source %q", cfg.Source)
	}
	return repository.NewCachedStore(next, cfg.SourceCacheTTL), nil
}

// newHandler registers the docs and business routes behind panic recovery.
func newHandler(ctx context.Context, svc *service.Service) http.Handler {
	r := api.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc, svc).Register(ctx, r)
	return api.RecoverMiddleware(r)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes source and pool gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes
// the source row gauge itself.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if workers, ok := stats["workerCount"].(int); ok {
		metrics.UpdateScoreWorkers(workers)
	}
}
