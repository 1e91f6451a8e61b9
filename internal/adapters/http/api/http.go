// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/chart"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	ChartDependencies
	CatalogDependencies
}

// LeaderboardDependencies ranks players.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, q types.LeaderboardQuery) (types.Leaderboard, error)
	Search(ctx context.Context, names []string) (types.Leaderboard, error)
	Palette() chart.Palette
	ColorThreshold() float64
}

// ChartDependencies builds chart payloads.
type ChartDependencies interface {
	Chart(ctx context.Context, rowID, profileKey string) (chart.Payload, error)
	Compare(ctx context.Context, rowIDs []string, profileKey string) ([]chart.Payload, error)
}

// CatalogDependencies exposes the catalogs and filter values.
type CatalogDependencies interface {
	Profiles() *catalog.Profiles
	FilterOptions(ctx context.Context) (types.FilterOptions, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	chartHandler       *ChartHandler
	catalogHandler     *CatalogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps),
		chartHandler:       NewChartHandler(deps),
		catalogHandler:     NewCatalogHandler(deps),
	}
}

// NewRouter returns a router that keeps escaped path segments, so profile
// keys such as "DM%2FCM" stay one segment.
func NewRouter() *mux.Router {
	return mux.NewRouter().UseEncodedPath()
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	get := func(path, endpoint string, h http.HandlerFunc) {
		r.HandleFunc(path, MetricsMiddleware(h, endpoint)).Methods(http.MethodGet)
	}

	get("/healthz", "healthz", s.healthHandler.HandleHealth)
	get("/metrics", "metrics", s.healthHandler.HandleHealth)
	get("/stats", "stats", s.statsHandler.HandleStats)
	get("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	get("/search", "search", s.leaderboardHandler.HandleSearch)
	get("/profiles", "profiles", s.catalogHandler.HandleProfiles)
	get("/profiles/{key}", "profile", s.catalogHandler.HandleProfile)
	get("/metrics-catalog", "metrics_catalog", s.catalogHandler.HandleMetrics)
	get("/filters", "filters", s.catalogHandler.HandleFilters)
	get("/players/{rowID}/chart", "chart", s.chartHandler.HandleChart)
	get("/compare", "compare", s.chartHandler.HandleCompare)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response, so an encoding failure
// still reaches the client as an error body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		if _, isErr := v.(errorResponse); isErr {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", errors.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors to HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTooManyPlayers):
		writeError(w, http.StatusBadRequest, "too_many_players", err)
	case errors.Is(err, service.ErrInvalidQuery), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, catalog.ErrUnknownProfile), errors.Is(err, scoring.ErrUnresolvedProfile):
		writeError(w, http.StatusNotFound, "unknown_profile", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathVar returns the unescaped route variable name.
func pathVar(r *http.Request, name string) (string, error) {
	raw := mux.Vars(r)[name]
	v, err := url.PathUnescape(raw)
	if err != nil || v == "" {
		return "", errors.Wrapf(ErrBadRequest, "invalid %s %q", name, raw)
	}
	return v, nil
}
