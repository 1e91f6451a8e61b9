package api

import (
	"net/http"

	"github.com/okian/scout/internal/domain/catalog"
)

// CatalogHandler serves the metric and profile catalogs and filter options.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type profileResponse struct {
	Key     string             `json:"key"`
	Metrics catalog.ByCategory `json:"metrics"`
}

// HandleProfiles handles GET /profiles. Profiles are listed in display order.
func (h *CatalogHandler) HandleProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles := h.deps.Profiles()
	out := make([]profileResponse, 0, profiles.Len())
	for _, key := range profiles.Keys() {
		split, err := profiles.MetricsByCategory(key)
		if err != nil {
			writeFailure(w, err)
			return
		}
		out = append(out, profileResponse{Key: key, Metrics: split})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleProfile handles GET /profiles/{key}.
func (h *CatalogHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	key, err := pathVar(r, "key")
	if err != nil {
		writeFailure(w, err)
		return
	}
	split, err := h.deps.Profiles().MetricsByCategory(key)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Key: key, Metrics: split})
}

// HandleMetrics handles GET /metrics-catalog.
func (h *CatalogHandler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Profiles().Metrics().All())
}

// HandleFilters handles GET /filters.
func (h *CatalogHandler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.deps.FilterOptions(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
