package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ChartHandler serves chart payloads.
type ChartHandler struct {
	deps ChartDependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps ChartDependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

// HandleChart handles GET /players/{rowID}/chart?profile=KEY.
func (h *ChartHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	rowID, err := pathVar(r, "rowID")
	if err != nil {
		writeFailure(w, err)
		return
	}
	payload, err := h.deps.Chart(r.Context(), rowID, r.URL.Query().Get("profile"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandleCompare handles GET /compare?row=a&row=b&profile=KEY.
func (h *ChartHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	rows := nonEmpty(r.URL.Query()["row"])
	if len(rows) == 0 {
		writeFailure(w, errors.Wrap(ErrBadRequest, "at least one row is required"))
		return
	}
	payloads, err := h.deps.Compare(r.Context(), rows, r.URL.Query().Get("profile"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payloads)
}
