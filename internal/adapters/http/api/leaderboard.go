package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/chart"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
)

// LeaderboardHandler handles leaderboard and player search requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

type cellStyle struct {
	Background string `json:"background"`
	Text       string `json:"text"`
}

type scoreCells struct {
	Physical *cellStyle `json:"physical"`
	Attack   *cellStyle `json:"attack"`
	Defense  *cellStyle `json:"defense"`
}

type leaderboardRow struct {
	Rank            int         `json:"rank"`
	RowID           string      `json:"row_id"`
	PlayerID        string      `json:"player_id"`
	PlayerName      string      `json:"player_name"`
	Team            string      `json:"team"`
	Country         string      `json:"country"`
	Age             int         `json:"age"`
	ProfileKey      string      `json:"profile"`
	TotalMinutes    int         `json:"total_minutes"`
	PositionMinutes int         `json:"position_minutes"`
	Competition     string      `json:"competition"`
	Season          string      `json:"season"`
	Physical        model.Value `json:"physical"`
	Attack          model.Value `json:"attack"`
	Defense         model.Value `json:"defense"`
	Overall         model.Value `json:"overall"`
	Source          string      `json:"source"`
	ExternalURL     string      `json:"external_url,omitempty"`
	European        bool        `json:"european"`
	Cells           scoreCells  `json:"cells"`
}

type leaderboardResponse struct {
	SnapshotID  string             `json:"snapshot_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Universe    int                `json:"universe"`
	Empty       bool               `json:"empty"`
	Rows        []leaderboardRow   `json:"rows"`
	Skipped     []types.SkippedRow `json:"skipped"`
}

// HandleGetLeaderboard handles GET /leaderboard.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseLeaderboardQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	lb, err := h.deps.Leaderboard(r.Context(), q)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(lb))
}

// HandleSearch handles GET /search?name=a&name=b.
func (h *LeaderboardHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	names := nonEmpty(r.URL.Query()["name"])
	if len(names) == 0 {
		writeFailure(w, errors.Wrap(ErrBadRequest, "at least one name is required"))
		return
	}
	lb, err := h.deps.Search(r.Context(), names)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(lb))
}

func (h *LeaderboardHandler) toResponse(lb types.Leaderboard) leaderboardResponse {
	base := h.deps.Palette().Physical
	threshold := h.deps.ColorThreshold()

	rows := make([]leaderboardRow, 0, len(lb.Rows))
	for i := range lb.Rows {
		row := &lb.Rows[i]
		rows = append(rows, leaderboardRow{
			Rank:            row.Rank,
			RowID:           row.RowID,
			PlayerID:        row.PlayerID,
			PlayerName:      row.PlayerName,
			Team:            row.Team,
			Country:         row.Country,
			Age:             row.Age,
			ProfileKey:      row.ProfileKey,
			TotalMinutes:    row.TotalMinutes,
			PositionMinutes: row.PositionMinutes,
			Competition:     row.Competition,
			Season:          row.Season,
			Physical:        row.Physical,
			Attack:          row.Attack,
			Defense:         row.Defense,
			Overall:         row.Overall,
			Source:          string(row.Source),
			ExternalURL:     row.ExternalURL,
			European:        row.European,
			Cells: scoreCells{
				Physical: shade(base, row.Physical, threshold),
				Attack:   shade(base, row.Attack, threshold),
				Defense:  shade(base, row.Defense, threshold),
			},
		})
	}

	skipped := lb.Skipped
	if skipped == nil {
		skipped = []types.SkippedRow{}
	}
	return leaderboardResponse{
		SnapshotID:  lb.SnapshotID,
		GeneratedAt: lb.GeneratedAt,
		Universe:    lb.Universe,
		Empty:       lb.Empty,
		Rows:        rows,
		Skipped:     skipped,
	}
}

func shade(base chart.RGB, v model.Value, threshold float64) *cellStyle {
	style, ok := chart.Shade(base, v, threshold)
	if !ok {
		return nil
	}
	return &cellStyle{Background: style.Background.CSS(), Text: style.Text}
}

func parseLeaderboardQuery(v url.Values) (types.LeaderboardQuery, error) {
	var (
		q   types.LeaderboardQuery
		err error
	)
	if q.TopN, err = intParam(v, "top_n"); err != nil {
		return q, err
	}
	if q.MinPhysical, err = floatParam(v, "min_physical"); err != nil {
		return q, err
	}
	if q.MinAttack, err = floatParam(v, "min_attack"); err != nil {
		return q, err
	}
	if q.MinDefense, err = floatParam(v, "min_defense"); err != nil {
		return q, err
	}
	if q.AgeMin, err = intParam(v, "age_min"); err != nil {
		return q, err
	}
	if q.AgeMax, err = intParam(v, "age_max"); err != nil {
		return q, err
	}
	if q.EUOnly, err = boolParam(v, "eu_only"); err != nil {
		return q, err
	}
	q.Competitions = nonEmpty(v["competition"])
	q.Seasons = nonEmpty(v["season"])
	q.Profiles = nonEmpty(v["profile"])
	q.Teams = nonEmpty(v["team"])
	return q, nil
}

func intParam(v url.Values, name string) (int, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrBadRequest, "%s must be an integer, got %q", name, s)
	}
	return n, nil
}

func floatParam(v url.Values, name string) (float64, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrBadRequest, "%s must be a number, got %q", name, s)
	}
	return f, nil
}

func boolParam(v url.Values, name string) (bool, error) {
	s := v.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Wrapf(ErrBadRequest, "%s must be a boolean, got %q", name, s)
	}
	return b, nil
}

// nonEmpty drops blank values so "?team=" means no team filter.
func nonEmpty(values []string) []string {
	var out []string
	for _, s := range values {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
