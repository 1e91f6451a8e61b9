// Package repository provides the player percentile data sources.
package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/scout/internal/domain/model"
)

// Store provides read access to player percentile rows.
type Store interface {
	// List returns every row matching f, in the source's natural order.
	List(ctx context.Context, f Filter) ([]model.PlayerMetricRow, error)

	// Get returns one row. Returns ErrNotFound if rowID is unknown.
	Get(ctx context.Context, rowID string) (model.PlayerMetricRow, error)

	// Count returns the number of rows available.
	Count(ctx context.Context) int
}

// Notifier is implemented by stores whose content can change underneath,
// such as a watched file.
type Notifier interface {
	// OnChange registers fn to run after every reload.
	OnChange(fn func())
}

// Filter selects rows upstream of scoring. Empty lists match everything.
type Filter struct {
	Competitions []string `json:"competitions,omitempty"`
	Seasons      []string `json:"seasons,omitempty"`
	Profiles     []string `json:"profiles,omitempty"`
	Teams        []string `json:"teams,omitempty"`
	// Names matches player names exactly.
	Names []string `json:"names,omitempty"`
	// AgeMin and AgeMax bound the age inclusively; zero disables a bound.
	AgeMin int `json:"age_min,omitempty"`
	AgeMax int `json:"age_max,omitempty"`
	// EUOnly keeps only players with an EU passport.
	EUOnly bool `json:"eu_only,omitempty"`
}

// Match reports whether row passes the filter.
func (f Filter) Match(row *model.PlayerMetricRow) bool {
	if !in(f.Competitions, row.Competition) ||
		!in(f.Seasons, row.Season) ||
		!in(f.Profiles, row.ProfileKey) ||
		!in(f.Teams, row.Team) ||
		!in(f.Names, row.PlayerName) {
		return false
	}
	if f.AgeMin > 0 && row.Age < f.AgeMin {
		return false
	}
	if f.AgeMax > 0 && row.Age > f.AgeMax {
		return false
	}
	if f.EUOnly && !row.European {
		return false
	}
	return true
}

// Key returns a canonical string for f, used as a cache key.
func (f Filter) Key() string {
	var b strings.Builder
	for _, part := range []struct {
		name   string
		values []string
	}{
		{"c", f.Competitions},
		{"s", f.Seasons},
		{"p", f.Profiles},
		{"t", f.Teams},
		{"n", f.Names},
	} {
		vals := append([]string(nil), part.values...)
		sort.Strings(vals)
		b.WriteString(part.name)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, "\x1f"))
		b.WriteByte(';')
	}
	b.WriteString("age=")
	b.WriteString(strconv.Itoa(f.AgeMin))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(f.AgeMax))
	b.WriteString(";eu=")
	b.WriteString(strconv.FormatBool(f.EUOnly))
	return b.String()
}

func in(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func filterRows(rows []model.PlayerMetricRow, f Filter) []model.PlayerMetricRow {
	out := make([]model.PlayerMetricRow, 0, len(rows))
	for i := range rows {
		if f.Match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}
