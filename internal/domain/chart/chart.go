// Package chart builds radial chart data for one scored player.
//
// Builders are pure: they read the sealed catalog and a scored row and
// return an independent payload. They are safe for concurrent use.
package chart

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
)

// Item is one plotted metric.
type Item struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Tooltip  string           `json:"tooltip,omitempty"`
	Category catalog.Category `json:"category"`
	// Value is the raw percentile, or 0 when Missing is set.
	Value   float64 `json:"value"`
	Missing bool    `json:"missing"`
	Color   RGB     `json:"color"`
}

// Payload is the chart data for one player under one profile.
type Payload struct {
	RowID      string       `json:"row_id"`
	PlayerName string       `json:"player_name"`
	Team       string       `json:"team"`
	ProfileKey string       `json:"profile"`
	Items      []Item       `json:"items"`
	Summary    model.Scores `json:"summary"`
	Colors     Palette      `json:"colors"`
	Caption    string       `json:"caption"`
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithPalette overrides the category base colors.
func WithPalette(p Palette) Option {
	return func(b *Builder) {
		b.palette = p
	}
}

// Builder produces chart payloads.
type Builder struct {
	profiles *catalog.Profiles
	palette  Palette
}

// NewBuilder creates a Builder over a sealed catalog.
func NewBuilder(profiles *catalog.Profiles, opts ...Option) *Builder {
	b := &Builder{
		profiles: profiles,
		palette:  DefaultPalette(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Palette returns the builder's category colors.
func (b *Builder) Palette() Palette { return b.palette }

// Build lays out the profile's metrics physical first, then attack, then
// defense. Missing metrics plot as 0; the summary is the row's own scores
// and is never derived from plotted values. An empty profileKey means the
// row's own profile.
func (b *Builder) Build(row model.ScoredPlayerRow, profileKey string) (Payload, error) {
	if profileKey == "" {
		profileKey = row.ProfileKey
	}
	split, err := b.profiles.MetricsByCategory(profileKey)
	if err != nil {
		return Payload{}, errors.Wrapf(err, "chart for row %q", row.RowID)
	}

	metrics := b.profiles.Metrics()
	keys := split.Ordered()
	items := make([]Item, 0, len(keys))
	for _, key := range keys {
		def, err := metrics.Get(key)
		if err != nil {
			return Payload{}, errors.Wrapf(err, "chart for row %q", row.RowID)
		}
		v, ok := row.Metric(key).Get()
		items = append(items, Item{
			Key:      key,
			Label:    def.Label,
			Tooltip:  def.Tooltip,
			Category: def.Category,
			Value:    v,
			Missing:  !ok,
			Color:    Gradient(b.palette.Of(def.Category), v),
		})
	}

	return Payload{
		RowID:      row.RowID,
		PlayerName: row.PlayerName,
		Team:       row.Team,
		ProfileKey: profileKey,
		Items:      items,
		Summary:    row.Scores,
		Colors:     b.palette,
		Caption:    Caption(row.Scores),
	}, nil
}

// Caption formats category averages as
// "Physical: 80.0 | Attack: 40.0 | Defense: 20.0". Undefined scores show "-".
func Caption(s model.Scores) string {
	parts := []string{
		"Physical: " + format1(s.Physical),
		"Attack: " + format1(s.Attack),
		"Defense: " + format1(s.Defense),
	}
	return strings.Join(parts, " | ")
}

func format1(v model.Value) string {
	f, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", f)
}
