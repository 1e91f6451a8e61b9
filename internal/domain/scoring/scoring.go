// Package scoring turns a player's per-metric percentiles into category and
// overall scores.
package scoring

import (
	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
)

// ErrUnresolvedProfile is returned when a row has no profile key or its key
// is not in the catalog. It is a per-row error; callers skip the row.
var ErrUnresolvedProfile = errors.New("unresolved profile")

// ProfileResolver resolves a profile key to its metrics split by category.
// *catalog.Profiles implements it.
type ProfileResolver interface {
	MetricsByCategory(profileKey string) (catalog.ByCategory, error)
}

// Scorer computes the scores of one row.
type Scorer interface {
	Score(row model.PlayerMetricRow) (model.ScoredPlayerRow, error)
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithStoredFallback toggles the use of stored aggregates for rows that have
// no metric value at all under their profile. Enabled by default.
func WithStoredFallback(enabled bool) Option {
	return func(a *Aggregator) {
		a.storedFallback = enabled
	}
}

// Aggregator averages present metric values per category. It holds no
// mutable state and is safe for concurrent use.
type Aggregator struct {
	profiles       ProfileResolver
	storedFallback bool
}

// NewAggregator creates an Aggregator over a read-only profile catalog.
func NewAggregator(profiles ProfileResolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		profiles:       profiles,
		storedFallback: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Score computes physical, attack, defense and overall scores for row.
//
// Missing metrics are skipped, never counted as zero. A category with no
// present value is Missing, and overall is the mean of the defined
// categories. Values are not clamped.
func (a *Aggregator) Score(row model.PlayerMetricRow) (model.ScoredPlayerRow, error) {
	if row.ProfileKey == "" {
		return model.ScoredPlayerRow{}, errors.Wrapf(ErrUnresolvedProfile, "row %q: no profile key", row.RowID)
	}
	split, err := a.profiles.MetricsByCategory(row.ProfileKey)
	if err != nil {
		return model.ScoredPlayerRow{}, errors.Wrapf(errors.Mark(err, ErrUnresolvedProfile), "row %q", row.RowID)
	}

	scores := model.Scores{
		Physical: categoryMean(&row, split.Physical),
		Attack:   categoryMean(&row, split.Attack),
		Defense:  categoryMean(&row, split.Defense),
	}
	scores.Overall = model.Mean(scores.Physical, scores.Attack, scores.Defense)

	out := model.ScoredPlayerRow{PlayerMetricRow: row, Scores: scores, Source: model.SourceRecomputed}
	if !scores.Overall.IsMissing() {
		return out, nil
	}

	if a.storedFallback && !row.Stored.Empty() {
		out.Scores = fromStored(row.Stored)
		out.Source = model.SourceStored
		return out, nil
	}
	out.Source = model.SourceNone
	return out, nil
}

func categoryMean(row *model.PlayerMetricRow, keys []string) model.Value {
	values := make([]model.Value, 0, len(keys))
	for _, k := range keys {
		values = append(values, row.Metric(k))
	}
	return model.Mean(values...)
}

func fromStored(s model.StoredAggregates) model.Scores {
	scores := model.Scores{
		Physical: s.Physical,
		Attack:   s.Attack,
		Defense:  s.Defense,
		Overall:  s.Total,
	}
	if scores.Overall.IsMissing() {
		scores.Overall = model.Mean(s.Physical, s.Attack, s.Defense)
	}
	return scores
}
