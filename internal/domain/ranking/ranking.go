// Package ranking orders scored rows into a leaderboard and narrows it.
package ranking

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/model"
)

// ErrInvalidTopN is returned when the requested leaderboard size is below 1.
var ErrInvalidTopN = errors.New("top n must be at least 1")

// Thresholds are category minimums. Zero disables a threshold.
type Thresholds struct {
	Physical float64
	Attack   float64
	Defense  float64
}

// Ranker assigns leaderboard ranks. The zero value is ready to use.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker { return &Ranker{} }

// Rank sorts rows by overall score descending and assigns ranks 1..len(rows).
// Undefined overall scores sort after every defined one. Ties keep input
// order, so equal input yields equal ranks. The input slice is not modified.
func (r *Ranker) Rank(rows []model.ScoredPlayerRow) []model.RankedPlayerRow {
	ranked := make([]model.RankedPlayerRow, len(rows))
	for i := range rows {
		ranked[i] = model.RankedPlayerRow{ScoredPlayerRow: rows[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, aok := ranked[i].Overall.Get()
		b, bok := ranked[j].Overall.Get()
		switch {
		case aok && bok:
			return a > b
		case aok:
			return true
		default:
			return false
		}
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// FilterTopNThenThreshold keeps the first n ranked rows and then drops rows
// whose category scores fall below t. Ranks are left untouched, so the
// survivors keep their position in the full collection. An undefined
// category score fails any threshold above zero. An empty result is valid.
func (r *Ranker) FilterTopNThenThreshold(ranked []model.RankedPlayerRow, n int, t Thresholds) ([]model.RankedPlayerRow, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidTopN, "got %d", n)
	}
	if n > len(ranked) {
		n = len(ranked)
	}

	out := make([]model.RankedPlayerRow, 0, n)
	for _, row := range ranked[:n] {
		if !passes(row.Physical, t.Physical) || !passes(row.Attack, t.Attack) || !passes(row.Defense, t.Defense) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func passes(v model.Value, min float64) bool {
	if min <= 0 {
		return true
	}
	got, ok := v.Get()
	return ok && got >= min
}
