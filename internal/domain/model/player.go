// Package model contains domain models passed between layers.
package model

// PlayerMetricRow is one player's percentile data for a single
// (competition, season, position) context. It is read-only input.
type PlayerMetricRow struct {
	RowID           string
	PlayerID        string
	PlayerName      string
	Team            string
	Country         string
	Age             int
	TotalMinutes    int
	PositionMinutes int
	Competition     string
	Season          string
	ProfileKey      string
	ExternalURL     string
	// European marks players holding an EU passport.
	European bool

	// Metrics maps metric key to percentile. Absent keys are missing.
	Metrics map[string]Value

	// Stored holds aggregates computed upstream. Used only when no metric of
	// the profile has a value.
	Stored StoredAggregates
}

// Metric returns the value for key; absent keys are Missing.
func (r *PlayerMetricRow) Metric(key string) Value {
	if r.Metrics == nil {
		return Missing()
	}
	return r.Metrics[key]
}

// StoredAggregates are precomputed category and total scores delivered by the source.
type StoredAggregates struct {
	Physical Value
	Attack   Value
	Defense  Value
	Total    Value
}

// Empty reports whether no stored aggregate is present.
func (s StoredAggregates) Empty() bool {
	return s.Physical.IsMissing() && s.Attack.IsMissing() && s.Defense.IsMissing() && s.Total.IsMissing()
}

// ScoreSource tells which path produced a row's scores.
type ScoreSource string

const (
	// SourceRecomputed means the scores were averaged from present metric values.
	SourceRecomputed ScoreSource = "recomputed"
	// SourceStored means no metric value was present and stored aggregates were used.
	SourceStored ScoreSource = "stored"
	// SourceNone means neither metrics nor stored aggregates were available.
	SourceNone ScoreSource = "none"
)

// Scores groups the three category scores and the overall score.
type Scores struct {
	Physical Value `json:"physical"`
	Attack   Value `json:"attack"`
	Defense  Value `json:"defense"`
	Overall  Value `json:"overall"`
}

// ScoredPlayerRow is a PlayerMetricRow plus its aggregated scores.
// Instances are never mutated after creation.
type ScoredPlayerRow struct {
	PlayerMetricRow
	Scores
	Source ScoreSource
}

// RankedPlayerRow is a ScoredPlayerRow with its leaderboard rank.
type RankedPlayerRow struct {
	ScoredPlayerRow
	Rank int
}
