// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/scout/internal/domain/model"
)

// LeaderboardQuery selects and trims one leaderboard pass.
// Empty lists mean "all"; zero ages mean unbounded.
type LeaderboardQuery struct {
	TopN         int      `validate:"gte=0"`
	MinPhysical  float64  `validate:"gte=0,lte=100"`
	MinAttack    float64  `validate:"gte=0,lte=100"`
	MinDefense   float64  `validate:"gte=0,lte=100"`
	Competitions []string `validate:"dive,required"`
	Seasons      []string `validate:"dive,required"`
	Profiles     []string `validate:"dive,required"`
	Teams        []string `validate:"dive,required"`
	AgeMin       int      `validate:"gte=0"`
	AgeMax       int      `validate:"gte=0"`
	EUOnly       bool
}

// SkippedRow is a row left out of a leaderboard because it could not be scored.
type SkippedRow struct {
	RowID      string `json:"row_id"`
	PlayerName string `json:"player_name"`
	ProfileKey string `json:"profile"`
	Reason     string `json:"reason"`
}

// Leaderboard is the result of one ranking pass.
type Leaderboard struct {
	SnapshotID  string
	GeneratedAt time.Time
	// Universe is how many rows were ranked before top-N and thresholds.
	Universe int
	Rows     []model.RankedPlayerRow
	Skipped  []SkippedRow
	// Empty is true when no row survived filtering.
	Empty bool
}

// FilterOptions lists the values present in the data for each filter.
type FilterOptions struct {
	Competitions []string `json:"competitions"`
	Seasons      []string `json:"seasons"`
	Profiles     []string `json:"profiles"`
	Teams        []string `json:"teams"`
	AgeMin       int      `json:"age_min"`
	AgeMax       int      `json:"age_max"`
}
