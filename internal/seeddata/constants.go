package seeddata

import "time"

// Default configuration constants.
const (
	DefaultRows    = 500
	DefaultTopN    = 20
	DefaultTimeout = 30 * time.Second

	unknownProfileKey = "GK"
)

// DefaultCompetitions are used when Config.Competitions is empty.
var DefaultCompetitions = []string{"Eredivisie", "Eerste Divisie"}

// DefaultSeasons are used when Config.Seasons is empty.
var DefaultSeasons = []string{"2023/2024", "2024/2025"}
