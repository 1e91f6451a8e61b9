// Package seeddata generates synthetic player percentile rows for local
// development, demos and load checks, and writes them to a data source.
package seeddata

import "time"

// Output formats.
const (
	FormatSQLite = "sqlite"
	FormatCSV    = "csv"
)

// Config holds configuration for one seeding run.
type Config struct {
	Rows                int      // Number of rows to generate
	Seed                uint64   // Random seed; the same seed yields the same rows
	MissingShare        float64  // Share of metric cells left empty, 0..1
	UnknownProfileShare float64  // Share of rows given a profile the catalog lacks, 0..1
	StoredOnlyShare     float64  // Share of rows carrying only stored aggregates, 0..1
	Competitions        []string // Competitions to spread rows over
	Seasons             []string // Seasons to spread rows over
	Workers             int      // Generator goroutines
	Format              string   // sqlite or csv
	Output              string   // Database or CSV path
	VerifyURL           string   // Base URL of a running server to check after seeding
	TopN                int      // Leaderboard size requested during verification
	Timeout             time.Duration
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated   int
	RowsWritten     int
	UnknownProfiles int
	StoredOnly      int
	MissingCells    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
