package seeddata

import "os"

// ShowHelp prints usage information for the seeding tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Scout Player Seeder
===================

Generates synthetic player percentile rows for the scout server.

Usage:
  go run ./cmd/seed-players [options]

Options:
  -rows int
        Number of rows to generate (default 500)
  -seed uint
        Random seed; the same seed yields the same rows (default 1)
  -missing float
        Share of metric cells left empty (default 0.05)
  -unknown float
        Share of rows with a profile missing from the catalog (default 0.02)
  -stored-only float
        Share of rows carrying only stored aggregates (default 0.03)
  -format string
        Output format: sqlite or csv (default "sqlite")
  -out string
        Output path (default "scout.db")
  -competitions string
        Comma separated competitions (default "Eredivisie,Eerste Divisie")
  -catalog string
        Catalog YAML file (default: built-in catalog)
  -workers int
        Generator goroutines (default CPU cores)
  -verify-url string
        Base URL of a running server to check after seeding
  -top int
        Leaderboard size requested during verification (default 20)
  -timeout duration
        HTTP request timeout (default 30s)
  -help
        Show this help message

Examples:
  # Seed a SQLite database
  go run ./cmd/seed-players -rows 2000 -out data/scout.db

  # Seed a CSV file a running server watches, then check it
  go run ./cmd/seed-players -format csv -out data/players.csv -verify-url http://localhost:9080
`)
}
