package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/seeddata"
	"github.com/okian/scout/pkg/logger"
)

// Default configuration constants.
const (
	defaultSeed            = 1
	defaultMissingShare    = 0.05
	defaultUnknownShare    = 0.02
	defaultStoredOnlyShare = 0.03
	defaultOutput          = "scout.db"
	defaultRunTimeout      = 10 * time.Minute
)

func main() {
	var (
		rows         = flag.Int("rows", seeddata.DefaultRows, "Number of rows to generate")
		seed         = flag.Uint64("seed", defaultSeed, "Random seed")
		missing      = flag.Float64("missing", defaultMissingShare, "Share of metric cells left empty")
		unknown      = flag.Float64("unknown", defaultUnknownShare, "Share of rows with a profile missing from the catalog")
		storedOnly   = flag.Float64("stored-only", defaultStoredOnlyShare, "Share of rows carrying only stored aggregates")
		format       = flag.String("format", seeddata.FormatSQLite, "Output format: sqlite or csv")
		output       = flag.String("out", defaultOutput, "Output path")
		catalogFile  = flag.String("catalog", "", "Catalog YAML file (default: built-in catalog)")
		workers      = flag.Int("workers", runtime.NumCPU(), "Generator goroutines")
		verifyURL    = flag.String("verify-url", "", "Base URL of a running server to check after seeding")
		topN         = flag.Int("top", seeddata.DefaultTopN, "Leaderboard size requested during verification")
		timeout      = flag.Duration("timeout", seeddata.DefaultTimeout, "HTTP request timeout")
		competitions = flag.String("competitions", "", "Comma separated competitions (default: Eredivisie,Eerste Divisie)")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeddata.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	profiles, err := loadCatalog(*catalogFile)
	if err != nil {
		logger.Get().Error(ctx, "failed to load catalog", logger.Error(err))
		os.Exit(1)
	}

	config := &seeddata.Config{
		Rows:                *rows,
		Seed:                *seed,
		MissingShare:        *missing,
		UnknownProfileShare: *unknown,
		StoredOnlyShare:     *storedOnly,
		Competitions:        splitList(*competitions),
		Workers:             *workers,
		Format:              *format,
		Output:              *output,
		VerifyURL:           *verifyURL,
		TopN:                *topN,
		Timeout:             *timeout,
	}

	if _, err := seeddata.Run(ctx, config, profiles); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Profiles, error) {
	if path == "" {
		return catalog.NewDefault()
	}
	return catalog.LoadFile(path)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
