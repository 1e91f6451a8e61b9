package seeddata

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// archetype is a percentile band a generated player's metrics cluster in.
type archetype struct {
	min, span float64
}

// Archetype weights follow the load-test distribution: averages are most
// common, elite and very low players are rare.
var archetypes = []archetype{
	{min: 30, span: 40}, // average
	{min: 30, span: 40}, // average
	{min: 70, span: 20}, // high
	{min: 5, span: 25},  // low
	{min: 90, span: 10}, // elite
	{min: 0, span: 10},  // very low
	{min: 60, span: 20}, // mid-high
	{min: 20, span: 20}, // mid-low
	{min: 0, span: 100}, // wide
}

const metricJitter = 10

var (
	firstNames = []string{"Daan", "Sem", "Milan", "Levi", "Luuk", "Thijs", "Jesse", "Bram", "Noah", "Finn", "Mats", "Ruben"}
	lastNames  = []string{"de Jong", "Jansen", "de Vries", "van Dijk", "Bakker", "Visser", "Smit", "Meijer", "Mulder", "Bos", "Vos", "Peters"}
	teams      = []string{"Groningen", "Heerenveen", "Cambuur", "Emmen", "Twente", "Utrecht", "Volendam", "Almere City", "Den Bosch", "Dordrecht"}
	countries  = []string{"Netherlands", "Belgium", "Denmark", "Morocco", "Suriname", "Curacao", "Germany", "Norway"}
	euMembers  = map[string]bool{"Netherlands": true, "Belgium": true, "Denmark": true, "Germany": true}

	seedNamespace = uuid.MustParse("6f1c1e0a-3b9e-4c1f-9a55-1f1b7f0c2d11")
)

// Generate creates cfg.Rows rows over the profiles in the catalog. Each row
// draws from its own generator seeded by (cfg.Seed, index), so output does
// not depend on the worker count.
func Generate(ctx context.Context, cfg *Config, profiles *catalog.Profiles, stats *Stats) ([]model.PlayerMetricRow, error) {
	if cfg.Rows < 0 {
		return nil, errors.Newf("rows must not be negative, got %d", cfg.Rows)
	}
	if profiles.Len() == 0 {
		return nil, errors.New("catalog has no profiles")
	}
	logger.Get().Info(ctx, "generating player rows", logger.Int("rows", cfg.Rows), logger.Int("workers", cfg.Workers))

	competitions := orDefault(cfg.Competitions, DefaultCompetitions)
	seasons := orDefault(cfg.Seasons, DefaultSeasons)
	keys := profiles.Keys()

	rows := make([]model.PlayerMetricRow, cfg.Rows)
	workerCount := max(1, min(cfg.Workers, cfg.Rows))
	perWorker := (cfg.Rows + workerCount - 1) / max(1, workerCount)

	var wg sync.WaitGroup
	for start := 0; start < cfg.Rows; start += perWorker {
		end := min(start+perWorker, cfg.Rows)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				rows[i] = generateRow(cfg, i, profiles, keys, competitions, seasons)
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generation cancelled")
	}

	if stats != nil {
		stats.RowsGenerated = len(rows)
		for i := range rows {
			r := &rows[i]
			if !profiles.Has(r.ProfileKey) {
				stats.UnknownProfiles++
			}
			if r.Metrics == nil && !r.Stored.Empty() {
				stats.StoredOnly++
				continue
			}
			if keys, err := profiles.Resolve(r.ProfileKey); err == nil {
				stats.MissingCells += len(keys) - len(r.Metrics)
			}
		}
	}
	logger.Get().Info(ctx, "generated player rows", logger.Int("count", len(rows)))
	return rows, nil
}

func generateRow(cfg *Config, index int, profiles *catalog.Profiles, keys, competitions, seasons []string) model.PlayerMetricRow {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(index)))
	pick := func(list []string) string { return list[rng.IntN(len(list))] }

	tag := strconv.FormatUint(cfg.Seed, 10) + "/" + strconv.Itoa(index)
	playerID := uuid.NewSHA1(seedNamespace, []byte("player/"+tag)).String()
	row := model.PlayerMetricRow{
		RowID:           uuid.NewSHA1(seedNamespace, []byte("row/"+tag)).String(),
		PlayerID:        playerID,
		PlayerName:      pick(firstNames) + " " + pick(lastNames),
		Team:            pick(teams),
		Country:         pick(countries),
		Age:             17 + rng.IntN(19),
		Competition:     pick(competitions),
		Season:          pick(seasons),
		ProfileKey:      pick(keys),
		ExternalURL:     "https://players.example.com/" + playerID,
		TotalMinutes:    300 + rng.IntN(2700),
	}
	row.PositionMinutes = row.TotalMinutes * (50 + rng.IntN(51)) / 100
	row.European = euMembers[row.Country]

	band := archetypes[rng.IntN(len(archetypes))]
	percentile := func() float64 {
		v := band.min + rng.Float64()*band.span + (rng.Float64()*2-1)*metricJitter
		return math.Round(math.Max(0, math.Min(100, v))*10) / 10
	}

	if rng.Float64() < cfg.UnknownProfileShare {
		row.ProfileKey = unknownProfileKey
	}

	if rng.Float64() < cfg.StoredOnlyShare {
		row.Stored = model.StoredAggregates{
			Physical: model.Present(percentile()),
			Attack:   model.Present(percentile()),
			Defense:  model.Present(percentile()),
		}
		row.Stored.Total = model.Mean(row.Stored.Physical, row.Stored.Attack, row.Stored.Defense)
		return row
	}

	metricKeys, err := profiles.Resolve(row.ProfileKey)
	if err != nil {
		metricKeys = allMetricKeys(profiles)
	}
	row.Metrics = make(map[string]model.Value, len(metricKeys))
	for _, key := range metricKeys {
		if rng.Float64() < cfg.MissingShare {
			continue
		}
		row.Metrics[key] = model.Present(percentile())
	}
	return row
}

func allMetricKeys(profiles *catalog.Profiles) []string {
	defs := profiles.Metrics().All()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Key
	}
	return keys
}

func orDefault(values, def []string) []string {
	if len(values) == 0 {
		return def
	}
	return values
}
