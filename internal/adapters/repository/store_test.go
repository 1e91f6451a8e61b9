package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func sampleRows() []model.PlayerMetricRow {
	return []model.PlayerMetricRow{
		{RowID: "1", PlayerID: "p1", PlayerName: "Alpha", Team: "Groningen", Age: 21, Competition: "Eredivisie", Season: "2024/2025", ProfileKey: "ST",
			Metrics: map[string]model.Value{"goals_tip_p30_percentile": model.Present(90)}},
		{RowID: "2", PlayerID: "p2", PlayerName: "Bravo", Team: "Heerenveen", Age: 27, Competition: "Eredivisie", Season: "2023/2024", ProfileKey: "CB"},
		{RowID: "3", PlayerID: "p3", PlayerName: "Charlie", Team: "Cambuur", Age: 19, Competition: "Eerste Divisie", Season: "2024/2025", ProfileKey: "ST"},
	}
}

func rowIDs(rows []model.PlayerMetricRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RowID
	}
	return out
}

func equalIDs(t *testing.T, got []model.PlayerMetricRow, want ...string) {
	t.Helper()
	ids := rowIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("expected rows %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected rows %v, got %v", want, ids)
		}
	}
}

func TestFilter_Match(t *testing.T) {
	rows := sampleRows()
	rows[1].European = true

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter matches all", Filter{}, []string{"1", "2", "3"}},
		{"competition", Filter{Competitions: []string{"Eredivisie"}}, []string{"1", "2"}},
		{"season and profile", Filter{Seasons: []string{"2024/2025"}, Profiles: []string{"ST"}}, []string{"1", "3"}},
		{"team", Filter{Teams: []string{"Cambuur", "Heerenveen"}}, []string{"2", "3"}},
		{"age range inclusive", Filter{AgeMin: 19, AgeMax: 21}, []string{"1", "3"}},
		{"age min only", Filter{AgeMin: 22}, []string{"2"}},
		{"names", Filter{Names: []string{"Bravo"}}, []string{"2"}},
		{"eu passport only", Filter{EUOnly: true}, []string{"2"}},
		{"eu passport and competition", Filter{EUOnly: true, Competitions: []string{"Eerste Divisie"}}, nil},
		{"no match", Filter{Teams: []string{"Ajax"}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			equalIDs(t, filterRows(rows, tc.filter), tc.want...)
		})
	}
}

func TestFilter_Key(t *testing.T) {
	a := Filter{Teams: []string{"B", "A"}, AgeMin: 18}
	b := Filter{Teams: []string{"A", "B"}, AgeMin: 18}
	if a.Key() != b.Key() {
		t.Errorf("expected order-insensitive keys, got %q and %q", a.Key(), b.Key())
	}
	c := Filter{Seasons: []string{"A", "B"}, AgeMin: 18}
	if a.Key() == c.Key() {
		t.Errorf("expected different keys for different fields")
	}
	eu := Filter{Teams: []string{"A", "B"}, AgeMin: 18, EUOnly: true}
	if a.Key() == eu.Key() {
		t.Errorf("expected eu_only to change the key")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(sampleRows())

	if n := store.Count(ctx); n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}

	row, err := store.Get(ctx, "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.PlayerName != "Bravo" {
		t.Errorf("expected Bravo, got %s", row.PlayerName)
	}

	if _, err := store.Get(ctx, "404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	store.Replace(sampleRows()[:1])
	if n := store.Count(ctx); n != 1 {
		t.Errorf("expected count 1 after replace, got %d", n)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.List(cancelled, Filter{}); err == nil {
		t.Error("expected error on cancelled context")
	}
}

type countingStore struct {
	Store
	lists atomic.Int32
	mu    sync.Mutex
	fns   []func()
}

func (c *countingStore) List(ctx context.Context, f Filter) ([]model.PlayerMetricRow, error) {
	c.lists.Add(1)
	time.Sleep(5 * time.Millisecond)
	return c.Store.List(ctx, f)
}

func (c *countingStore) OnChange(fn func()) {
	c.mu.Lock()
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
}

func (c *countingStore) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fn := range c.fns {
		fn()
	}
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: NewMemoryStore(sampleRows())}
	cache := NewCachedStore(inner, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := cache.List(ctx, Filter{Profiles: []string{"ST"}})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if len(rows) != 2 {
				t.Errorf("expected 2 rows, got %d", len(rows))
			}
		}()
	}
	wg.Wait()
	if n := inner.lists.Load(); n != 1 {
		t.Errorf("expected one load for concurrent misses, got %d", n)
	}

	// Different filter, separate entry.
	if _, err := cache.List(ctx, Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := inner.lists.Load(); n != 2 {
		t.Errorf("expected 2 loads, got %d", n)
	}

	// Notifier-driven invalidation.
	inner.fire()
	if _, err := cache.List(ctx, Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := inner.lists.Load(); n != 3 {
		t.Errorf("expected reload after invalidation, got %d loads", n)
	}

	// Expiry.
	now := time.Now()
	cache.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := cache.List(ctx, Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := inner.lists.Load(); n != 4 {
		t.Errorf("expected reload after expiry, got %d loads", n)
	}

	// Callers get their own slice.
	rows, _ := cache.List(ctx, Filter{})
	rows[0].RowID = "mutated"
	again, _ := cache.List(ctx, Filter{})
	if again[0].RowID == "mutated" {
		t.Error("cached rows were mutated through a returned slice")
	}
}
