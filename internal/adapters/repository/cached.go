package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	rows      []model.PlayerMetricRow
	expiresAt time.Time
}

// CachedStore memoizes List results per filter for a fixed TTL. Concurrent
// misses for the same filter share one load. A load that overlaps an
// Invalidate is returned to its callers but never cached. Get and Count pass
// through.
type CachedStore struct {
	next Store
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	gen     uint64 // bumped by Invalidate; guarded by mu
	flight  singleflight.Group
}

// NewCachedStore wraps next. A non-positive ttl disables expiry. If next
// implements Notifier, its changes invalidate the cache.
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	c := &CachedStore{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	if n, ok := next.(Notifier); ok {
		n.OnChange(c.Invalidate)
	}
	return c
}

// List implements Store.
func (c *CachedStore) List(ctx context.Context, f Filter) ([]model.PlayerMetricRow, error) {
	key := f.Key()
	if rows, ok := c.lookup(key); ok {
		metrics.RecordCacheHit()
		return rows, nil
	}
	metrics.RecordCacheMiss()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	// The shared load outlives any single caller; each caller can still
	// stop waiting on its own context.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		if rows, ok := c.lookup(key); ok {
			return rows, nil
		}
		rows, err := c.next.List(loadCtx, f)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = cacheEntry{rows: rows, expiresAt: c.expiry()}
		}
		c.mu.Unlock()
		return rows, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rows, _ := res.Val.([]model.PlayerMetricRow)
		return append([]model.PlayerMetricRow(nil), rows...), nil
	}
}

// Get implements Store.
func (c *CachedStore) Get(ctx context.Context, rowID string) (model.PlayerMetricRow, error) {
	return c.next.Get(ctx, rowID)
}

// Count implements Store.
func (c *CachedStore) Count(ctx context.Context) int {
	return c.next.Count(ctx)
}

// OnChange implements Notifier by forwarding to the wrapped store.
func (c *CachedStore) OnChange(fn func()) {
	if n, ok := c.next.(Notifier); ok {
		n.OnChange(fn)
	}
}

// Close closes the wrapped store if it holds resources.
func (c *CachedStore) Close() error {
	if closer, ok := c.next.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Invalidate drops every cached entry.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.gen++
	c.mu.Unlock()
	metrics.RecordCacheInvalidation()
}

func (c *CachedStore) lookup(key string) ([]model.PlayerMetricRow, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return append([]model.PlayerMetricRow(nil), e.rows...), true
}

func (c *CachedStore) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}
