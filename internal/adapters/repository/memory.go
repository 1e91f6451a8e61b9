package repository

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/domain/model"
)

// MemoryStore keeps rows in process. Replace swaps the content atomically.
type MemoryStore struct {
	mu    sync.RWMutex
	rows  []model.PlayerMetricRow
	index map[string]int
}

// NewMemoryStore creates a store holding rows.
func NewMemoryStore(rows []model.PlayerMetricRow) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(rows)
	return s
}

// Replace swaps the stored rows.
func (s *MemoryStore) Replace(rows []model.PlayerMetricRow) {
	copied := append([]model.PlayerMetricRow(nil), rows...)
	index := make(map[string]int, len(copied))
	for i, r := range copied {
		if _, dup := index[r.RowID]; !dup {
			index[r.RowID] = i
		}
	}

	s.mu.Lock()
	s.rows = copied
	s.index = index
	s.mu.Unlock()
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, f Filter) ([]model.PlayerMetricRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "list rows")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterRows(s.rows, f), nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, rowID string) (model.PlayerMetricRow, error) {
	if err := ctx.Err(); err != nil {
		return model.PlayerMetricRow{}, errors.Wrap(err, "get row")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[rowID]
	if !ok {
		return model.PlayerMetricRow{}, errors.Wrapf(ErrNotFound, "row %q", rowID)
	}
	return s.rows[i], nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
