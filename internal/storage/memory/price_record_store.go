// Package memory provides in-memory store implementations, used as the
// default backend and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

// PriceRecordStore is an in-memory implementation of storage.PriceRecordStore.
type PriceRecordStore struct {
	mu   sync.RWMutex
	data map[string]domain.PriceHistory // keyed by symbol, sorted by timestamp
}

// NewPriceRecordStore creates a new in-memory price record store.
func NewPriceRecordStore() *PriceRecordStore {
	return &PriceRecordStore{
		data: make(map[string]domain.PriceHistory),
	}
}

// Compile-time interface check.
var _ storage.PriceRecordStore = (*PriceRecordStore)(nil)

// InsertBulk appends multiple records atomically. Records are trades,
// so equal timestamps are allowed; insertion order is kept among
// records sharing a second.
func (s *PriceRecordStore) InsertBulk(_ context.Context, symbol string, records []domain.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := append(append(domain.PriceHistory{}, s.data[symbol]...), records...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampSec < merged[j].TimestampSec
	})
	s.data[symbol] = merged
	return nil
}

// GetBySymbol retrieves all records for a symbol, ordered by timestamp ASC.
func (s *PriceRecordStore) GetBySymbol(_ context.Context, symbol string) (domain.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(domain.PriceHistory{}, s.data[symbol]...), nil
}

// GetByTimeRange retrieves records for a symbol within [start, end).
func (s *PriceRecordStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) (domain.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result domain.PriceHistory
	for _, r := range s.data[symbol] {
		if r.TimestampSec >= start && r.TimestampSec < end {
			result = append(result, r)
		}
	}
	return result, nil
}
