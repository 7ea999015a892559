package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

// OhlcStore is an in-memory implementation of storage.OhlcStore.
type OhlcStore struct {
	mu   sync.RWMutex
	data map[string]domain.OhlcHistory // keyed by (symbol, interval), sorted by timestamp
}

// NewOhlcStore creates a new in-memory OHLC store.
func NewOhlcStore() *OhlcStore {
	return &OhlcStore{
		data: make(map[string]domain.OhlcHistory),
	}
}

// Compile-time interface check.
var _ storage.OhlcStore = (*OhlcStore)(nil)

// ohlcKey generates a unique key for a bar series.
func ohlcKey(symbol string, intervalSec int) string {
	return fmt.Sprintf("%s|%d", symbol, intervalSec)
}

// InsertBulk upserts multiple ticks atomically. A tick with the
// timestamp of a stored bar replaces it, so a bucket resampled again
// from a later batch wins.
func (s *OhlcStore) InsertBulk(_ context.Context, symbol string, intervalSec int, ticks domain.OhlcHistory) error {
	if len(ticks) == 0 {
		return nil
	}
	if symbol == "" || intervalSec <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ohlcKey(symbol, intervalSec)
	byTimestamp := make(map[int64]domain.OhlcTick, len(s.data[key])+len(ticks))
	for _, t := range s.data[key] {
		byTimestamp[t.TimestampSec] = t
	}
	for _, t := range ticks {
		byTimestamp[t.TimestampSec] = t
	}

	merged := make(domain.OhlcHistory, 0, len(byTimestamp))
	for _, t := range byTimestamp {
		merged = append(merged, t)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].TimestampSec < merged[j].TimestampSec
	})
	s.data[key] = merged
	return nil
}

// GetBySymbol retrieves all ticks for a symbol and interval, ordered by
// timestamp ASC.
func (s *OhlcStore) GetBySymbol(_ context.Context, symbol string, intervalSec int) (domain.OhlcHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(domain.OhlcHistory{}, s.data[ohlcKey(symbol, intervalSec)]...), nil
}

// GetByTimeRange retrieves ticks for a symbol and interval within
// [start, end).
func (s *OhlcStore) GetByTimeRange(_ context.Context, symbol string, intervalSec int, start, end int64) (domain.OhlcHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result domain.OhlcHistory
	for _, t := range s.data[ohlcKey(symbol, intervalSec)] {
		if t.TimestampSec >= start && t.TimestampSec < end {
			result = append(result, t)
		}
	}
	return result, nil
}
