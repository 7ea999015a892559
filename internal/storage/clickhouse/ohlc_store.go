package clickhouse

import (
	"context"
	"fmt"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

// OhlcStore implements storage.OhlcStore using ClickHouse. The table
// is a ReplacingMergeTree keyed on (symbol, interval, timestamp):
// re-inserted bars replace stored ones at merge time, and reads use
// FINAL so replaced rows never surface.
type OhlcStore struct {
	conn *Conn
}

// NewOhlcStore creates a new OhlcStore.
func NewOhlcStore(conn *Conn) *OhlcStore {
	return &OhlcStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OhlcStore = (*OhlcStore)(nil)

// InsertBulk upserts multiple ticks atomically. Bars sharing a
// timestamp with stored rows replace them; within a batch the last
// bar per timestamp wins.
func (s *OhlcStore) InsertBulk(ctx context.Context, symbol string, intervalSec int, ticks domain.OhlcHistory) error {
	if len(ticks) == 0 {
		return nil
	}
	if symbol == "" || intervalSec <= 0 {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ohlc_ticks (
			symbol, interval_sec, timestamp, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range dedupeLastWins(ticks) {
		err = batch.Append(
			symbol, uint32(intervalSec), uint64(t.TimestampSec),
			t.Open, t.High, t.Low, t.Close, t.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all ticks for a symbol and interval, ordered by
// timestamp ASC.
func (s *OhlcStore) GetBySymbol(ctx context.Context, symbol string, intervalSec int) (domain.OhlcHistory, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM ohlc_ticks FINAL
		WHERE symbol = ? AND interval_sec = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint32(intervalSec))
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanOhlcTicks(rows)
}

// GetByTimeRange retrieves ticks for a symbol and interval within
// [start, end).
func (s *OhlcStore) GetByTimeRange(ctx context.Context, symbol string, intervalSec int, start, end int64) (domain.OhlcHistory, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM ohlc_ticks FINAL
		WHERE symbol = ? AND interval_sec = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint32(intervalSec), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanOhlcTicks(rows)
}

// dedupeLastWins collapses ticks sharing a timestamp to the last one,
// keeping the batch free of same-version rows the ReplacingMergeTree
// would pick between arbitrarily.
func dedupeLastWins(ticks domain.OhlcHistory) domain.OhlcHistory {
	byTimestamp := make(map[int64]int, len(ticks))
	deduped := make(domain.OhlcHistory, 0, len(ticks))
	for _, t := range ticks {
		if i, ok := byTimestamp[t.TimestampSec]; ok {
			deduped[i] = t
			continue
		}
		byTimestamp[t.TimestampSec] = len(deduped)
		deduped = append(deduped, t)
	}
	return deduped
}

// scanOhlcTicks scans multiple rows.
func scanOhlcTicks(rows chRows) (domain.OhlcHistory, error) {
	var ticks domain.OhlcHistory

	for rows.Next() {
		var t domain.OhlcTick
		var timestamp uint64

		err := rows.Scan(&timestamp, &t.Open, &t.High, &t.Low, &t.Close, &t.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan ohlc row: %w", err)
		}

		t.TimestampSec = int64(timestamp)
		ticks = append(ticks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ohlc rows: %w", err)
	}

	return ticks, nil
}
