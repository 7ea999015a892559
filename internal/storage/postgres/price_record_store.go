package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/observability"
	"crypto-backtest-lab/internal/storage"
)

// PriceRecordStore implements storage.PriceRecordStore using PostgreSQL.
type PriceRecordStore struct {
	pool *Pool
}

// NewPriceRecordStore creates a new PriceRecordStore.
func NewPriceRecordStore(pool *Pool) *PriceRecordStore {
	return &PriceRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceRecordStore = (*PriceRecordStore)(nil)

// InsertBulk appends multiple records atomically. Records are trades;
// equal timestamps are allowed and row identity keeps their order.
func (s *PriceRecordStore) InsertBulk(ctx context.Context, symbol string, records []domain.PriceRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_price_records", time.Since(started).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO price_records (symbol, timestamp, price, volume)
		VALUES ($1, $2, $3, $4)
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query, symbol, r.TimestampSec, r.Price, r.Volume)
		if err != nil {
			return fmt.Errorf("insert price record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all records for a symbol, ordered by timestamp ASC.
func (s *PriceRecordStore) GetBySymbol(ctx context.Context, symbol string) (domain.PriceHistory, error) {
	query := `
		SELECT timestamp, price, volume
		FROM price_records
		WHERE symbol = $1
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get price records by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// GetByTimeRange retrieves records for a symbol within [start, end).
func (s *PriceRecordStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) (domain.PriceHistory, error) {
	query := `
		SELECT timestamp, price, volume
		FROM price_records
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("get price records by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceRecords(rows)
}

// scanPriceRecords scans multiple rows into a PriceHistory.
func scanPriceRecords(rows pgx.Rows) (domain.PriceHistory, error) {
	var records domain.PriceHistory

	for rows.Next() {
		var r domain.PriceRecord

		if err := rows.Scan(&r.TimestampSec, &r.Price, &r.Volume); err != nil {
			return nil, fmt.Errorf("scan price record row: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price record rows: %w", err)
	}

	return records, nil
}
