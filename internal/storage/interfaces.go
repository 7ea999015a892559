package storage

import (
	"context"

	"crypto-backtest-lab/internal/domain"
)

// PriceRecordStore provides access to raw price record storage, keyed
// by trading symbol. Records are trades, not bars: several trades may
// share one epoch second, so timestamps are not unique.
type PriceRecordStore interface {
	// InsertBulk appends multiple records atomically. Equal timestamps
	// within a batch or against stored records are allowed.
	InsertBulk(ctx context.Context, symbol string, records []domain.PriceRecord) error

	// GetBySymbol retrieves all records for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) (domain.PriceHistory, error)

	// GetByTimeRange retrieves records for a symbol within [start, end).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) (domain.PriceHistory, error)
}

// OhlcStore provides access to resampled OHLC bar storage, keyed by
// trading symbol and sampling interval.
type OhlcStore interface {
	// InsertBulk upserts multiple ticks atomically, keyed by (symbol,
	// interval, timestamp). A re-inserted bar replaces the stored one,
	// so partially filled buckets can be rewritten by later batches.
	InsertBulk(ctx context.Context, symbol string, intervalSec int, ticks domain.OhlcHistory) error

	// GetBySymbol retrieves all ticks for a symbol and interval, ordered
	// by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string, intervalSec int) (domain.OhlcHistory, error)

	// GetByTimeRange retrieves ticks for a symbol and interval within
	// [start, end).
	GetByTimeRange(ctx context.Context, symbol string, intervalSec int, start, end int64) (domain.OhlcHistory, error)
}

// EvaluationResultStore provides access to evaluation result storage.
type EvaluationResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.EvaluationResult) error

	// GetByRunID retrieves a result by its run ID. Returns ErrNotFound
	// if it does not exist.
	GetByRunID(ctx context.Context, runID string) (*domain.EvaluationResult, error)

	// GetAll retrieves all results, ordered by score DESC.
	GetAll(ctx context.Context) ([]*domain.EvaluationResult, error)
}
