package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

// EvaluationResultStore implements storage.EvaluationResultStore using
// PostgreSQL. The account config and the period list are stored as
// JSONB next to the queryable aggregate columns.
type EvaluationResultStore struct {
	pool *Pool
}

// NewEvaluationResultStore creates a new EvaluationResultStore.
func NewEvaluationResultStore(pool *Pool) *EvaluationResultStore {
	return &EvaluationResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EvaluationResultStore = (*EvaluationResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
func (s *EvaluationResultStore) Insert(ctx context.Context, r *domain.EvaluationResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	accountConfig, err := json.Marshal(r.AccountConfig)
	if err != nil {
		return fmt.Errorf("marshal account config: %w", err)
	}
	periods, err := json.Marshal(r.Periods)
	if err != nil {
		return fmt.Errorf("marshal periods: %w", err)
	}

	query := `
		INSERT INTO evaluation_results (
			run_id, name, start_timestamp, end_timestamp, period_months,
			score, avg_gain, avg_base_gain, avg_executed_orders, avg_fee,
			account_config, periods
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.Name,
		r.EvaluationConfig.StartTimestampSec,
		r.EvaluationConfig.EndTimestampSec,
		r.EvaluationConfig.EvaluationPeriodMonths,
		r.Score,
		r.AvgGain,
		r.AvgBaseGain,
		r.AvgTotalExecutedOrders,
		r.AvgTotalFee,
		accountConfig,
		periods,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert evaluation result: %w", err)
	}
	return nil
}

// GetByRunID retrieves a result by its run ID. Returns ErrNotFound if
// it does not exist.
func (s *EvaluationResultStore) GetByRunID(ctx context.Context, runID string) (*domain.EvaluationResult, error) {
	query := selectEvaluationResults + ` WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanEvaluationResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation result by run id: %w", err)
	}
	return r, nil
}

// GetAll retrieves all results, ordered by score DESC.
func (s *EvaluationResultStore) GetAll(ctx context.Context) ([]*domain.EvaluationResult, error) {
	query := selectEvaluationResults + ` ORDER BY score DESC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all evaluation results: %w", err)
	}
	defer rows.Close()

	var results []*domain.EvaluationResult
	for rows.Next() {
		r, err := scanEvaluationResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation result rows: %w", err)
	}

	return results, nil
}

const selectEvaluationResults = `
	SELECT run_id, name, start_timestamp, end_timestamp, period_months,
	       score, avg_gain, avg_base_gain, avg_executed_orders, avg_fee,
	       account_config, periods
	FROM evaluation_results
`

// scanEvaluationResult scans one row.
func scanEvaluationResult(row pgx.Row) (*domain.EvaluationResult, error) {
	var r domain.EvaluationResult
	var accountConfig, periods []byte

	err := row.Scan(
		&r.RunID,
		&r.Name,
		&r.EvaluationConfig.StartTimestampSec,
		&r.EvaluationConfig.EndTimestampSec,
		&r.EvaluationConfig.EvaluationPeriodMonths,
		&r.Score,
		&r.AvgGain,
		&r.AvgBaseGain,
		&r.AvgTotalExecutedOrders,
		&r.AvgTotalFee,
		&accountConfig,
		&periods,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(accountConfig, &r.AccountConfig); err != nil {
		return nil, fmt.Errorf("unmarshal account config: %w", err)
	}
	if err := json.Unmarshal(periods, &r.Periods); err != nil {
		return nil, fmt.Errorf("unmarshal periods: %w", err)
	}

	return &r, nil
}
