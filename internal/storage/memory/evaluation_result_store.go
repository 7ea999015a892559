package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

// EvaluationResultStore is an in-memory implementation of
// storage.EvaluationResultStore.
type EvaluationResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EvaluationResult // keyed by run_id
}

// NewEvaluationResultStore creates a new in-memory evaluation result store.
func NewEvaluationResultStore() *EvaluationResultStore {
	return &EvaluationResultStore{
		data: make(map[string]*domain.EvaluationResult),
	}
}

// Compile-time interface check.
var _ storage.EvaluationResultStore = (*EvaluationResultStore)(nil)

// Insert adds a new result. Returns ErrDuplicateKey if run_id exists.
func (s *EvaluationResultStore) Insert(_ context.Context, r *domain.EvaluationResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	resultCopy := *r
	resultCopy.Periods = append([]domain.TimePeriod{}, r.Periods...)
	s.data[r.RunID] = &resultCopy
	return nil
}

// GetByRunID retrieves a result by its run ID. Returns ErrNotFound if
// it does not exist.
func (s *EvaluationResultStore) GetByRunID(_ context.Context, runID string) (*domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	resultCopy := *r
	resultCopy.Periods = append([]domain.TimePeriod{}, r.Periods...)
	return &resultCopy, nil
}

// GetAll retrieves all results, ordered by score DESC.
func (s *EvaluationResultStore) GetAll(_ context.Context) ([]*domain.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*domain.EvaluationResult, 0, len(s.data))
	for _, r := range s.data {
		resultCopy := *r
		resultCopy.Periods = append([]domain.TimePeriod{}, r.Periods...)
		results = append(results, &resultCopy)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
