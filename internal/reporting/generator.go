package reporting

import (
	"context"
	"sort"
	"time"

	"crypto-backtest-lab/internal/storage"
)

// Generator produces reports from stored evaluation results.
type Generator struct {
	resultStore storage.EvaluationResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.EvaluationResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads all results and assembles the report.
func (g *Generator) Generate(ctx context.Context, topN int) (*Report, error) {
	results, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return &Report{
		GeneratedAt: g.now(),
		Results:     results,
		TopN:        topN,
	}, nil
}
