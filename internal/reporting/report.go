// Package reporting renders stored evaluation results as CSV and
// Markdown.
package reporting

import (
	"time"

	"crypto-backtest-lab/internal/domain"
)

// Report is the rendered view over a set of evaluation results.
type Report struct {
	GeneratedAt time.Time
	// Results sorted by score DESC.
	Results []*domain.EvaluationResult
	// TopN limits the detailed per-period breakdown; 0 renders all.
	TopN int
}
