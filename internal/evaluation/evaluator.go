// Package evaluation scores trade simulators against a buy-and-hold
// baseline over month-strided periods of an OHLC history.
package evaluation

import (
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/idhash"
	"crypto-backtest-lab/internal/lookup"
	"crypto-backtest-lab/internal/observability"
	"crypto-backtest-lab/internal/simulation"
	"crypto-backtest-lab/internal/strategy"
)

// Evaluator slices a history into evaluation periods and runs
// dispatched simulators over them. The history is shared read-only
// between periods; every period gets a fresh account and simulator.
type Evaluator struct {
	accountConfig domain.AccountConfig
	config        domain.EvaluationConfig
	symbol        string
	logger        simulation.Logger
}

// Options contains configuration for creating an Evaluator.
type Options struct {
	AccountConfig    domain.AccountConfig
	EvaluationConfig domain.EvaluationConfig
	// Symbol of the evaluated history, stamped into run IDs.
	Symbol string
	// Logger for per-tick traces. May be nil; ignored when FastExecute
	// is set.
	Logger simulation.Logger
}

// New creates an evaluator.
func New(opts Options) *Evaluator {
	return &Evaluator{
		accountConfig: opts.AccountConfig,
		config:        opts.EvaluationConfig,
		symbol:        opts.Symbol,
		logger:        opts.Logger,
	}
}

// periodBounds returns the [start, end) timestamp pairs of the
// evaluated periods. A zero EvaluationPeriodMonths yields a single
// period covering the whole window.
func (e *Evaluator) periodBounds() [][2]int64 {
	if e.config.EvaluationPeriodMonths <= 0 {
		return [][2]int64{{e.config.StartTimestampSec, e.config.EndTimestampSec}}
	}

	var bounds [][2]int64
	end := time.Unix(e.config.EndTimestampSec, 0).UTC()
	for start := time.Unix(e.config.StartTimestampSec, 0).UTC(); start.Before(end); start = start.AddDate(0, e.config.EvaluationPeriodMonths, 0) {
		periodEnd := start.AddDate(0, e.config.EvaluationPeriodMonths, 0)
		if periodEnd.After(end) {
			periodEnd = end
		}
		bounds = append(bounds, [2]int64{start.Unix(), periodEnd.Unix()})
	}
	return bounds
}

// EvaluateSimulator runs one dispatched simulator over every evaluation
// period and aggregates the outcome. Periods without data are skipped
// silently. The history must be in ascending timestamp order.
func (e *Evaluator) EvaluateSimulator(history domain.OhlcHistory, dispatcher strategy.Dispatcher) domain.EvaluationResult {
	started := time.Now()
	result := domain.EvaluationResult{
		AccountConfig:    e.accountConfig,
		EvaluationConfig: e.config,
		Name:             dispatcher.Name(),
		RunID: idhash.ComputeRunID(dispatcher.Name(), e.symbol,
			e.config.StartTimestampSec, e.config.EndTimestampSec, e.config.EvaluationPeriodMonths),
	}

	logger := e.logger
	if e.config.FastExecute {
		logger = nil
	}

	gainProduct := 1.0
	for _, bounds := range e.periodBounds() {
		sub := lookup.OhlcRange(history, bounds[0], bounds[1])
		if len(sub) == 0 {
			continue
		}

		simResult := simulation.Run(e.accountConfig, sub, dispatcher.NewSimulator(), logger)
		period := domain.TimePeriod{
			StartTimestampSec: bounds[0],
			EndTimestampSec:   bounds[1],
			Result:            simResult,
			FinalGain:         simResult.EndValue / simResult.StartValue,
			BaseFinalGain:     simResult.EndPrice / simResult.StartPrice,
		}
		result.Periods = append(result.Periods, period)

		gainProduct *= period.FinalGain / period.BaseFinalGain
		result.AvgGain += period.FinalGain
		result.AvgBaseGain += period.BaseFinalGain
		result.AvgTotalExecutedOrders += float64(simResult.TotalExecutedOrders)
		result.AvgTotalFee += simResult.TotalFee
	}

	if n := float64(len(result.Periods)); n > 0 {
		// Gains compound multiplicatively, so the score is a geometric
		// mean rather than an arithmetic one.
		result.Score = math.Pow(gainProduct, 1/n)
		result.AvgGain /= n
		result.AvgBaseGain /= n
		result.AvgTotalExecutedOrders /= n
		result.AvgTotalFee /= n
	}

	observability.RecordEvaluation(result.Name, time.Since(started).Seconds())
	return result
}

// EvaluateCombinations evaluates every dispatcher of a parameter grid
// and returns the results sorted by descending score. Evaluations run
// in parallel; per-tick logging is disabled regardless of FastExecute
// since the runs would interleave in a shared sink.
func (e *Evaluator) EvaluateCombinations(history domain.OhlcHistory, dispatchers []strategy.Dispatcher) []domain.EvaluationResult {
	fast := *e
	fast.logger = nil

	results := make([]domain.EvaluationResult, len(dispatchers))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fast.EvaluateSimulator(history, dispatchers[i])
			}
		}()
	}
	for i := range dispatchers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
