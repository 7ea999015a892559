package evaluation

import (
	"math"
	"testing"
	"time"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/strategy"
)

// holdSimulator never trades.
type holdSimulator struct{}

func (holdSimulator) Update(domain.OhlcTick, []float64, float64, float64) []domain.Order {
	return nil
}

func (holdSimulator) InternalState() string { return "hold" }

type holdDispatcher struct{}

func (holdDispatcher) Name() string { return "hold" }

func (holdDispatcher) NewSimulator() strategy.TradeSimulator { return holdSimulator{} }

func flatHistory(startSec int64, closes ...float64) domain.OhlcHistory {
	history := make(domain.OhlcHistory, len(closes))
	for i, c := range closes {
		history[i] = domain.OhlcTick{
			TimestampSec: startSec + int64(i)*300,
			Open:         c, High: c, Low: c, Close: c,
			Volume: 1,
		}
	}
	return history
}

func newTestEvaluator(config domain.EvaluationConfig) *Evaluator {
	return New(Options{
		AccountConfig:    domain.DefaultAccountConfig(1, 0, 1.0, 0),
		EvaluationConfig: config,
		Symbol:           "btcusd",
	})
}

func TestEvaluateSimulator_SingleWholeWindowPeriod(t *testing.T) {
	history := flatHistory(1700000000, 100, 105, 120)
	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec: 1700000000,
		EndTimestampSec:   1700000000 + 3*300,
	})

	result := e.EvaluateSimulator(history, holdDispatcher{})

	if len(result.Periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(result.Periods))
	}
	period := result.Periods[0]

	// Buy-and-hold over a window moving 100 -> 120.
	if math.Abs(period.BaseFinalGain-1.2) > 1e-9 {
		t.Errorf("BaseFinalGain = %v, want 1.2", period.BaseFinalGain)
	}
	if math.Abs(period.FinalGain-1.2) > 1e-9 {
		t.Errorf("FinalGain = %v, want 1.2", period.FinalGain)
	}
	// Holding tracks the baseline exactly.
	if math.Abs(result.Score-1.0) > 1e-9 {
		t.Errorf("Score = %v, want 1.0", result.Score)
	}
	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if result.Name != "hold" {
		t.Errorf("Name = %q, want hold", result.Name)
	}
}

func TestPeriodBounds_MonthStrides(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec:      start.Unix(),
		EndTimestampSec:        end.Unix(),
		EvaluationPeriodMonths: 1,
	})

	bounds := e.periodBounds()

	if len(bounds) != 3 {
		t.Fatalf("got %d periods, want 3", len(bounds))
	}
	feb := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	mar := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	if bounds[0] != [2]int64{start.Unix(), feb} {
		t.Errorf("period 0 = %v, want [%d %d]", bounds[0], start.Unix(), feb)
	}
	if bounds[1] != [2]int64{feb, mar} {
		t.Errorf("period 1 = %v, want [%d %d]", bounds[1], feb, mar)
	}
	// The last period clamps to the window end.
	if bounds[2] != [2]int64{mar, end.Unix()} {
		t.Errorf("period 2 = %v, want [%d %d]", bounds[2], mar, end.Unix())
	}
}

func TestPeriodBounds_ZeroMonthsIsWholeWindow(t *testing.T) {
	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec: 1000,
		EndTimestampSec:   2000,
	})

	bounds := e.periodBounds()
	if len(bounds) != 1 || bounds[0] != [2]int64{1000, 2000} {
		t.Errorf("bounds = %v, want a single [1000 2000] period", bounds)
	}
}

func TestEvaluateSimulator_SkipsEmptyPeriods(t *testing.T) {
	// Data exists only in the second month of a two-month window.
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	dataStart := time.Date(2021, 2, 10, 0, 0, 0, 0, time.UTC).Unix()
	history := flatHistory(dataStart, 100, 110)

	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec:      start.Unix(),
		EndTimestampSec:        end.Unix(),
		EvaluationPeriodMonths: 1,
	})

	result := e.EvaluateSimulator(history, holdDispatcher{})

	if len(result.Periods) != 1 {
		t.Fatalf("got %d periods, want 1 (empty month skipped)", len(result.Periods))
	}
	if result.Periods[0].StartTimestampSec != time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC).Unix() {
		t.Errorf("period start = %d, want the February boundary", result.Periods[0].StartTimestampSec)
	}
}

func TestEvaluateSimulator_AveragesOverPeriods(t *testing.T) {
	// Two one-month periods: 100 -> 200 (gain 2.0) and 200 -> 100
	// (gain 0.5).
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	history := append(
		flatHistory(start.Unix(), 100, 200),
		flatHistory(feb.Unix(), 200, 100)...,
	)

	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec:      start.Unix(),
		EndTimestampSec:        end.Unix(),
		EvaluationPeriodMonths: 1,
	})

	result := e.EvaluateSimulator(history, holdDispatcher{})

	if len(result.Periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(result.Periods))
	}
	if math.Abs(result.AvgBaseGain-1.25) > 1e-9 {
		t.Errorf("AvgBaseGain = %v, want 1.25 (arithmetic mean of 2.0 and 0.5)", result.AvgBaseGain)
	}
	// Holding matches the baseline in both periods, so the geometric
	// mean of the ratios is exactly 1.
	if math.Abs(result.Score-1.0) > 1e-9 {
		t.Errorf("Score = %v, want 1.0", result.Score)
	}
}

func TestEvaluateCombinations_SortedByScoreDesc(t *testing.T) {
	history := flatHistory(1700000000, 100, 101, 103, 102, 105, 104, 107, 110)
	e := newTestEvaluator(domain.EvaluationConfig{
		StartTimestampSec: 1700000000,
		EndTimestampSec:   1700000000 + 8*300,
		FastExecute:       true,
	})

	dispatchers := []strategy.Dispatcher{
		holdDispatcher{},
		strategy.NewRebalancingDispatcher(strategy.RebalancingConfig{Alpha: 0.5, Epsilon: 0.05}),
		strategy.NewStopDispatcher(strategy.StopConfig{
			StopOrderMargin:         0.1,
			StopOrderMoveMargin:     0.1,
			StopOrderIncreasePerDay: 0.01,
			StopOrderDecreasePerDay: 0.1,
		}),
	}

	results := e.EvaluateCombinations(history, dispatchers)

	if len(results) != len(dispatchers) {
		t.Fatalf("got %d results, want %d", len(results), len(dispatchers))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by descending score: %v before %v",
				results[i-1].Score, results[i].Score)
		}
	}
	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	if len(names) != len(dispatchers) {
		t.Errorf("expected one result per dispatcher, got names %v", names)
	}
}
