package domain

// SimulationResult summarizes one simulator run over a contiguous OHLC
// range. Start fields are fixed from the account config and the first
// tick; end fields track the last non-gap tick of the range.
type SimulationResult struct {
	StartBaseBalance  float64
	StartQuoteBalance float64
	EndBaseBalance    float64
	EndQuoteBalance   float64
	// Close price of the first / last tick of the range.
	StartPrice float64
	EndPrice   float64
	// Portfolio value in quote currency at the start / end of the range.
	StartValue float64
	EndValue   float64
	// Number of successfully executed orders.
	TotalExecutedOrders int
	// Accumulated fees in quote currency.
	TotalFee float64

	// Reserved: volatility indicators are not computed yet.
	BaseVolatility      float64
	SimulatorVolatility float64
}

// EvaluationConfig bounds a simulator evaluation over an OHLC history.
type EvaluationConfig struct {
	// Evaluated window [StartTimestampSec, EndTimestampSec).
	StartTimestampSec int64
	EndTimestampSec   int64
	// Stride between evaluated periods. Zero evaluates a single period
	// covering the whole window.
	EvaluationPeriodMonths int
	// FastExecute skips per-tick logging, for batch evaluation.
	FastExecute bool
}

// TimePeriod is the outcome of one evaluated period.
type TimePeriod struct {
	// Period boundaries: start included, end excluded.
	StartTimestampSec int64
	EndTimestampSec   int64
	Result            SimulationResult
	// Portfolio gain over the period, after fees.
	FinalGain float64
	// Gain of the buy-and-hold baseline over the same period.
	BaseFinalGain float64
}

// EvaluationResult aggregates a simulator's performance across all
// evaluated periods. Score is the geometric mean of FinalGain over
// BaseFinalGain: gains compound multiplicatively, so a score above 1
// means the strategy beat buy-and-hold on average.
type EvaluationResult struct {
	AccountConfig    AccountConfig
	EvaluationConfig EvaluationConfig
	// Name of the evaluated simulator, including its parameters.
	Name string
	// Short deterministic identifier of this evaluation run.
	RunID   string
	Periods []TimePeriod

	Score                  float64
	AvgGain                float64
	AvgBaseGain            float64
	AvgTotalExecutedOrders float64
	AvgTotalFee            float64
}
