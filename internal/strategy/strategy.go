// Package strategy defines the trade simulator contract and the
// concrete order-emitting strategies.
package strategy

import "crypto-backtest-lab/internal/domain"

// TradeSimulator is a stateful strategy driven over an OHLC history.
//
// Update is called once per non-zero-volume tick, strictly advancing in
// time (zero-volume ticks mark price history gaps and are never passed
// in). The balances are the account state after all orders emitted on
// the previous tick were executed or cancelled; there are no active
// orders when Update is called. The returned orders are executed (or
// cancelled) by the exchange on the next tick only, so the simulator
// can never observe a tick it has already traded on.
//
// The sampling rate of the history defines how often the simulator
// runs; behavior should stay consistent across sampling rates and
// across histories with gaps.
type TradeSimulator interface {
	// Update consumes the tick plus optional side input signals and
	// returns the orders to attempt on the next tick.
	Update(tick domain.OhlcTick, sideSignals []float64, baseBalance, quoteBalance float64) []domain.Order

	// InternalState returns the simulator state as a CSV-friendly
	// string, one line per tick in the simulator log.
	InternalState() string
}

// Dispatcher produces fresh instances of one configured simulator.
// Each evaluated period gets its own instance; no strategy state
// survives across periods.
type Dispatcher interface {
	// Name identifies the dispatched simulator including its
	// parameters, escaped for CSV.
	Name() string

	// NewSimulator returns a new simulator with this configuration.
	NewSimulator() TradeSimulator
}
