package simulation

import (
	"fmt"
	"io"

	"crypto-backtest-lab/internal/account"
	"crypto-backtest-lab/internal/domain"
)

// Logger receives the per-tick simulation trace. Each simulation run
// owns its logger instance; implementations are not required to be safe
// for concurrent use.
type Logger interface {
	// LogAccountState records the tick and the account state before
	// order execution.
	LogAccountState(tick domain.OhlcTick, acct *account.Account)

	// LogExecutedOrder records the account state right after the order
	// filled on the tick.
	LogExecutedOrder(tick domain.OhlcTick, acct *account.Account, order domain.Order)

	// LogSimulatorState records one simulator state line per strategy
	// update.
	LogSimulatorState(state string)
}

// CSVLogger writes the account trace and the simulator state trace as
// two parallel CSV streams. Account lines carry the tick, the balances,
// the cumulative fee, the portfolio value and the realized base
// allocation; executed order lines carry the order columns instead.
type CSVLogger struct {
	accountOut   io.Writer
	simulatorOut io.Writer
}

// NewCSVLogger creates a logger over the two sinks. Either writer may
// be io.Discard.
func NewCSVLogger(accountOut, simulatorOut io.Writer) *CSVLogger {
	return &CSVLogger{accountOut: accountOut, simulatorOut: simulatorOut}
}

// LogAccountState implements Logger.
func (l *CSVLogger) LogAccountState(tick domain.OhlcTick, acct *account.Account) {
	portfolioValue := acct.BaseBalance*tick.Close + acct.QuoteBalance
	beta := 0.0
	if portfolioValue > 0 {
		beta = acct.BaseBalance * tick.Close / portfolioValue
	}
	fmt.Fprintf(l.accountOut, "%d,%g,%g,%g,%g,%g,%g,%g,%g,%g,%g\n",
		tick.TimestampSec, tick.Open, tick.High, tick.Low, tick.Close, tick.Volume,
		acct.BaseBalance, acct.QuoteBalance, acct.TotalFee, portfolioValue, beta)
}

// LogExecutedOrder implements Logger.
func (l *CSVLogger) LogExecutedOrder(tick domain.OhlcTick, acct *account.Account, order domain.Order) {
	fmt.Fprintf(l.accountOut, "%d,%g,%g,%g,%g,%g,%g,%g,%g,%s,%s,%g,%s,%g\n",
		tick.TimestampSec, tick.Open, tick.High, tick.Low, tick.Close, tick.Volume,
		acct.BaseBalance, acct.QuoteBalance, acct.TotalFee,
		order.Type, order.Side, order.Amount.Value(), order.Amount, order.Price)
}

// LogSimulatorState implements Logger.
func (l *CSVLogger) LogSimulatorState(state string) {
	fmt.Fprintln(l.simulatorOut, state)
}

// Ensure CSVLogger implements Logger.
var _ Logger = (*CSVLogger)(nil)
