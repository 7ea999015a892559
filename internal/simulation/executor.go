// Package simulation runs one trade simulator over a contiguous OHLC
// range against a fresh account.
package simulation

import (
	"crypto-backtest-lab/internal/account"
	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/observability"
	"crypto-backtest-lab/internal/strategy"
)

// Run drives the simulator over the history, one tick at a time, and
// returns the resulting summary. Orders emitted on a tick are executed
// or dropped on the next tick; a zero-volume tick pauses the simulator
// but keeps the pending orders. The logger may be nil.
func Run(cfg domain.AccountConfig, history domain.OhlcHistory, simulator strategy.TradeSimulator, logger Logger) domain.SimulationResult {
	var result domain.SimulationResult
	if len(history) == 0 {
		return result
	}

	observability.RecordSimulationRun()

	acct := account.New(cfg)
	result.StartBaseBalance = cfg.StartBaseBalance
	result.StartQuoteBalance = cfg.StartQuoteBalance
	result.StartPrice = history[0].Close
	result.StartValue = result.StartQuoteBalance + result.StartPrice*result.StartBaseBalance

	var orders []domain.Order
	executedOrders := 0
	for _, tick := range history {
		if logger != nil {
			logger.LogAccountState(tick, acct)
		}

		// The simulator emitted these orders on the previous tick and
		// there are no other active orders on the exchange. Execute or
		// drop each one against the current tick.
		for _, order := range orders {
			if acct.ExecuteOrder(cfg, order, tick) {
				executedOrders++
				observability.RecordOrderExecuted()
				if logger != nil {
					logger.LogExecutedOrder(tick, acct, order)
				}
			} else {
				observability.RecordOrderFailed()
			}
		}

		if tick.Volume == 0 {
			// Missing price history. Keep the pending orders and wait
			// for data to resume instead of trading on a made-up price.
			continue
		}

		orders = simulator.Update(tick, nil, acct.BaseBalance, acct.QuoteBalance)
		if logger != nil {
			logger.LogSimulatorState(simulator.InternalState())
		}

		result.EndBaseBalance = acct.BaseBalance
		result.EndQuoteBalance = acct.QuoteBalance
		result.EndPrice = tick.Close
		result.EndValue = result.EndQuoteBalance + result.EndPrice*result.EndBaseBalance
		result.TotalExecutedOrders = executedOrders
		result.TotalFee = acct.TotalFee
	}
	return result
}
