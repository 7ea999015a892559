// Package account implements the trading ledger: a pair of currency
// balances that executes market, stop and limit orders against single
// OHLC ticks under a fee and liquidity model.
//
// Execution methods return false (with no state change) on any expected
// infeasibility: insufficient balance, amount below the denomination
// unit, an unmet stop/limit trigger, or a fee consuming the whole
// requested amount. These are routine outcomes, not errors. Passing an
// invalid order to ExecuteOrder panics: it indicates a bug in the
// strategy or harness.
package account

import (
	"fmt"
	"math"

	"crypto-backtest-lab/internal/domain"
)

// Account is a mutable ledger owned exclusively by one simulation run.
// All balances are exact multiples of their denomination unit after
// every successful execution.
type Account struct {
	BaseBalance  float64
	QuoteBalance float64
	// Accumulated fees in quote currency, already subtracted from
	// QuoteBalance.
	TotalFee float64

	BaseUnit  float64
	QuoteUnit float64

	MarketLiquidity float64
	MaxVolumeRatio  float64
}

// New returns an account initialized from the config.
func New(cfg domain.AccountConfig) *Account {
	a := &Account{}
	a.Init(cfg)
	return a
}

// Init resets the account to the configured starting state.
func (a *Account) Init(cfg domain.AccountConfig) {
	a.BaseBalance = cfg.StartBaseBalance
	a.QuoteBalance = cfg.StartQuoteBalance
	a.TotalFee = 0
	a.BaseUnit = cfg.BaseUnit
	a.QuoteUnit = cfg.QuoteUnit
	a.MarketLiquidity = cfg.MarketLiquidity
	a.MaxVolumeRatio = cfg.MaxVolumeRatio
}

// Fee returns the fee in quote currency for moving quoteAmount of quote
// currency under the given fee schedule, rounded up to the quote unit.
func (a *Account) Fee(fee domain.FeeConfig, quoteAmount float64) float64 {
	return CeilToUnit(math.Max(fee.MinimumFee, fee.FixedFee+quoteAmount*fee.RelativeFee), a.QuoteUnit)
}

// MaxBaseAmount returns the largest base amount a limit order may fill
// on the tick, based on MaxVolumeRatio. Unlimited when the ratio is
// zero.
func (a *Account) MaxBaseAmount(tick domain.OhlcTick) float64 {
	if a.MaxVolumeRatio > 0 {
		return FloorToUnit(a.MaxVolumeRatio*tick.Volume, a.BaseUnit)
	}
	return math.MaxFloat64
}

// MarketBuyPrice interpolates between the open (full liquidity) and the
// high (no liquidity) of the tick.
func (a *Account) MarketBuyPrice(tick domain.OhlcTick) float64 {
	return a.MarketLiquidity*tick.Open + (1-a.MarketLiquidity)*tick.High
}

// MarketSellPrice interpolates between the open (full liquidity) and
// the low (no liquidity) of the tick.
func (a *Account) MarketSellPrice(tick domain.OhlcTick) float64 {
	return a.MarketLiquidity*tick.Open + (1-a.MarketLiquidity)*tick.Low
}

// StopBuyPrice interpolates between max(stopPrice, open) and the high.
func (a *Account) StopBuyPrice(tick domain.OhlcTick, stopPrice float64) float64 {
	return a.MarketLiquidity*math.Max(stopPrice, tick.Open) + (1-a.MarketLiquidity)*tick.High
}

// StopSellPrice interpolates between min(stopPrice, open) and the low.
func (a *Account) StopSellPrice(tick domain.OhlcTick, stopPrice float64) float64 {
	return a.MarketLiquidity*math.Min(stopPrice, tick.Open) + (1-a.MarketLiquidity)*tick.Low
}

// BuyBase buys baseAmount of base currency at the given price.
func (a *Account) BuyBase(fee domain.FeeConfig, baseAmount, price float64) bool {
	if price <= 0 || baseAmount <= 0 {
		panic(fmt.Sprintf("account: BuyBase requires positive price and amount, got price=%v amount=%v", price, baseAmount))
	}
	baseAmount = RoundToUnit(baseAmount, a.BaseUnit)
	if baseAmount < a.BaseUnit {
		return false
	}

	quoteAmount := CeilToUnit(baseAmount*price, a.QuoteUnit)
	quoteFee := a.Fee(fee, quoteAmount)
	totalQuoteAmount := quoteAmount + quoteFee
	if totalQuoteAmount > a.QuoteBalance {
		return false
	}

	a.BaseBalance = RoundToUnit(a.BaseBalance+baseAmount, a.BaseUnit)
	a.QuoteBalance = RoundToUnit(a.QuoteBalance-totalQuoteAmount, a.QuoteUnit)
	a.TotalFee = RoundToUnit(a.TotalFee+quoteFee, a.QuoteUnit)
	return true
}

// BuyAtQuote buys as much base currency as possible at the given price,
// spending at most quoteAmount of quote currency (fee included), capped
// by the available balance and by maxBaseAmount.
func (a *Account) BuyAtQuote(fee domain.FeeConfig, quoteAmount, price, maxBaseAmount float64) bool {
	if price <= 0 || quoteAmount < 0 {
		panic(fmt.Sprintf("account: BuyAtQuote requires positive price and non-negative amount, got price=%v amount=%v", price, quoteAmount))
	}
	quoteAmount = RoundToUnit(math.Min(quoteAmount, a.QuoteBalance), a.QuoteUnit)
	if quoteAmount < a.QuoteUnit || quoteAmount > a.QuoteBalance {
		return false
	}

	quoteFee := a.Fee(fee, quoteAmount)
	if quoteAmount < quoteFee {
		return false
	}

	baseAmount := FloorToUnit(math.Min((quoteAmount-quoteFee)/price, maxBaseAmount), a.BaseUnit)
	if baseAmount < a.BaseUnit {
		return false
	}
	return a.BuyBase(fee, baseAmount, price)
}

// SellBase sells baseAmount of base currency at the given price.
func (a *Account) SellBase(fee domain.FeeConfig, baseAmount, price float64) bool {
	if price <= 0 || baseAmount < 0 {
		panic(fmt.Sprintf("account: SellBase requires positive price and non-negative amount, got price=%v amount=%v", price, baseAmount))
	}
	baseAmount = RoundToUnit(baseAmount, a.BaseUnit)
	if baseAmount < a.BaseUnit || baseAmount > a.BaseBalance {
		return false
	}

	quoteAmount := FloorToUnit(baseAmount*price, a.QuoteUnit)
	quoteFee := a.Fee(fee, quoteAmount)
	totalQuoteAmount := quoteAmount - quoteFee
	if totalQuoteAmount < a.QuoteUnit {
		return false
	}

	a.BaseBalance = RoundToUnit(a.BaseBalance-baseAmount, a.BaseUnit)
	a.QuoteBalance = RoundToUnit(a.QuoteBalance+totalQuoteAmount, a.QuoteUnit)
	a.TotalFee = RoundToUnit(a.TotalFee+quoteFee, a.QuoteUnit)
	return true
}

// SellAtQuote sells enough base currency at the given price to receive
// at most quoteAmount of quote currency after fees, capped by
// maxBaseAmount.
//
// Selling baseAmount yields at most (quoteAmount+fee) - Fee(quoteAmount+fee),
// and Fee(quoteAmount) <= Fee(quoteAmount+fee), so the proceeds never
// exceed quoteAmount.
func (a *Account) SellAtQuote(fee domain.FeeConfig, quoteAmount, price, maxBaseAmount float64) bool {
	if price <= 0 || quoteAmount < 0 {
		panic(fmt.Sprintf("account: SellAtQuote requires positive price and non-negative amount, got price=%v amount=%v", price, quoteAmount))
	}
	quoteAmount = RoundToUnit(quoteAmount, a.QuoteUnit)
	if quoteAmount < a.QuoteUnit {
		return false
	}

	quoteFee := a.Fee(fee, quoteAmount)
	baseAmount := FloorToUnit(math.Min((quoteAmount+quoteFee)/price, maxBaseAmount), a.BaseUnit)
	if baseAmount < a.BaseUnit {
		return false
	}
	return a.SellBase(fee, baseAmount, price)
}
