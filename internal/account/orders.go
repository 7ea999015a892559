package account

import (
	"fmt"
	"math"

	"crypto-backtest-lab/internal/domain"
)

// MarketBuy executes a market buy of baseAmount at the tick's market
// buy price.
func (a *Account) MarketBuy(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount float64) bool {
	return a.BuyBase(fee, baseAmount, a.MarketBuyPrice(tick))
}

// MarketBuyAtQuote executes a market buy spending at most quoteAmount.
func (a *Account) MarketBuyAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount float64) bool {
	return a.BuyAtQuote(fee, quoteAmount, a.MarketBuyPrice(tick), math.MaxFloat64)
}

// MarketSell executes a market sell of baseAmount at the tick's market
// sell price.
func (a *Account) MarketSell(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount float64) bool {
	return a.SellBase(fee, baseAmount, a.MarketSellPrice(tick))
}

// MarketSellAtQuote executes a market sell receiving at most quoteAmount.
func (a *Account) MarketSellAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount float64) bool {
	return a.SellAtQuote(fee, quoteAmount, a.MarketSellPrice(tick), math.MaxFloat64)
}

// StopBuy executes a stop buy of baseAmount. Triggers only when the
// price rises to the stop price (tick high >= stopPrice).
func (a *Account) StopBuy(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount, stopPrice float64) bool {
	if tick.High < stopPrice {
		return false
	}
	return a.BuyBase(fee, baseAmount, a.StopBuyPrice(tick, stopPrice))
}

// StopBuyAtQuote executes a stop buy spending at most quoteAmount.
func (a *Account) StopBuyAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount, stopPrice float64) bool {
	if tick.High < stopPrice {
		return false
	}
	return a.BuyAtQuote(fee, quoteAmount, a.StopBuyPrice(tick, stopPrice), math.MaxFloat64)
}

// StopSell executes a stop sell of baseAmount. Triggers only when the
// price falls to the stop price (tick low <= stopPrice).
func (a *Account) StopSell(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount, stopPrice float64) bool {
	if tick.Low > stopPrice {
		return false
	}
	return a.SellBase(fee, baseAmount, a.StopSellPrice(tick, stopPrice))
}

// StopSellAtQuote executes a stop sell receiving at most quoteAmount.
func (a *Account) StopSellAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount, stopPrice float64) bool {
	if tick.Low > stopPrice {
		return false
	}
	return a.SellAtQuote(fee, quoteAmount, a.StopSellPrice(tick, stopPrice), math.MaxFloat64)
}

// LimitBuy executes a limit buy of baseAmount at exactly limitPrice.
// Triggers only when the price falls to the limit price (tick low <=
// limitPrice); the fill is capped by MaxBaseAmount.
func (a *Account) LimitBuy(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount, limitPrice float64) bool {
	if tick.Low > limitPrice {
		return false
	}
	baseAmount = math.Min(baseAmount, a.MaxBaseAmount(tick))
	if baseAmount <= 0 {
		return false
	}
	return a.BuyBase(fee, baseAmount, limitPrice)
}

// LimitBuyAtQuote executes a limit buy spending at most quoteAmount.
func (a *Account) LimitBuyAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount, limitPrice float64) bool {
	if tick.Low > limitPrice {
		return false
	}
	return a.BuyAtQuote(fee, quoteAmount, limitPrice, a.MaxBaseAmount(tick))
}

// LimitSell executes a limit sell of baseAmount at exactly limitPrice.
// Triggers only when the price rises to the limit price (tick high >=
// limitPrice); the fill is capped by MaxBaseAmount.
func (a *Account) LimitSell(fee domain.FeeConfig, tick domain.OhlcTick, baseAmount, limitPrice float64) bool {
	if tick.High < limitPrice {
		return false
	}
	baseAmount = math.Min(baseAmount, a.MaxBaseAmount(tick))
	if baseAmount <= 0 {
		return false
	}
	return a.SellBase(fee, baseAmount, limitPrice)
}

// LimitSellAtQuote executes a limit sell receiving at most quoteAmount.
func (a *Account) LimitSellAtQuote(fee domain.FeeConfig, tick domain.OhlcTick, quoteAmount, limitPrice float64) bool {
	if tick.High < limitPrice {
		return false
	}
	return a.SellAtQuote(fee, quoteAmount, limitPrice, a.MaxBaseAmount(tick))
}

// ExecuteOrder executes the order against the tick, dispatching on the
// order type, side and amount denomination and charging the fee schedule
// matching the order type. The order must be valid; an invalid order
// panics.
func (a *Account) ExecuteOrder(cfg domain.AccountConfig, order domain.Order, tick domain.OhlcTick) bool {
	if !order.IsValid() {
		panic(fmt.Sprintf("account: invalid order %v %v amount=%v price=%v", order.Type, order.Side, order.Amount.Value(), order.Price))
	}
	fee := cfg.FeeConfigFor(order.Type)
	amount := order.Amount.Value()

	switch order.Type {
	case domain.OrderTypeMarket:
		if order.Side == domain.OrderSideBuy {
			if order.Amount.IsBase() {
				return a.MarketBuy(fee, tick, amount)
			}
			return a.MarketBuyAtQuote(fee, tick, amount)
		}
		if order.Amount.IsBase() {
			return a.MarketSell(fee, tick, amount)
		}
		return a.MarketSellAtQuote(fee, tick, amount)

	case domain.OrderTypeStop:
		if order.Side == domain.OrderSideBuy {
			if order.Amount.IsBase() {
				return a.StopBuy(fee, tick, amount, order.Price)
			}
			return a.StopBuyAtQuote(fee, tick, amount, order.Price)
		}
		if order.Amount.IsBase() {
			return a.StopSell(fee, tick, amount, order.Price)
		}
		return a.StopSellAtQuote(fee, tick, amount, order.Price)

	case domain.OrderTypeLimit:
		if order.Side == domain.OrderSideBuy {
			if order.Amount.IsBase() {
				return a.LimitBuy(fee, tick, amount, order.Price)
			}
			return a.LimitBuyAtQuote(fee, tick, amount, order.Price)
		}
		if order.Amount.IsBase() {
			return a.LimitSell(fee, tick, amount, order.Price)
		}
		return a.LimitSellAtQuote(fee, tick, amount, order.Price)

	default:
		panic(fmt.Sprintf("account: unknown order type %d", order.Type))
	}
}
