package domain

// FeeConfig describes the exchange fee for one order type.
// The effective fee for a transaction moving quoteAmount of quote
// currency is ceil(max(MinimumFee, FixedFee+RelativeFee*quoteAmount))
// rounded up to the quote denomination unit.
type FeeConfig struct {
	// Fee proportional to the traded quote amount (e.g. 0.005 = 0.5%).
	RelativeFee float64
	// Flat fee per executed order.
	FixedFee float64
	// Lower bound on the fee per executed order.
	MinimumFee float64
}

// AccountConfig configures a fresh trading account for one simulated
// period.
type AccountConfig struct {
	StartBaseBalance  float64
	StartQuoteBalance float64
	// Smallest tradeable denomination of the base currency
	// (e.g. 0.00001 BTC). Balances are always exact multiples of it.
	BaseUnit float64
	// Smallest indivisible denomination of the quote currency
	// (e.g. 0.01 USD).
	QuoteUnit float64

	MarketOrderFeeConfig FeeConfig
	StopOrderFeeConfig   FeeConfig
	LimitOrderFeeConfig  FeeConfig

	// MarketLiquidity interpolates between the most and least favorable
	// execution price within a tick. 1.0 executes market (stop) orders
	// at the opening (stop) price; 0.0 executes buys at the high and
	// sells at the low; values in between are linear.
	MarketLiquidity float64
	// MaxVolumeRatio caps limit order fills at this fraction of the tick
	// volume. Zero disables the cap.
	MaxVolumeRatio float64
}

// DefaultAccountConfig returns the standard account setup: BTC/USD
// denominations and a flat 0.5% relative fee on every order type.
func DefaultAccountConfig(startBaseBalance, startQuoteBalance, marketLiquidity, maxVolumeRatio float64) AccountConfig {
	fee := FeeConfig{RelativeFee: 0.005}
	return AccountConfig{
		StartBaseBalance:     startBaseBalance,
		StartQuoteBalance:    startQuoteBalance,
		BaseUnit:             0.00001,
		QuoteUnit:            0.01,
		MarketOrderFeeConfig: fee,
		StopOrderFeeConfig:   fee,
		LimitOrderFeeConfig:  fee,
		MarketLiquidity:      marketLiquidity,
		MaxVolumeRatio:       maxVolumeRatio,
	}
}

// FeeConfigFor returns the fee schedule matching the order type.
func (c AccountConfig) FeeConfigFor(orderType OrderType) FeeConfig {
	switch orderType {
	case OrderTypeStop:
		return c.StopOrderFeeConfig
	case OrderTypeLimit:
		return c.LimitOrderFeeConfig
	default:
		return c.MarketOrderFeeConfig
	}
}
