package strategy

import (
	"fmt"

	"crypto-backtest-lab/internal/domain"
)

// Balances below this are treated as empty when deciding whether to
// emit the in-band limit order pair.
const minTradableBalance = 1.0e-6

// RebalancingConfig configures the rebalancing simulator.
type RebalancingConfig struct {
	// Alpha is the target fraction of portfolio value held in the base
	// currency (0.7 keeps 70% in crypto, 30% in quote).
	Alpha float64
	// Epsilon is the tolerated drift: the realized allocation may move
	// within (Alpha*(1-Epsilon), Alpha*(1+Epsilon)) before a market
	// rebalance fires.
	Epsilon float64
}

// RebalancingSimulator keeps the base currency allocation at alpha.
// Outside the tolerance band it emits a market order sized to restore
// the allocation exactly; inside the band it places a limit order pair
// around the current price to harvest mean reversion without breaching
// the band.
type RebalancingSimulator struct {
	config RebalancingConfig

	lastBaseBalance  float64
	lastQuoteBalance float64
	lastTimestampSec int64
	lastClose        float64
}

// NewRebalancingSimulator creates a rebalancing simulator.
func NewRebalancingSimulator(config RebalancingConfig) *RebalancingSimulator {
	return &RebalancingSimulator{config: config}
}

// Update implements TradeSimulator.
func (s *RebalancingSimulator) Update(tick domain.OhlcTick, _ []float64, baseBalance, quoteBalance float64) []domain.Order {
	price := tick.Close
	portfolioValue := baseBalance*price + quoteBalance

	alpha := s.config.Alpha
	epsilon := s.config.Epsilon
	alphaMax := alpha * (1 + epsilon)
	alphaMin := alpha * (1 - epsilon)

	// Beta is the realized base currency allocation: the portfolio's
	// exposure to the market.
	beta := baseBalance * price / portfolioValue

	var orders []domain.Order
	switch {
	case beta > alphaMax:
		// Too much exposure. Sell enough base currency to bring the
		// allocation back to exactly alpha, immediately.
		sellBaseAmount := ((1-alpha)*portfolioValue - quoteBalance) / price
		orders = append(orders, domain.Order{
			Type:   domain.OrderTypeMarket,
			Side:   domain.OrderSideSell,
			Amount: domain.BaseAmount(sellBaseAmount),
		})

	case beta < alphaMin:
		buyBaseAmount := (quoteBalance - (1-alpha)*portfolioValue) / price
		orders = append(orders, domain.Order{
			Type:   domain.OrderTypeMarket,
			Side:   domain.OrderSideBuy,
			Amount: domain.BaseAmount(buyBaseAmount),
		})

	case baseBalance > minTradableBalance && quoteBalance > minTradableBalance:
		// Within the band with both balances live: place a limit order
		// pair sized from epsilon. Each side is gated to a sane price
		// range so an alpha close to 1 cannot produce pathological
		// limit prices.
		if alphaMax < 1 {
			sellPrice := alphaMax * quoteBalance / (1 - alphaMax)
			if sellPrice > price && sellPrice < 100*price {
				orders = append(orders, domain.Order{
					Type:   domain.OrderTypeLimit,
					Side:   domain.OrderSideSell,
					Amount: domain.BaseAmount(baseBalance * epsilon / (1 + epsilon)),
					Price:  sellPrice,
				})
			}
		}
		buyPrice := alphaMin * quoteBalance / (1 - alphaMin)
		if buyPrice < price && buyPrice > price/100 {
			orders = append(orders, domain.Order{
				Type:   domain.OrderTypeLimit,
				Side:   domain.OrderSideBuy,
				Amount: domain.BaseAmount(baseBalance * epsilon * epsilon / (1 - epsilon)),
				Price:  buyPrice,
			})
		}
	}

	s.lastBaseBalance = baseBalance
	s.lastQuoteBalance = quoteBalance
	s.lastTimestampSec = tick.TimestampSec
	s.lastClose = price
	return orders
}

// InternalState implements TradeSimulator.
func (s *RebalancingSimulator) InternalState() string {
	return fmt.Sprintf("%d,%.5f,%.2f,%.2f", s.lastTimestampSec, s.lastBaseBalance, s.lastQuoteBalance, s.lastClose)
}

// Ensure RebalancingSimulator implements TradeSimulator.
var _ TradeSimulator = (*RebalancingSimulator)(nil)

// RebalancingDispatcher produces rebalancing simulators with a fixed
// configuration.
type RebalancingDispatcher struct {
	config RebalancingConfig
}

// NewRebalancingDispatcher creates a dispatcher for the config.
func NewRebalancingDispatcher(config RebalancingConfig) *RebalancingDispatcher {
	return &RebalancingDispatcher{config: config}
}

// Name implements Dispatcher.
func (d *RebalancingDispatcher) Name() string {
	return fmt.Sprintf("rebalancing[%g|%g]", d.config.Alpha, d.config.Epsilon)
}

// NewSimulator implements Dispatcher.
func (d *RebalancingDispatcher) NewSimulator() TradeSimulator {
	return NewRebalancingSimulator(d.config)
}

// Ensure RebalancingDispatcher implements Dispatcher.
var _ Dispatcher = (*RebalancingDispatcher)(nil)

// RebalancingCombinations returns dispatchers for the cross product of
// the given alphas and epsilons.
func RebalancingCombinations(alphas, epsilons []float64) []Dispatcher {
	dispatchers := make([]Dispatcher, 0, len(alphas)*len(epsilons))
	for _, alpha := range alphas {
		for _, epsilon := range epsilons {
			dispatchers = append(dispatchers, NewRebalancingDispatcher(RebalancingConfig{Alpha: alpha, Epsilon: epsilon}))
		}
	}
	return dispatchers
}
