package strategy

import (
	"fmt"
	"math"

	"crypto-backtest-lab/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// A tick arriving later than this after the previous one resets the
// stop price instead of ratcheting it.
const defaultMaxAllowedGapSec = 60 * 60

// StopConfig configures the trailing-stop simulator.
type StopConfig struct {
	// Margin between the current price and a freshly placed stop price.
	StopOrderMargin float64
	// Margin between the current price and the closest the stop price
	// is allowed to trail it.
	StopOrderMoveMargin float64
	// Maximum relative stop price increase per day (LONG mode).
	StopOrderIncreasePerDay float64
	// Maximum relative stop price decrease per day (CASH mode).
	StopOrderDecreasePerDay float64
}

// stopMode is the derived state of the stop simulator.
type stopMode int

const (
	modeNone stopMode = iota
	// Most of the portfolio value is in the base currency.
	modeLong
	// Most of the portfolio value is in the quote currency.
	modeCash
)

func (m stopMode) String() string {
	switch m {
	case modeLong:
		return "LONG"
	case modeCash:
		return "CASH"
	default:
		return "NONE"
	}
}

// StopSimulator is a two-mode trailing-stop automaton. The mode is
// derived from the balances alone: LONG when the base holding is worth
// at least the quote holding, CASH otherwise. In LONG mode it protects
// the position with a full-balance stop sell below the price; in CASH
// mode it waits to re-enter with a full-balance stop buy above the
// price. The stop price ratchets monotonically in the favorable
// direction at a rate compounding to the configured per-day limit; it
// never loosens. A mode flip, or a tick gap wider than
// maxAllowedGapSec, resets the stop price at StopOrderMargin from the
// current price.
type StopSimulator struct {
	config           StopConfig
	maxAllowedGapSec int64

	lastBaseBalance  float64
	lastQuoteBalance float64
	lastTimestampSec int64
	lastClose        float64
	mode             stopMode
	stopOrderPrice   float64
}

// NewStopSimulator creates a trailing-stop simulator.
func NewStopSimulator(config StopConfig) *StopSimulator {
	return &StopSimulator{config: config, maxAllowedGapSec: defaultMaxAllowedGapSec}
}

// Update implements TradeSimulator.
func (s *StopSimulator) Update(tick domain.OhlcTick, _ []float64, baseBalance, quoteBalance float64) []domain.Order {
	timestampSec := tick.TimestampSec
	price := tick.Close

	currentMode := modeCash
	if baseBalance*price >= quoteBalance {
		currentMode = modeLong
	}

	if currentMode != s.mode || timestampSec >= s.lastTimestampSec+s.maxAllowedGapSec {
		if currentMode == modeLong {
			s.stopOrderPrice = (1 - s.config.StopOrderMargin) * price
		} else {
			s.stopOrderPrice = (1 + s.config.StopOrderMargin) * price
		}
	} else {
		s.updateStopOrderPrice(currentMode, timestampSec, price)
	}

	s.lastTimestampSec = timestampSec
	s.lastBaseBalance = baseBalance
	s.lastQuoteBalance = quoteBalance
	s.lastClose = price
	s.mode = currentMode
	return []domain.Order{s.stopOrder()}
}

// updateStopOrderPrice ratchets the stop price toward the current
// price, capped at the move margin and at the per-day rate scaled to
// the actual tick spacing.
func (s *StopSimulator) updateStopOrderPrice(mode stopMode, timestampSec int64, price float64) {
	intervalSec := math.Min(secondsPerDay, float64(timestampSec-s.lastTimestampSec))
	ticksPerDay := secondsPerDay / intervalSec
	if mode == modeLong {
		threshold := (1 - s.config.StopOrderMoveMargin) * price
		if s.stopOrderPrice <= threshold {
			increasePerTick := math.Exp(math.Log(1+s.config.StopOrderIncreasePerDay)/ticksPerDay) - 1
			s.stopOrderPrice = math.Max(s.stopOrderPrice,
				math.Min(threshold, (1+increasePerTick)*s.stopOrderPrice))
		}
	} else {
		threshold := (1 + s.config.StopOrderMoveMargin) * price
		if s.stopOrderPrice >= threshold {
			decreasePerTick := 1 - math.Exp(math.Log(1-s.config.StopOrderDecreasePerDay)/ticksPerDay)
			s.stopOrderPrice = math.Min(s.stopOrderPrice,
				math.Max(threshold, (1-decreasePerTick)*s.stopOrderPrice))
		}
	}
}

// stopOrder emits the single full-balance stop order for the current
// mode.
func (s *StopSimulator) stopOrder() domain.Order {
	if s.mode == modeLong {
		return domain.Order{
			Type:   domain.OrderTypeStop,
			Side:   domain.OrderSideSell,
			Amount: domain.BaseAmount(s.lastBaseBalance),
			Price:  s.stopOrderPrice,
		}
	}
	return domain.Order{
		Type:   domain.OrderTypeStop,
		Side:   domain.OrderSideBuy,
		Amount: domain.QuoteAmount(s.lastQuoteBalance),
		Price:  s.stopOrderPrice,
	}
}

// InternalState implements TradeSimulator.
func (s *StopSimulator) InternalState() string {
	return fmt.Sprintf("%d,%.5f,%.2f,%.2f,%s,%.2f",
		s.lastTimestampSec, s.lastBaseBalance, s.lastQuoteBalance, s.lastClose, s.mode, s.stopOrderPrice)
}

// Ensure StopSimulator implements TradeSimulator.
var _ TradeSimulator = (*StopSimulator)(nil)

// StopDispatcher produces stop simulators with a fixed configuration.
type StopDispatcher struct {
	config StopConfig
}

// NewStopDispatcher creates a dispatcher for the config.
func NewStopDispatcher(config StopConfig) *StopDispatcher {
	return &StopDispatcher{config: config}
}

// Name implements Dispatcher.
func (d *StopDispatcher) Name() string {
	return fmt.Sprintf("stop[%g|%g|%g|%g]",
		d.config.StopOrderMargin, d.config.StopOrderMoveMargin,
		d.config.StopOrderIncreasePerDay, d.config.StopOrderDecreasePerDay)
}

// NewSimulator implements Dispatcher.
func (d *StopDispatcher) NewSimulator() TradeSimulator {
	return NewStopSimulator(d.config)
}

// Ensure StopDispatcher implements Dispatcher.
var _ Dispatcher = (*StopDispatcher)(nil)

// StopCombinations returns dispatchers for the cross product of the
// given parameter lists.
func StopCombinations(margins, moveMargins, increasesPerDay, decreasesPerDay []float64) []Dispatcher {
	dispatchers := make([]Dispatcher, 0, len(margins)*len(moveMargins)*len(increasesPerDay)*len(decreasesPerDay))
	for _, margin := range margins {
		for _, moveMargin := range moveMargins {
			for _, increase := range increasesPerDay {
				for _, decrease := range decreasesPerDay {
					dispatchers = append(dispatchers, NewStopDispatcher(StopConfig{
						StopOrderMargin:         margin,
						StopOrderMoveMargin:     moveMargin,
						StopOrderIncreasePerDay: increase,
						StopOrderDecreasePerDay: decrease,
					}))
				}
			}
		}
	}
	return dispatchers
}
