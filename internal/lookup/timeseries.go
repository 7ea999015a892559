// Package lookup provides time-indexed access into OHLC histories.
package lookup

import (
	"errors"
	"sort"

	"crypto-backtest-lab/internal/domain"
)

// ErrNoPriceData is returned when a lookup runs against an empty
// history.
var ErrNoPriceData = errors.New("no price data available")

// OhlcRange returns the sub-history with timestamps in
// [startTimestampSec, endTimestampSec). A non-positive bound leaves
// that side unbounded. The result aliases the input slice.
func OhlcRange(history domain.OhlcHistory, startTimestampSec, endTimestampSec int64) domain.OhlcHistory {
	lo := 0
	if startTimestampSec > 0 {
		lo = sort.Search(len(history), func(i int) bool {
			return history[i].TimestampSec >= startTimestampSec
		})
	}
	hi := len(history)
	if endTimestampSec > 0 {
		hi = sort.Search(len(history), func(i int) bool {
			return history[i].TimestampSec >= endTimestampSec
		})
	}
	if lo >= hi {
		return nil
	}
	return history[lo:hi]
}

// CloseAt returns the close price of the tick at or before the target
// timestamp. If every tick is later than the target, the first
// available close is returned. Returns ErrNoPriceData on an empty
// history.
func CloseAt(target int64, history domain.OhlcHistory) (float64, error) {
	if len(history) == 0 {
		return 0, ErrNoPriceData
	}
	i := sort.Search(len(history), func(i int) bool {
		return history[i].TimestampSec > target
	})
	if i == 0 {
		return history[0].Close, nil
	}
	return history[i-1].Close, nil
}
