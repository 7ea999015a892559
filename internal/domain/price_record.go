package domain

// PriceRecord is a single traded price observation (time, price, volume).
// Price histories are ordered by TimestampSec ascending.
type PriceRecord struct {
	TimestampSec int64
	// Price of the base currency denominated in the quote currency.
	Price float64
	// Traded base currency volume.
	Volume float64
}

// PriceHistory is a time-ordered sequence of price records.
type PriceHistory = []PriceRecord

// CheckPriceRecordTimestamps reports whether the history timestamps are
// non-decreasing. Callers must satisfy this before handing a history to
// the cleaner, resampler or gap detector.
func CheckPriceRecordTimestamps(history PriceHistory) bool {
	for i := 1; i < len(history); i++ {
		if history[i].TimestampSec < history[i-1].TimestampSec {
			return false
		}
	}
	return true
}

// HistoryGap is a missing interval [StartTimestampSec, EndTimestampSec)
// in a price history.
type HistoryGap struct {
	StartTimestampSec int64
	EndTimestampSec   int64
}

// Duration returns the gap width in seconds.
func (g HistoryGap) Duration() int64 {
	return g.EndTimestampSec - g.StartTimestampSec
}
