package domain

// OhlcTick aggregates trading over the fixed interval
// [TimestampSec, TimestampSec+interval). A tick with zero volume marks a
// gap in the underlying price history: the resampler forward-fills such
// ticks at the previous close.
type OhlcTick struct {
	// Start of the aggregation interval.
	TimestampSec int64
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
}

// OhlcHistory is a time-ordered sequence of OHLC ticks. A resampled
// history is contiguous: adjacent ticks are exactly one interval apart.
type OhlcHistory = []OhlcTick

// IsValid reports whether the tick satisfies the OHLC ordering
// low <= {open, close} <= high with positive prices and non-negative
// volume.
func (t OhlcTick) IsValid() bool {
	return t.Low > 0 &&
		t.Low <= t.Open && t.Open <= t.High &&
		t.Low <= t.Close && t.Close <= t.High &&
		t.Volume >= 0
}

// CheckOhlcTimestamps reports whether the history timestamps are
// strictly increasing.
func CheckOhlcTimestamps(history OhlcHistory) bool {
	for i := 1; i < len(history); i++ {
		if history[i].TimestampSec <= history[i-1].TimestampSec {
			return false
		}
	}
	return true
}
