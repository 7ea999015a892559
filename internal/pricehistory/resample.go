package pricehistory

import (
	"math"

	"crypto-backtest-lab/internal/domain"
)

// Resample aggregates the price history into OHLC ticks of
// intervalSec seconds. Each record lands in the bucket starting at
// ts - (ts mod intervalSec). Buckets with no records are forward-filled
// with zero-volume ticks at the previous close, signaling "no trading
// activity" rather than absent data: the output is always contiguous at
// exactly intervalSec spacing.
func Resample(history domain.PriceHistory, intervalSec int64) domain.OhlcHistory {
	var resampled domain.OhlcHistory
	for _, record := range history {
		bucket := record.TimestampSec - (record.TimestampSec % intervalSec)

		// Fill skipped buckets before opening a new one.
		for len(resampled) > 0 && resampled[len(resampled)-1].TimestampSec+intervalSec < bucket {
			prev := resampled[len(resampled)-1]
			resampled = append(resampled, domain.OhlcTick{
				TimestampSec: prev.TimestampSec + intervalSec,
				Open:         prev.Close,
				High:         prev.Close,
				Low:          prev.Close,
				Close:        prev.Close,
				Volume:       0,
			})
		}

		if len(resampled) == 0 || resampled[len(resampled)-1].TimestampSec < bucket {
			resampled = append(resampled, domain.OhlcTick{
				TimestampSec: bucket,
				Open:         record.Price,
				High:         record.Price,
				Low:          record.Price,
				Close:        record.Price,
				Volume:       record.Volume,
			})
		} else {
			tick := &resampled[len(resampled)-1]
			tick.High = math.Max(tick.High, record.Price)
			tick.Low = math.Min(tick.Low, record.Price)
			tick.Close = record.Price
			tick.Volume += record.Volume
		}
	}
	return resampled
}
