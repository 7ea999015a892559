// Package pricehistory cleans and aggregates raw price histories:
// outlier removal, resampling into fixed-interval OHLC ticks and
// detection of the largest data gaps. All functions expect histories
// with non-decreasing timestamps (domain.CheckPriceRecordTimestamps).
package pricehistory

import (
	"math"

	"crypto-backtest-lab/internal/domain"
)

const (
	// Number of follow-up records inspected when a price jump is
	// suspected.
	maxLookahead = 10
	// Minimum number of lookahead records that must confirm the jump
	// for it to be accepted as a persistent regime change.
	minLookaheadPersistent = 3
)

// RemoveOutliers returns the history with outliers removed, plus the
// original indices of the removed records.
//
// A record with non-positive price or volume is an outlier outright.
// Otherwise the record is compared against the last accepted record:
// the allowed multiplicative deviation is
// (1+maxPriceDeviationPerMin)*sqrt(minutes elapsed), growing with the
// square root of time like a random walk. A price outside the envelope
// is a suspected spike; it is kept only when at least 3 of the next 10
// valid records confirm the move past an 80/20-weighted middle
// threshold between the spike and the reference.
func RemoveOutliers(history domain.PriceHistory, maxPriceDeviationPerMin float64) (domain.PriceHistory, []int) {
	var clean domain.PriceHistory
	var outlierIndices []int

	for i := range history {
		record := history[i]
		if record.Price <= 0 || record.Volume <= 0 {
			outlierIndices = append(outlierIndices, i)
			continue
		}
		if len(clean) == 0 {
			clean = append(clean, record)
			continue
		}

		prev := clean[len(clean)-1]
		referencePrice := prev.Price
		durationMin := math.Max(1, float64(record.TimestampSec-prev.TimestampSec)/60)
		jumpFactor := (1 + maxPriceDeviationPerMin) * math.Sqrt(durationMin)
		jumpUpPrice := referencePrice * jumpFactor
		jumpDownPrice := referencePrice / jumpFactor
		jumpedUp := record.Price > jumpUpPrice
		jumpedDown := record.Price < jumpDownPrice

		outlier := false
		if jumpedUp || jumpedDown {
			middleUpPrice := 0.8*jumpUpPrice + 0.2*referencePrice
			middleDownPrice := 0.8*jumpDownPrice + 0.2*referencePrice
			lookahead := 0
			persistent := 0
			for j := i + 1; j < len(history) && lookahead < maxLookahead; j++ {
				next := history[j]
				if next.Price <= 0 || next.Volume < 0 {
					continue
				}
				if (jumpedUp && next.Price > middleUpPrice) || (jumpedDown && next.Price < middleDownPrice) {
					persistent++
				}
				lookahead++
			}
			outlier = persistent < minLookaheadPersistent
		}

		if outlier {
			outlierIndices = append(outlierIndices, i)
		} else {
			clean = append(clean, record)
		}
	}
	return clean, outlierIndices
}

// OutlierIndicesWithContext maps history indices to an is-outlier flag
// for the last lastN outliers, including up to leftN indices of context
// before and rightN after each outlier (marked false). Indices between
// non-adjacent context windows are absent; consumers print an ellipsis
// there. lastN of zero keeps all outliers.
func OutlierIndicesWithContext(outlierIndices []int, historySize, leftN, rightN, lastN int) map[int]bool {
	indexToOutlier := make(map[int]bool)
	start := 0
	if lastN > 0 && len(outlierIndices) > lastN {
		start = len(outlierIndices) - lastN
	}
	for _, j := range outlierIndices[start:] {
		left := 0
		if j > leftN {
			left = j - leftN
		}
		right := min(j+rightN+1, historySize)
		for k := left; k < right; k++ {
			if _, ok := indexToOutlier[k]; !ok {
				indexToOutlier[k] = false
			}
		}
		indexToOutlier[j] = true
	}
	return indexToOutlier
}
