package pricehistory

import (
	"container/heap"
	"sort"

	"crypto-backtest-lab/internal/domain"
)

// gapHeap is a bounded min-heap over history gaps: the narrowest gap
// (and among equal widths, the latest start) sits at the root, so
// popping on overflow keeps exactly the top-N widest gaps.
type gapHeap []domain.HistoryGap

func (h gapHeap) Len() int { return len(h) }

func (h gapHeap) Less(i, j int) bool {
	di, dj := h[i].Duration(), h[j].Duration()
	if di != dj {
		return di < dj
	}
	return h[i].StartTimestampSec > h[j].StartTimestampSec
}

func (h gapHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *gapHeap) Push(x any) { *h = append(*h, x.(domain.HistoryGap)) }

func (h *gapHeap) Pop() any {
	old := *h
	n := len(old)
	gap := old[n-1]
	*h = old[:n-1]
	return gap
}

// HistoryGaps returns the topN widest time gaps between consecutive
// records, sorted by descending width with ties broken by earliest
// start. When startTimestampSec (endTimestampSec) is positive, the
// interval from it to the first (last) record is considered as well.
func HistoryGaps(history domain.PriceHistory, startTimestampSec, endTimestampSec int64, topN int) []domain.HistoryGap {
	if len(history) == 0 || topN <= 0 {
		return nil
	}

	h := &gapHeap{}
	push := func(gap domain.HistoryGap) {
		heap.Push(h, gap)
		if h.Len() > topN {
			heap.Pop(h)
		}
	}

	if startTimestampSec > 0 {
		push(domain.HistoryGap{StartTimestampSec: startTimestampSec, EndTimestampSec: history[0].TimestampSec})
	}
	for i := 1; i < len(history); i++ {
		push(domain.HistoryGap{StartTimestampSec: history[i-1].TimestampSec, EndTimestampSec: history[i].TimestampSec})
	}
	if endTimestampSec > 0 {
		push(domain.HistoryGap{StartTimestampSec: history[len(history)-1].TimestampSec, EndTimestampSec: endTimestampSec})
	}

	gaps := []domain.HistoryGap(*h)
	sort.Slice(gaps, func(i, j int) bool {
		di, dj := gaps[i].Duration(), gaps[j].Duration()
		if di != dj {
			return di > dj
		}
		return gaps[i].StartTimestampSec < gaps[j].StartTimestampSec
	})
	return gaps
}
