package lookup

import (
	"errors"
	"testing"

	"crypto-backtest-lab/internal/domain"
)

func ticksAt(timestamps ...int64) domain.OhlcHistory {
	history := make(domain.OhlcHistory, len(timestamps))
	for i, ts := range timestamps {
		price := float64(ts)
		history[i] = domain.OhlcTick{TimestampSec: ts, Open: price, High: price, Low: price, Close: price, Volume: 1}
	}
	return history
}

func TestOhlcRange_HalfOpenInterval(t *testing.T) {
	history := ticksAt(100, 200, 300, 400)

	// [200, 400): the end bound is exclusive.
	sub := OhlcRange(history, 200, 400)

	if len(sub) != 2 {
		t.Fatalf("got %d ticks, want 2", len(sub))
	}
	if sub[0].TimestampSec != 200 || sub[1].TimestampSec != 300 {
		t.Errorf("range = [%d, %d], want [200, 300]", sub[0].TimestampSec, sub[1].TimestampSec)
	}
}

func TestOhlcRange_UnboundedSides(t *testing.T) {
	history := ticksAt(100, 200, 300)

	if sub := OhlcRange(history, 0, 0); len(sub) != 3 {
		t.Errorf("unbounded range has %d ticks, want 3", len(sub))
	}
	if sub := OhlcRange(history, 200, 0); len(sub) != 2 {
		t.Errorf("right-unbounded range has %d ticks, want 2", len(sub))
	}
	if sub := OhlcRange(history, 0, 200); len(sub) != 1 {
		t.Errorf("left-unbounded range has %d ticks, want 1", len(sub))
	}
}

func TestOhlcRange_EmptyResult(t *testing.T) {
	history := ticksAt(100, 200)

	if sub := OhlcRange(history, 300, 400); sub != nil {
		t.Errorf("out-of-window range = %v, want nil", sub)
	}
	if sub := OhlcRange(history, 150, 150); sub != nil {
		t.Errorf("empty interval = %v, want nil", sub)
	}
	if sub := OhlcRange(nil, 100, 200); sub != nil {
		t.Errorf("range over empty history = %v, want nil", sub)
	}
}

func TestOhlcRange_AliasesInput(t *testing.T) {
	history := ticksAt(100, 200, 300)
	sub := OhlcRange(history, 200, 0)

	sub[0].Close = 999
	if history[1].Close != 999 {
		t.Error("sub-range is a copy, expected it to alias the input")
	}
}

func TestCloseAt(t *testing.T) {
	history := ticksAt(100, 200, 300)

	// Exact hit
	price, err := CloseAt(200, history)
	if err != nil || price != 200 {
		t.Errorf("CloseAt(200) = %v, %v, want 200", price, err)
	}

	// Between ticks: the latest at-or-before close
	price, err = CloseAt(250, history)
	if err != nil || price != 200 {
		t.Errorf("CloseAt(250) = %v, %v, want 200", price, err)
	}

	// Before the first tick: falls back to the first close
	price, err = CloseAt(50, history)
	if err != nil || price != 100 {
		t.Errorf("CloseAt(50) = %v, %v, want 100", price, err)
	}

	// After the last tick
	price, err = CloseAt(1000, history)
	if err != nil || price != 300 {
		t.Errorf("CloseAt(1000) = %v, %v, want 300", price, err)
	}
}

func TestCloseAt_EmptyHistory(t *testing.T) {
	_, err := CloseAt(100, nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("err = %v, want ErrNoPriceData", err)
	}
}
