package pricehistory

import (
	"testing"

	"crypto-backtest-lab/internal/domain"
)

// steadyHistory returns count records at the same price, spaced 60s.
func steadyHistory(count int, price float64) domain.PriceHistory {
	history := make(domain.PriceHistory, count)
	for i := range history {
		history[i] = domain.PriceRecord{
			TimestampSec: 1700000000 + int64(i)*60,
			Price:        price,
			Volume:       1,
		}
	}
	return history
}

func TestRemoveOutliers_CleanHistoryUnchanged(t *testing.T) {
	history := steadyHistory(20, 100)

	clean, outliers := RemoveOutliers(history, 0.01)

	if len(outliers) != 0 {
		t.Errorf("removed %d records from a clean history", len(outliers))
	}
	if len(clean) != len(history) {
		t.Errorf("clean history has %d records, want %d", len(clean), len(history))
	}
}

func TestRemoveOutliers_NonPositivePriceOrVolume(t *testing.T) {
	history := steadyHistory(5, 100)
	history[1].Price = 0
	history[3].Volume = -1

	clean, outliers := RemoveOutliers(history, 0.01)

	if len(clean) != 3 {
		t.Errorf("clean history has %d records, want 3", len(clean))
	}
	if len(outliers) != 2 || outliers[0] != 1 || outliers[1] != 3 {
		t.Errorf("outlier indices = %v, want [1 3]", outliers)
	}
}

func TestRemoveOutliers_SingleSpikeRemoved(t *testing.T) {
	// A lone doubling between steady neighbors is a spike: none of the
	// following records confirm the move.
	history := steadyHistory(20, 100)
	history[10].Price = 200

	clean, outliers := RemoveOutliers(history, 0.01)

	if len(outliers) != 1 || outliers[0] != 10 {
		t.Fatalf("outlier indices = %v, want [10]", outliers)
	}
	for _, record := range clean {
		if record.Price != 100 {
			t.Errorf("spike survived at price %v", record.Price)
		}
	}
}

func TestRemoveOutliers_RegimeChangeKept(t *testing.T) {
	// The price doubles and stays doubled: enough lookahead records
	// confirm the move, so nothing is removed.
	history := steadyHistory(20, 100)
	for i := 10; i < len(history); i++ {
		history[i].Price = 200
	}

	clean, outliers := RemoveOutliers(history, 0.01)

	if len(outliers) != 0 {
		t.Errorf("removed %d records across a regime change", len(outliers))
	}
	if clean[len(clean)-1].Price != 200 {
		t.Errorf("final price = %v, want 200", clean[len(clean)-1].Price)
	}
}

func TestRemoveOutliers_JumpNearHistoryEndRejected(t *testing.T) {
	// The price doubles over the last 3 records, but fewer than 3
	// confirmations remain after each of them, so the whole tail is
	// rejected even though the records agree with each other.
	history := steadyHistory(10, 100)
	history[7].Price = 200
	history[8].Price = 200
	history[9].Price = 200

	_, outliers := RemoveOutliers(history, 0.01)

	if len(outliers) != 3 || outliers[0] != 7 || outliers[1] != 8 || outliers[2] != 9 {
		t.Errorf("outlier indices = %v, want [7 8 9]", outliers)
	}
}

func TestRemoveOutliers_Idempotent(t *testing.T) {
	history := steadyHistory(30, 100)
	history[5].Price = 500
	history[20].Volume = 0

	clean, _ := RemoveOutliers(history, 0.01)
	clean2, outliers2 := RemoveOutliers(clean, 0.01)

	if len(outliers2) != 0 {
		t.Errorf("second pass removed %d records", len(outliers2))
	}
	if len(clean2) != len(clean) {
		t.Errorf("second pass shrank the history: %d -> %d", len(clean), len(clean2))
	}
}

func TestRemoveOutliers_EnvelopeGrowsWithGapDuration(t *testing.T) {
	// A 4% move over 1 minute breaches a 1% envelope, but over 25
	// minutes the allowance is (1.01)*sqrt(25) ≈ 5.05x.
	history := domain.PriceHistory{
		{TimestampSec: 1700000000, Price: 100, Volume: 1},
		{TimestampSec: 1700000000 + 25*60, Price: 104, Volume: 1},
	}

	_, outliers := RemoveOutliers(history, 0.01)

	if len(outliers) != 0 {
		t.Errorf("removed a move inside the widened envelope: %v", outliers)
	}
}

func TestOutlierIndicesWithContext(t *testing.T) {
	// Outlier at index 5 with 2 records of context on each side.
	indexToOutlier := OutlierIndicesWithContext([]int{5}, 100, 2, 2, 0)

	want := map[int]bool{3: false, 4: false, 5: true, 6: false, 7: false}
	if len(indexToOutlier) != len(want) {
		t.Fatalf("got %d indices, want %d: %v", len(indexToOutlier), len(want), indexToOutlier)
	}
	for k, v := range want {
		if got, ok := indexToOutlier[k]; !ok || got != v {
			t.Errorf("index %d = %v (present=%v), want %v", k, got, ok, v)
		}
	}
}

func TestOutlierIndicesWithContext_LastNAndBounds(t *testing.T) {
	// Only the last outlier is kept; the right context clips at the
	// history end.
	indexToOutlier := OutlierIndicesWithContext([]int{2, 9}, 10, 1, 3, 1)

	if v, ok := indexToOutlier[2]; ok && v {
		t.Error("index 2 marked as outlier despite lastN=1")
	}
	if !indexToOutlier[9] {
		t.Error("index 9 not marked as outlier")
	}
	if _, ok := indexToOutlier[10]; ok {
		t.Error("context extends past the history end")
	}
}
