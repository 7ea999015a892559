package memory

import (
	"context"
	"errors"
	"testing"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/storage"
)

func TestPriceRecordStore_InsertAndGet(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	records := domain.PriceHistory{
		{TimestampSec: 200, Price: 101, Volume: 2},
		{TimestampSec: 100, Price: 100, Volume: 1},
	}
	if err := store.InsertBulk(ctx, "btcusd", records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "btcusd")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Records come back sorted regardless of insert order.
	if got[0].TimestampSec != 100 || got[1].TimestampSec != 200 {
		t.Errorf("records not sorted: %+v", got)
	}
}

func TestPriceRecordStore_SameSecondTradesAccepted(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	// Two trades in one epoch second are a valid history.
	records := domain.PriceHistory{
		{TimestampSec: 1700000000, Price: 100, Volume: 1},
		{TimestampSec: 1700000000, Price: 101, Volume: 2},
	}
	if !domain.CheckPriceRecordTimestamps(records) {
		t.Fatal("history unexpectedly unordered")
	}
	if err := store.InsertBulk(ctx, "btcusd", records); err != nil {
		t.Fatalf("same-second batch rejected: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "btcusd")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Insertion order survives among records sharing a second.
	if got[0].Price != 100 || got[1].Price != 101 {
		t.Errorf("same-second order not kept: %+v", got)
	}
}

func TestPriceRecordStore_SameTimestampAcrossBatches(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "btcusd", domain.PriceHistory{{TimestampSec: 100, Price: 1, Volume: 1}}); err != nil {
		t.Fatalf("first InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "btcusd", domain.PriceHistory{{TimestampSec: 100, Price: 2, Volume: 1}}); err != nil {
		t.Fatalf("second InsertBulk failed: %v", err)
	}

	got, _ := store.GetBySymbol(ctx, "btcusd")
	if len(got) != 2 {
		t.Errorf("store has %d records, want 2", len(got))
	}
}

func TestPriceRecordStore_EmptySymbol(t *testing.T) {
	store := NewPriceRecordStore()

	err := store.InsertBulk(context.Background(), "", domain.PriceHistory{{TimestampSec: 1, Price: 1, Volume: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPriceRecordStore_GetByTimeRange(t *testing.T) {
	store := NewPriceRecordStore()
	ctx := context.Background()

	records := domain.PriceHistory{
		{TimestampSec: 100, Price: 1, Volume: 1},
		{TimestampSec: 200, Price: 2, Volume: 1},
		{TimestampSec: 300, Price: 3, Volume: 1},
	}
	if err := store.InsertBulk(ctx, "btcusd", records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// [100, 300) excludes the record at 300.
	got, err := store.GetByTimeRange(ctx, "btcusd", 100, 300)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestOhlcStore_SeparateIntervals(t *testing.T) {
	store := NewOhlcStore()
	ctx := context.Background()

	tick := domain.OhlcTick{TimestampSec: 300, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	if err := store.InsertBulk(ctx, "btcusd", 300, domain.OhlcHistory{tick}); err != nil {
		t.Fatalf("InsertBulk(300) failed: %v", err)
	}
	// The same timestamp under a different interval is a different
	// series, not a duplicate.
	if err := store.InsertBulk(ctx, "btcusd", 3600, domain.OhlcHistory{tick}); err != nil {
		t.Fatalf("InsertBulk(3600) failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "btcusd", 300)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d ticks for interval 300, want 1", len(got))
	}
}

func TestOhlcStore_ReinsertedBarReplacesStored(t *testing.T) {
	store := NewOhlcStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "btcusd", 300, domain.OhlcHistory{
		{TimestampSec: 300, Open: 100, High: 100, Low: 100, Close: 100, Volume: 1},
	}); err != nil {
		t.Fatalf("first InsertBulk failed: %v", err)
	}

	// A bucket resampled again by a later batch overwrites the bar.
	if err := store.InsertBulk(ctx, "btcusd", 300, domain.OhlcHistory{
		{TimestampSec: 300, Open: 100, High: 103, Low: 99, Close: 101, Volume: 4},
		{TimestampSec: 600, Open: 102, High: 102, Low: 102, Close: 102, Volume: 1},
	}); err != nil {
		t.Fatalf("overlapping InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "btcusd", 300)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ticks, want 2", len(got))
	}
	if got[0].Close != 101 || got[0].Volume != 4 {
		t.Errorf("bar at 300 = %+v, want the rewritten bar", got[0])
	}
}

func TestOhlcStore_GetByTimeRange(t *testing.T) {
	store := NewOhlcStore()
	ctx := context.Background()

	ticks := domain.OhlcHistory{
		{TimestampSec: 0, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{TimestampSec: 300, Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
		{TimestampSec: 600, Open: 3, High: 3, Low: 3, Close: 3, Volume: 1},
	}
	if err := store.InsertBulk(ctx, "btcusd", 300, ticks); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "btcusd", 300, 300, 600)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 1 || got[0].TimestampSec != 300 {
		t.Errorf("got %+v, want the single tick at 300", got)
	}
}

func TestEvaluationResultStore_InsertAndGet(t *testing.T) {
	store := NewEvaluationResultStore()
	ctx := context.Background()

	result := &domain.EvaluationResult{RunID: "run-1", Name: "rebalancing[0.7|0.05]", Score: 1.1}
	if err := store.Insert(ctx, result); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if got.Name != result.Name || got.Score != result.Score {
		t.Errorf("got %+v, want %+v", got, result)
	}

	if err := store.Insert(ctx, result); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("second Insert err = %v, want ErrDuplicateKey", err)
	}
	if _, err := store.GetByRunID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByRunID(missing) err = %v, want ErrNotFound", err)
	}
}

func TestEvaluationResultStore_GetAllSortedByScore(t *testing.T) {
	store := NewEvaluationResultStore()
	ctx := context.Background()

	for _, r := range []*domain.EvaluationResult{
		{RunID: "a", Score: 0.9},
		{RunID: "b", Score: 1.5},
		{RunID: "c", Score: 1.1},
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RunID, err)
		}
	}

	results, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].RunID != "b" || results[1].RunID != "c" || results[2].RunID != "a" {
		t.Errorf("order = %s,%s,%s, want b,c,a", results[0].RunID, results[1].RunID, results[2].RunID)
	}
}

func TestEvaluationResultStore_ReturnsCopies(t *testing.T) {
	store := NewEvaluationResultStore()
	ctx := context.Background()

	result := &domain.EvaluationResult{RunID: "run-1", Periods: []domain.TimePeriod{{StartTimestampSec: 1}}}
	if err := store.Insert(ctx, result); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByRunID(ctx, "run-1")
	got.Periods[0].StartTimestampSec = 999

	again, _ := store.GetByRunID(ctx, "run-1")
	if again.Periods[0].StartTimestampSec != 1 {
		t.Error("mutating a returned result leaked into the store")
	}
}
