package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/observability"
	"crypto-backtest-lab/internal/pricehistory"
	"crypto-backtest-lab/internal/storage"
)

// Runner errors
var (
	ErrUnorderedHistory = errors.New("price history timestamps are not non-decreasing")
	ErrEmptyHistory     = errors.New("price history is empty")
)

// Runner drives the ingestion pipeline: outlier removal, resampling,
// gap reporting and storage.
type Runner struct {
	priceRecordStore storage.PriceRecordStore
	ohlcStore        storage.OhlcStore
	logger           *log.Logger

	maxPriceDeviationPerMin float64
	resampleIntervalSec     int
	topNGaps                int
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	// PriceRecordStore receives the cleaned records. Optional.
	PriceRecordStore storage.PriceRecordStore
	// OhlcStore receives the resampled bars. Optional.
	OhlcStore storage.OhlcStore
	Logger    *log.Logger

	// MaxPriceDeviationPerMin is the outlier envelope per sqrt-minute.
	MaxPriceDeviationPerMin float64
	// ResampleIntervalSec is the OHLC bar length.
	ResampleIntervalSec int
	// TopNGaps bounds the gap report.
	TopNGaps int
}

// NewRunner creates an ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		priceRecordStore:        opts.PriceRecordStore,
		ohlcStore:               opts.OhlcStore,
		logger:                  logger,
		maxPriceDeviationPerMin: opts.MaxPriceDeviationPerMin,
		resampleIntervalSec:     opts.ResampleIntervalSec,
		topNGaps:                opts.TopNGaps,
	}
}

// Report summarizes one ingestion run.
type Report struct {
	RecordsIn       int
	OutliersRemoved int
	BarsResampled   int
	Gaps            []domain.HistoryGap
}

// IngestHistory cleans and resamples the raw history for the symbol,
// stores the results and returns the report. Steps:
//  1. Validate timestamp ordering
//  2. Remove outliers
//  3. Report the widest gaps of the cleaned history
//  4. Resample into fixed-interval OHLC bars
//  5. Store cleaned records and bars
func (r *Runner) IngestHistory(ctx context.Context, symbol string, raw domain.PriceHistory) (*Report, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyHistory
	}
	if !domain.CheckPriceRecordTimestamps(raw) {
		observability.RecordIngestionError(symbol, "unordered_history")
		return nil, ErrUnorderedHistory
	}
	observability.RecordRecordsParsed(len(raw))

	clean, outliers := pricehistory.RemoveOutliers(raw, r.maxPriceDeviationPerMin)
	observability.RecordOutliersRemoved(len(outliers))
	r.logger.Printf("ingest %s: %d records, %d outliers removed", symbol, len(raw), len(outliers))

	report := &Report{
		RecordsIn:       len(raw),
		OutliersRemoved: len(outliers),
	}
	if len(clean) == 0 {
		return report, nil
	}

	report.Gaps = pricehistory.HistoryGaps(clean, 0, 0, r.topNGaps)
	observability.RecordGapsDetected(len(report.Gaps))
	for _, gap := range report.Gaps {
		r.logger.Printf("ingest %s: gap %s -> %s (%s)",
			symbol,
			time.Unix(gap.StartTimestampSec, 0).UTC().Format(time.RFC3339),
			time.Unix(gap.EndTimestampSec, 0).UTC().Format(time.RFC3339),
			time.Duration(gap.Duration())*time.Second)
	}

	bars := pricehistory.Resample(clean, int64(r.resampleIntervalSec))
	report.BarsResampled = len(bars)
	observability.RecordBarsResampled(len(bars))

	if r.priceRecordStore != nil {
		if err := r.priceRecordStore.InsertBulk(ctx, symbol, clean); err != nil {
			return report, fmt.Errorf("store price records: %w", err)
		}
		observability.RecordRecordsStored(len(clean))
	}
	if r.ohlcStore != nil {
		if err := r.ohlcStore.InsertBulk(ctx, symbol, r.resampleIntervalSec, bars); err != nil {
			return report, fmt.Errorf("store ohlc bars: %w", err)
		}
	}

	observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
	r.logger.Printf("ingest %s: stored %d records, %d bars", symbol, len(clean), len(bars))
	return report, nil
}
