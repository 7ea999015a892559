package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/ingestion"
	"crypto-backtest-lab/internal/observability"
	"crypto-backtest-lab/internal/storage"
	"crypto-backtest-lab/internal/storage/binfile"
	chstore "crypto-backtest-lab/internal/storage/clickhouse"
	"crypto-backtest-lab/internal/storage/memory"
	"crypto-backtest-lab/internal/storage/migrations"
	pgstore "crypto-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	mode := flag.String("mode", "", "Ingestion mode: csv, binfile, or live (required)")
	symbol := flag.String("symbol", "", "Traded symbol, e.g. btcusd (required)")
	input := flag.String("input", "", "Input file for csv and binfile modes")
	wsEndpoint := flag.String("ws-endpoint", "wss://ws.bitstamp.net", "WebSocket endpoint for live mode")
	fromTime := flag.String("from-time", "", "Record filter start for binfile mode (RFC3339)")
	toTime := flag.String("to-time", "", "Record filter end for binfile mode (RFC3339)")

	// Pipeline parameters
	maxDeviation := flag.Float64("max-deviation", 0.01, "Outlier envelope per sqrt-minute")
	intervalSec := flag.Int("interval-sec", 300, "OHLC bar length in seconds")
	topGaps := flag.Int("top-gaps", 10, "Widest history gaps to report")
	flushInterval := flag.Duration("flush-interval", time.Minute, "Batch flush interval for live mode")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for cleaned price records")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for OHLC bars")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Binary exports, written after ingestion
	outRecordsFile := flag.String("out-records-file", "", "Binary file for the cleaned price records")
	outOhlcFile := flag.String("out-ohlc-file", "", "Binary file for the resampled OHLC bars")

	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *mode == "" {
		logger.Fatal("--mode is required")
	}
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create stores
	var priceRecordStore storage.PriceRecordStore = memory.NewPriceRecordStore()
	var ohlcStore storage.OhlcStore = memory.NewOhlcStore()
	var closers []func()

	if !*useMemory && *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		priceRecordStore = pgstore.NewPriceRecordStore(pool)
	}
	if !*useMemory && *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}
		closers = append(closers, func() { conn.Close() })

		ohlcStore = chstore.NewOhlcStore(conn)
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		PriceRecordStore:        priceRecordStore,
		OhlcStore:               ohlcStore,
		Logger:                  logger,
		MaxPriceDeviationPerMin: *maxDeviation,
		ResampleIntervalSec:     *intervalSec,
		TopNGaps:                *topGaps,
	})

	// Run based on mode
	var err error
	switch *mode {
	case "csv":
		err = runCSV(ctx, logger, runner, *symbol, *input)
	case "binfile":
		err = runBinfile(ctx, logger, runner, *symbol, *input, *fromTime, *toTime)
	case "live":
		err = runLive(ctx, logger, runner, *symbol, *wsEndpoint, *flushInterval)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	if err == nil {
		err = exportBinary(ctx, logger, priceRecordStore, ohlcStore,
			*symbol, *intervalSec, *outRecordsFile, *outOhlcFile)
	}

	// Signal completion to shutdown handler
	done <- err
	cancel()
	for _, closeFn := range closers {
		closeFn()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runCSV ingests a CSV price record file.
func runCSV(ctx context.Context, logger *log.Logger, runner *ingestion.Runner, symbol, input string) error {
	if input == "" {
		return fmt.Errorf("--input is required for csv mode")
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := ingestion.ParsePriceRecordsCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}

	return ingest(ctx, logger, runner, symbol, raw)
}

// runBinfile ingests a binary price record file, optionally filtered to
// a time range.
func runBinfile(ctx context.Context, logger *log.Logger, runner *ingestion.Runner, symbol, input, fromTimeStr, toTimeStr string) error {
	if input == "" {
		return fmt.Errorf("--input is required for binfile mode")
	}

	var from, to int64
	if fromTimeStr != "" {
		t, err := time.Parse(time.RFC3339, fromTimeStr)
		if err != nil {
			return fmt.Errorf("parse from-time: %w", err)
		}
		from = t.Unix()
	}
	if toTimeStr != "" {
		t, err := time.Parse(time.RFC3339, toTimeStr)
		if err != nil {
			return fmt.Errorf("parse to-time: %w", err)
		}
		to = t.Unix()
	}

	raw, err := binfile.ReadPriceHistory(input, from, to)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	return ingest(ctx, logger, runner, symbol, raw)
}

// runLive streams trades from the WebSocket feed and ingests them in
// batches until the context is cancelled.
func runLive(ctx context.Context, logger *log.Logger, runner *ingestion.Runner, symbol, wsEndpoint string, flushInterval time.Duration) error {
	if wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required for live mode")
	}

	feed := ingestion.NewTradeFeed(wsEndpoint, symbol, logger, nil)
	defer feed.Close()
	records := feed.Records(ctx)

	logger.Printf("Streaming live trades for %s from %s", symbol, wsEndpoint)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch domain.PriceHistory
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ingest(ctx, logger, runner, symbol, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			// Flush what arrived before shutdown. The context is gone, so
			// give storage its own deadline.
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer flushCancel()
			if err := ingest(flushCtx, logger, runner, symbol, batch); err != nil && !errors.Is(err, ingestion.ErrEmptyHistory) {
				return err
			}
			return ctx.Err()
		case record, ok := <-records:
			if !ok {
				return flush()
			}
			batch = append(batch, record)
		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

func ingest(ctx context.Context, logger *log.Logger, runner *ingestion.Runner, symbol string, raw domain.PriceHistory) error {
	report, err := runner.IngestHistory(ctx, symbol, raw)
	if err != nil {
		return err
	}
	logger.Printf("Ingested %s: %d records in, %d outliers removed, %d bars, %d gaps reported",
		symbol, report.RecordsIn, report.OutliersRemoved, report.BarsResampled, len(report.Gaps))
	return nil
}

// exportBinary writes the stored cleaned records and bars to binary
// files when requested.
func exportBinary(ctx context.Context, logger *log.Logger, priceRecordStore storage.PriceRecordStore, ohlcStore storage.OhlcStore, symbol string, intervalSec int, recordsFile, ohlcFile string) error {
	if recordsFile != "" {
		records, err := priceRecordStore.GetBySymbol(ctx, symbol)
		if err != nil {
			return fmt.Errorf("load price records: %w", err)
		}
		if err := binfile.WritePriceHistory(recordsFile, records); err != nil {
			return fmt.Errorf("write %s: %w", recordsFile, err)
		}
		logger.Printf("Wrote %d records to %s", len(records), recordsFile)
	}
	if ohlcFile != "" {
		bars, err := ohlcStore.GetBySymbol(ctx, symbol, intervalSec)
		if err != nil {
			return fmt.Errorf("load ohlc bars: %w", err)
		}
		if err := binfile.WriteOhlcHistory(ohlcFile, bars); err != nil {
			return fmt.Errorf("write %s: %w", ohlcFile, err)
		}
		logger.Printf("Wrote %d bars to %s", len(bars), ohlcFile)
	}
	return nil
}
