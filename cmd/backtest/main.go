package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/evaluation"
	"crypto-backtest-lab/internal/ingestion"
	"crypto-backtest-lab/internal/simulation"
	"crypto-backtest-lab/internal/storage"
	"crypto-backtest-lab/internal/storage/binfile"
	chstore "crypto-backtest-lab/internal/storage/clickhouse"
	"crypto-backtest-lab/internal/storage/memory"
	"crypto-backtest-lab/internal/storage/migrations"
	pgstore "crypto-backtest-lab/internal/storage/postgres"
	"crypto-backtest-lab/internal/strategy"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Traded symbol, e.g. btcusd (required)")
	strategyName := flag.String("strategy", "", "Strategy: rebalancing, stop (required)")
	combinations := flag.Bool("combinations", false, "Evaluate the full parameter grid instead of a single config")

	// Strategy parameters (single-config mode)
	alpha := flag.Float64("alpha", 0.7, "Target base fraction for rebalancing")
	epsilon := flag.Float64("epsilon", 0.05, "Rebalancing band half-width")
	stopMargin := flag.Float64("stop-margin", 0.1, "Stop order distance from the reference price")
	stopMoveMargin := flag.Float64("stop-move-margin", 0.1, "Stop mode flip margin")
	stopIncreasePerDay := flag.Float64("stop-increase-per-day", 0.01, "Daily stop ratchet while long")
	stopDecreasePerDay := flag.Float64("stop-decrease-per-day", 0.1, "Daily stop decay while in cash")

	// Account parameters
	startBase := flag.Float64("start-base", 1.0, "Starting base currency balance")
	startQuote := flag.Float64("start-quote", 0.0, "Starting quote currency balance")
	liquidity := flag.Float64("liquidity", 0.5, "Market liquidity factor in [0, 1]")
	maxVolumeRatio := flag.Float64("max-volume-ratio", 0.5, "Limit fill cap as a fraction of tick volume (0 disables)")

	// Evaluation window
	startTime := flag.String("start-time", "", "Evaluation window start (RFC3339, default: history start)")
	endTime := flag.String("end-time", "", "Evaluation window end, exclusive (RFC3339, default: history end)")
	periodMonths := flag.Int("period-months", 0, "Evaluation period length in months (0 = whole window)")
	fast := flag.Bool("fast", false, "Skip per-tick logging")

	// OHLC history source
	ohlcFile := flag.String("ohlc-file", "", "Binary OHLC history file")
	ohlcCSV := flag.String("ohlc-csv", "", "CSV OHLC history file")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for OHLC history")
	intervalSec := flag.Int("interval-sec", 300, "OHLC bar length in seconds (ClickHouse lookups)")

	// Per-tick trace output
	accountLog := flag.String("account-log", "", "CSV file for per-tick account state and executed orders")
	simulatorLog := flag.String("simulator-log", "", "File for per-tick simulator state")

	// Result output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	topN := flag.Int("top", 10, "Results to print in combination mode")
	persistResult := flag.Bool("persist", false, "Persist evaluation results to storage")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for persisted results")
	useMemory := flag.Bool("use-memory", false, "Use in-memory result storage with --persist")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *strategyName == "" {
		logger.Fatal("--strategy is required")
	}
	*strategyName = strings.ToLower(*strategyName)

	sources := 0
	for _, s := range []string{*ohlcFile, *ohlcCSV, *clickhouseDSN} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		logger.Fatal("exactly one of --ohlc-file, --ohlc-csv or --clickhouse-dsn is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load history
	history, err := loadHistory(ctx, *ohlcFile, *ohlcCSV, *clickhouseDSN, *symbol, *intervalSec)
	if err != nil {
		logger.Fatalf("load history: %v", err)
	}
	if len(history) == 0 {
		logger.Fatal("history is empty")
	}
	if !domain.CheckOhlcTimestamps(history) {
		logger.Fatal("history timestamps are not strictly increasing")
	}
	logger.Printf("loaded %d bars: %s -> %s", len(history),
		time.Unix(history[0].TimestampSec, 0).UTC().Format(time.RFC3339),
		time.Unix(history[len(history)-1].TimestampSec, 0).UTC().Format(time.RFC3339))

	evalConfig := domain.EvaluationConfig{
		StartTimestampSec:      history[0].TimestampSec,
		EndTimestampSec:        history[len(history)-1].TimestampSec + 1,
		EvaluationPeriodMonths: *periodMonths,
		FastExecute:            *fast,
	}
	if *startTime != "" {
		evalConfig.StartTimestampSec = parseTimeFlag(logger, "--start-time", *startTime)
	}
	if *endTime != "" {
		evalConfig.EndTimestampSec = parseTimeFlag(logger, "--end-time", *endTime)
	}
	if evalConfig.EndTimestampSec <= evalConfig.StartTimestampSec {
		logger.Fatal("--end-time must be after --start-time")
	}

	// Per-tick trace sinks
	var simLogger simulation.Logger
	if *accountLog != "" || *simulatorLog != "" {
		if *combinations {
			logger.Fatal("--account-log/--simulator-log are incompatible with --combinations")
		}
		csvLogger, closeFn, err := openCSVLogger(*accountLog, *simulatorLog)
		if err != nil {
			logger.Fatalf("open trace logs: %v", err)
		}
		defer closeFn()
		simLogger = csvLogger
	}

	evaluator := evaluation.New(evaluation.Options{
		AccountConfig:    domain.DefaultAccountConfig(*startBase, *startQuote, *liquidity, *maxVolumeRatio),
		EvaluationConfig: evalConfig,
		Symbol:           *symbol,
		Logger:           simLogger,
	})

	// Evaluate
	var results []domain.EvaluationResult
	if *combinations {
		dispatchers, err := strategy.CombinationDispatchers(*strategyName)
		if err != nil {
			logger.Fatalf("build strategy grid: %v", err)
		}
		logger.Printf("evaluating %d %s combinations", len(dispatchers), *strategyName)
		results = evaluator.EvaluateCombinations(history, dispatchers)
	} else {
		dispatcher, err := buildDispatcher(*strategyName,
			*alpha, *epsilon,
			*stopMargin, *stopMoveMargin, *stopIncreasePerDay, *stopDecreasePerDay)
		if err != nil {
			logger.Fatalf("build strategy: %v", err)
		}
		logger.Printf("evaluating %s", dispatcher.Name())
		results = []domain.EvaluationResult{evaluator.EvaluateSimulator(history, dispatcher)}
	}

	// Output results
	if *outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
	} else {
		printed := results
		if *topN > 0 && len(printed) > *topN {
			printed = printed[:*topN]
		}
		for i, result := range printed {
			printEvaluationResult(i+1, &result)
		}
	}

	// Persist results
	if *persistResult {
		resultStore, closeFn := openResultStore(ctx, logger, *postgresDSN, *useMemory)
		defer closeFn()
		for i := range results {
			if err := resultStore.Insert(ctx, &results[i]); err != nil {
				logger.Fatalf("persist result %s: %v", results[i].RunID, err)
			}
		}
		logger.Printf("persisted %d results", len(results))
	}
}

// loadHistory reads the OHLC history from the single configured source.
func loadHistory(ctx context.Context, ohlcFile, ohlcCSV, clickhouseDSN, symbol string, intervalSec int) (domain.OhlcHistory, error) {
	switch {
	case ohlcFile != "":
		return binfile.ReadOhlcHistory(ohlcFile, 0, 0)
	case ohlcCSV != "":
		f, err := os.Open(ohlcCSV)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ingestion.ParseOhlcCSV(f)
	default:
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		return chstore.NewOhlcStore(conn).GetBySymbol(ctx, symbol, intervalSec)
	}
}

func parseTimeFlag(logger *log.Logger, name, value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		logger.Fatalf("%s: %v", name, err)
	}
	return t.Unix()
}

// buildDispatcher creates a single-config dispatcher from CLI flags.
func buildDispatcher(
	name string,
	alpha, epsilon float64,
	stopMargin, stopMoveMargin, stopIncreasePerDay, stopDecreasePerDay float64,
) (strategy.Dispatcher, error) {
	switch name {
	case strategy.NameRebalancing:
		return strategy.NewRebalancingDispatcher(strategy.RebalancingConfig{
			Alpha:   alpha,
			Epsilon: epsilon,
		}), nil
	case strategy.NameStop:
		return strategy.NewStopDispatcher(strategy.StopConfig{
			StopOrderMargin:         stopMargin,
			StopOrderMoveMargin:     stopMoveMargin,
			StopOrderIncreasePerDay: stopIncreasePerDay,
			StopOrderDecreasePerDay: stopDecreasePerDay,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", strategy.ErrUnknownStrategy, name)
	}
}

// openCSVLogger opens the per-tick trace sinks. Either path may be
// empty; missing sinks are discarded.
func openCSVLogger(accountPath, simulatorPath string) (*simulation.CSVLogger, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	open := func(path string) (io.Writer, error) {
		if path == "" {
			return io.Discard, nil
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	accountOut, err := open(accountPath)
	if err != nil {
		return nil, nil, err
	}
	simulatorOut, err := open(simulatorPath)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return simulation.NewCSVLogger(accountOut, simulatorOut), closeAll, nil
}

// openResultStore returns the evaluation result store: in-memory by
// default, PostgreSQL when a DSN is given.
func openResultStore(ctx context.Context, logger *log.Logger, postgresDSN string, useMemory bool) (storage.EvaluationResultStore, func()) {
	if useMemory || postgresDSN == "" {
		if postgresDSN == "" && !useMemory {
			logger.Print("--postgres-dsn not set, persisting to memory only")
		}
		return memory.NewEvaluationResultStore(), func() {}
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		logger.Fatalf("run postgres migrations: %v", err)
	}
	return pgstore.NewEvaluationResultStore(pool), pool.Close
}

// printEvaluationResult outputs a human-readable evaluation result.
func printEvaluationResult(rank int, r *domain.EvaluationResult) {
	fmt.Println()
	fmt.Printf("=== #%d %s ===\n", rank, r.Name)
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Printf("Score:              %.4f\n", r.Score)
	fmt.Printf("Avg Gain:           %+.2f%%\n", (r.AvgGain-1)*100)
	fmt.Printf("Avg Base Gain:      %+.2f%%\n", (r.AvgBaseGain-1)*100)
	fmt.Printf("Avg Orders:         %.1f\n", r.AvgTotalExecutedOrders)
	fmt.Printf("Avg Fee:            %.2f\n", r.AvgTotalFee)
	fmt.Println()

	fmt.Println("Periods:")
	for _, p := range r.Periods {
		score := 0.0
		if p.BaseFinalGain != 0 {
			score = p.FinalGain / p.BaseFinalGain
		}
		fmt.Printf("  [%s - %s): %+.2f%% | %+.2f%% | %.4f\n",
			time.Unix(p.StartTimestampSec, 0).UTC().Format("2006-01-02"),
			time.Unix(p.EndTimestampSec, 0).UTC().Format("2006-01-02"),
			(p.FinalGain-1)*100,
			(p.BaseFinalGain-1)*100,
			score)
	}
}
