package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/reporting"
	"crypto-backtest-lab/internal/storage"
	"crypto-backtest-lab/internal/storage/memory"
	pgstore "crypto-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string with stored evaluation results")
	resultsJSON := flag.String("results-json", "", "JSON file with evaluation results instead of a database")
	format := flag.String("format", "markdown", "Output format: markdown, csv, or both")
	outputDir := flag.String("output-dir", "", "Output directory (default: stdout)")
	topN := flag.Int("top", 10, "Configurations with a detailed period breakdown")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if (*postgresDSN == "") == (*resultsJSON == "") {
		logger.Fatal("exactly one of --postgres-dsn or --results-json is required")
	}
	if *format != "markdown" && *format != "csv" && *format != "both" {
		logger.Fatalf("Invalid format: %s. Must be markdown, csv, or both", *format)
	}

	ctx := context.Background()

	// Create result store
	var resultStore storage.EvaluationResultStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		resultStore = pgstore.NewEvaluationResultStore(pool)
	} else {
		store, err := loadResultsJSON(ctx, *resultsJSON)
		if err != nil {
			logger.Fatalf("load %s: %v", *resultsJSON, err)
		}
		resultStore = store
	}

	// Generate report
	report, err := reporting.NewGenerator(resultStore).Generate(ctx, *topN)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}
	logger.Printf("Report over %d evaluation results", len(report.Results))

	// Render
	if *format == "markdown" || *format == "both" {
		if err := emit(*outputDir, "EVALUATION_REPORT.md", reporting.RenderMarkdown(report)); err != nil {
			logger.Fatalf("write markdown: %v", err)
		}
	}
	if *format == "csv" || *format == "both" {
		if err := emit(*outputDir, "EVALUATION_RESULTS.csv", reporting.RenderCSV(report.Results)); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
	}
}

// loadResultsJSON reads evaluation results from a JSON array file into
// an in-memory store.
func loadResultsJSON(ctx context.Context, path string) (storage.EvaluationResultStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var results []domain.EvaluationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}

	store := memory.NewEvaluationResultStore()
	for i := range results {
		if err := store.Insert(ctx, &results[i]); err != nil {
			return nil, fmt.Errorf("load result %s: %w", results[i].RunID, err)
		}
	}
	return store, nil
}

// emit writes the rendered report to the output directory, or to stdout
// when no directory is configured.
func emit(outputDir, name, content string) error {
	if outputDir == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("  - %s\n", path)
	return nil
}
