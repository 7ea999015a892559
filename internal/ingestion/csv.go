// Package ingestion turns external price data (CSV dumps, binary
// archives, live trade feeds) into cleaned, resampled histories ready
// for simulation.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"crypto-backtest-lab/internal/domain"
)

// ErrBadCSVHeader is returned when the first CSV row is neither a known
// header nor a data row.
var ErrBadCSVHeader = errors.New("unrecognized csv header")

// ParsePriceRecordsCSV parses `timestamp,price,volume` rows. A header
// row is skipped when present. Record ordering is not validated here;
// the ingestion runner rejects unordered histories.
func ParsePriceRecordsCSV(r io.Reader) (domain.PriceHistory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3

	var history domain.PriceHistory
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return history, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line == 1 && !isNumeric(row[0]) {
			if row[0] != "timestamp" {
				return nil, fmt.Errorf("%w: %q", ErrBadCSVHeader, row[0])
			}
			continue
		}

		record, err := parsePriceRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		history = append(history, record)
	}
}

// ParseOhlcCSV parses `timestamp,open,high,low,close,volume` rows. A
// header row is skipped when present.
func ParseOhlcCSV(r io.Reader) (domain.OhlcHistory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	var history domain.OhlcHistory
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return history, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line == 1 && !isNumeric(row[0]) {
			if row[0] != "timestamp" {
				return nil, fmt.Errorf("%w: %q", ErrBadCSVHeader, row[0])
			}
			continue
		}

		tick, err := parseOhlcRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		history = append(history, tick)
	}
}

func parsePriceRecordRow(row []string) (domain.PriceRecord, error) {
	var record domain.PriceRecord
	var err error

	if record.TimestampSec, err = strconv.ParseInt(row[0], 10, 64); err != nil {
		return record, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	if record.Price, err = strconv.ParseFloat(row[1], 64); err != nil {
		return record, fmt.Errorf("price %q: %w", row[1], err)
	}
	if record.Volume, err = strconv.ParseFloat(row[2], 64); err != nil {
		return record, fmt.Errorf("volume %q: %w", row[2], err)
	}
	return record, nil
}

func parseOhlcRow(row []string) (domain.OhlcTick, error) {
	var tick domain.OhlcTick
	var err error

	if tick.TimestampSec, err = strconv.ParseInt(row[0], 10, 64); err != nil {
		return tick, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	fields := []*float64{&tick.Open, &tick.High, &tick.Low, &tick.Close, &tick.Volume}
	names := []string{"open", "high", "low", "close", "volume"}
	for i, field := range fields {
		if *field, err = strconv.ParseFloat(row[i+1], 64); err != nil {
			return tick, fmt.Errorf("%s %q: %w", names[i], row[i+1], err)
		}
	}
	return tick, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
