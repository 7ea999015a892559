// Package binfile reads and writes price histories as flat
// little-endian fixed-layout files. The record layouts are stable on
// disk: PriceRecord is int64 + 2 float32, OhlcTick is int64 + 5
// float32.
package binfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"crypto-backtest-lab/internal/domain"
)

// priceRecordLayout is the on-disk shape of a PriceRecord.
type priceRecordLayout struct {
	TimestampSec int64
	Price        float32
	Volume       float32
}

// ohlcTickLayout is the on-disk shape of an OhlcTick.
type ohlcTickLayout struct {
	TimestampSec int64
	Open         float32
	High         float32
	Low          float32
	Close        float32
	Volume       float32
}

// ReadPriceHistory reads the records with timestamps in
// [startTimestampSec, endTimestampSec) from the file. Non-positive
// bounds leave that side unbounded.
func ReadPriceHistory(path string, startTimestampSec, endTimestampSec int64) (domain.PriceHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price history %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var history domain.PriceHistory
	for {
		var rec priceRecordLayout
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			if errors.Is(err, io.EOF) {
				return history, nil
			}
			return nil, fmt.Errorf("read price record: %w", err)
		}
		if startTimestampSec > 0 && rec.TimestampSec < startTimestampSec {
			continue
		}
		if endTimestampSec > 0 && rec.TimestampSec >= endTimestampSec {
			return history, nil
		}
		history = append(history, domain.PriceRecord{
			TimestampSec: rec.TimestampSec,
			Price:        float64(rec.Price),
			Volume:       float64(rec.Volume),
		})
	}
}

// WritePriceHistory writes the history to the file, replacing any
// previous content.
func WritePriceHistory(path string, history domain.PriceHistory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create price history %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range history {
		rec := priceRecordLayout{
			TimestampSec: r.TimestampSec,
			Price:        float32(r.Price),
			Volume:       float32(r.Volume),
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write price record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush price history: %w", err)
	}
	return nil
}

// ReadOhlcHistory reads the ticks with timestamps in
// [startTimestampSec, endTimestampSec) from the file. Non-positive
// bounds leave that side unbounded.
func ReadOhlcHistory(path string, startTimestampSec, endTimestampSec int64) (domain.OhlcHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ohlc history %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var history domain.OhlcHistory
	for {
		var rec ohlcTickLayout
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			if errors.Is(err, io.EOF) {
				return history, nil
			}
			return nil, fmt.Errorf("read ohlc tick: %w", err)
		}
		if startTimestampSec > 0 && rec.TimestampSec < startTimestampSec {
			continue
		}
		if endTimestampSec > 0 && rec.TimestampSec >= endTimestampSec {
			return history, nil
		}
		history = append(history, domain.OhlcTick{
			TimestampSec: rec.TimestampSec,
			Open:         float64(rec.Open),
			High:         float64(rec.High),
			Low:          float64(rec.Low),
			Close:        float64(rec.Close),
			Volume:       float64(rec.Volume),
		})
	}
}

// WriteOhlcHistory writes the history to the file, replacing any
// previous content.
func WriteOhlcHistory(path string, history domain.OhlcHistory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ohlc history %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, t := range history {
		rec := ohlcTickLayout{
			TimestampSec: t.TimestampSec,
			Open:         float32(t.Open),
			High:         float32(t.High),
			Low:          float32(t.Low),
			Close:        float32(t.Close),
			Volume:       float32(t.Volume),
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write ohlc tick: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush ohlc history: %w", err)
	}
	return nil
}
