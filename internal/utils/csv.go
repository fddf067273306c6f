package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"indicatorEngine/internal/domain"
)

var csvHeader = []string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}

// WriteKlinesToCSV writes klines to filename with a header row.
func WriteKlinesToCSV(klines []*domain.Kline, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteKlines(file, klines)
}

// WriteKlines writes klines as CSV to w.
func WriteKlines(w io.Writer, klines []*domain.Kline) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, k := range klines {
		err := writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			strconv.FormatFloat(k.Open, 'f', -1, 64),
			strconv.FormatFloat(k.High, 'f', -1, 64),
			strconv.FormatFloat(k.Low, 'f', -1, 64),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadKlinesFromCSV reads klines from filename. See ReadKlines.
func ReadKlinesFromCSV(filename string) ([]*domain.Kline, bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()
	return ReadKlines(file)
}

// ReadKlines parses CSV price history. The header must name a time column
// (open_time, date, time or timestamp) and open, high, low and close.
// Volume, close_time, symbol and interval are optional; the second return
// value reports whether a volume column was present. Times may be RFC 3339,
// "2006-01-02", "2006-01-02 15:04:05" or Unix milliseconds.
func ReadKlines(r io.Reader) ([]*domain.Kline, bool, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, fmt.Errorf("csv: missing header")
		}
		return nil, false, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	timeCol := -1
	for _, name := range []string{"open_time", "date", "time", "timestamp"} {
		if i, ok := cols[name]; ok {
			timeCol = i
			break
		}
	}
	if timeCol < 0 {
		return nil, false, fmt.Errorf("csv: no time column in header %v", header)
	}
	for _, name := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, false, fmt.Errorf("csv: missing %q column", name)
		}
	}
	volCol, hasVolume := cols["volume"]

	var klines []*domain.Kline
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		k := &domain.Kline{IsFinal: true}
		if k.OpenTime, err = parseTime(rec[timeCol]); err != nil {
			return nil, false, fmt.Errorf("csv line %d: %w", line, err)
		}
		if i, ok := cols["close_time"]; ok && rec[i] != "" {
			if k.CloseTime, err = parseTime(rec[i]); err != nil {
				return nil, false, fmt.Errorf("csv line %d: %w", line, err)
			}
		}
		if i, ok := cols["symbol"]; ok {
			k.Symbol = rec[i]
		}
		if i, ok := cols["interval"]; ok {
			k.Interval = rec[i]
		}
		for name, dst := range map[string]*float64{"open": &k.Open, "high": &k.High, "low": &k.Low, "close": &k.Close} {
			if *dst, err = strconv.ParseFloat(rec[cols[name]], 64); err != nil {
				return nil, false, fmt.Errorf("csv line %d: parsing %s: %w", line, name, err)
			}
		}
		if hasVolume {
			if k.Volume, err = strconv.ParseFloat(rec[volCol], 64); err != nil {
				return nil, false, fmt.Errorf("csv line %d: parsing volume: %w", line, err)
			}
		}
		if err := k.Validate(); err != nil {
			return nil, false, fmt.Errorf("csv line %d: %w", line, err)
		}
		klines = append(klines, k)
	}
	return klines, hasVolume, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
