package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantmill/tcnsignal/series"
)

var csvColumns = []string{"time", "open", "high", "low", "close", "volume"}

// LoadCSV reads OHLCV bars from a CSV file with a
// time,open,high,low,close,volume header. The time column accepts unix
// seconds, RFC 3339 timestamps, or plain dates. Rows must be oldest first.
func LoadCSV(path string) ([]series.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(csvColumns) {
		return nil, fmt.Errorf("expected columns %v, got %v", csvColumns, header)
	}
	for i, want := range csvColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, fmt.Errorf("expected column %d to be %q, got %q", i, want, header[i])
		}
	}

	var bars []series.Bar
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		// A malformed row (bad quoting, wrong field count) aborts the load;
		// truncating to the rows before it would silently corrupt the dataset.
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := parseTime(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fields := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", line, csvColumns[i+1], err)
			}
			fields[i] = v
		}
		bars = append(bars, series.Bar{
			Time:   ts,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars in %s", path)
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Time <= bars[i-1].Time {
			return nil, fmt.Errorf("bars are not in strictly increasing time order at line %d", i+2)
		}
	}
	return bars, nil
}

func parseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unix, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}
