package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

// CSVSource reads bars from a flat OHLC file, one file per instrument, named
// <symbol>.csv under Dir (or the single file at Path when set). The header row
// must name open, high, low and close columns; extra columns are ignored.
type CSVSource struct {
	Dir  string
	Path string
}

// Bars implements Source.
func (s *CSVSource) Bars(ctx context.Context, symbol string) ([]demark.Bar, error) {
	path := s.Path
	if path == "" {
		path = fmt.Sprintf("%s/%s.csv", s.Dir, symbol)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read bar file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("bar file %s has no data rows", path)
	}

	cols, err := headerIndex(records[0])
	if err != nil {
		return nil, fmt.Errorf("bar file %s: %w", path, err)
	}

	bars := make([]demark.Bar, 0, len(records)-1)
	for n, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("bar file %s row %d: %w", path, n+2, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type ohlcIndex struct {
	open, high, low, close int
}

func headerIndex(header []string) (ohlcIndex, error) {
	idx := ohlcIndex{open: -1, high: -1, low: -1, close: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "open":
			idx.open = i
		case "high":
			idx.high = i
		case "low":
			idx.low = i
		case "close":
			idx.close = i
		}
	}
	if idx.open < 0 || idx.high < 0 || idx.low < 0 || idx.close < 0 {
		return idx, fmt.Errorf("header must contain open, high, low and close columns")
	}
	return idx, nil
}

func parseBar(rec []string, cols ohlcIndex) (demark.Bar, error) {
	var (
		bar demark.Bar
		err error
	)
	if bar.Open, err = strconv.ParseFloat(strings.TrimSpace(rec[cols.open]), 64); err != nil {
		return bar, fmt.Errorf("bad open %q", rec[cols.open])
	}
	if bar.High, err = strconv.ParseFloat(strings.TrimSpace(rec[cols.high]), 64); err != nil {
		return bar, fmt.Errorf("bad high %q", rec[cols.high])
	}
	if bar.Low, err = strconv.ParseFloat(strings.TrimSpace(rec[cols.low]), 64); err != nil {
		return bar, fmt.Errorf("bad low %q", rec[cols.low])
	}
	if bar.Close, err = strconv.ParseFloat(strings.TrimSpace(rec[cols.close]), 64); err != nil {
		return bar, fmt.Errorf("bad close %q", rec[cols.close])
	}
	return bar, nil
}
