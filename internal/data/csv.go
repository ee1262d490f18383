package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// ErrMalformedCSV is returned when a CSV file cannot be parsed into bars
var ErrMalformedCSV = errors.New("malformed CSV")

// csvTimeLayouts are tried in order for the timestamp column
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// CSVProvider loads bars from a local CSV file
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a CSV provider reading config.CSVPath
func NewCSVProvider(config ProviderConfig) (Provider, error) {
	if config.CSVPath == "" {
		return nil, errors.New("csv provider requires a file path")
	}
	return &CSVProvider{path: config.CSVPath}, nil
}

// Name returns the provider name
func (c *CSVProvider) Name() string { return "csv" }

// FetchBars reads the whole file and keeps the bars inside the request range
func (c *CSVProvider) FetchBars(ctx context.Context, req Request) (*models.RawSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	bars, err := ParseCSV(file, req.Location)
	if err != nil {
		return nil, err
	}
	series := Normalize(req, bars)
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("%w for %s in %s", ErrNoData, req.Symbol, c.path)
	}
	return series, nil
}

// ParseCSV reads bars from r. Columns are located by header name
// (timestamp, open, high, low, close, volume; case-insensitive). Empty cells
// are undefined fields. Timestamps without a zone are read in loc; integer
// timestamps are Unix seconds.
func ParseCSV(r io.Reader, loc *time.Location) ([]models.RawBar, error) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedCSV, err)
	}

	// Find column indices
	cols := map[string]int{"timestamp": -1, "open": -1, "high": -1, "low": -1, "close": -1, "volume": -1}
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "timestamp", "time", "datetime", "date":
			cols["timestamp"] = i
		case "open":
			cols["open"] = i
		case "high":
			cols["high"] = i
		case "low":
			cols["low"] = i
		case "close":
			cols["close"] = i
		case "volume":
			cols["volume"] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, name)
		}
	}

	bars := make([]models.RawBar, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}

		ts, err := parseCSVTime(record[cols["timestamp"]], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		bar := models.RawBar{Timestamp: ts}
		fields := []struct {
			col string
			dst *models.Value
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
			{"volume", &bar.Volume},
		}
		for _, f := range fields {
			v, err := parseCSVValue(record[cols[f.col]])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedCSV, line, f.col, err)
			}
			*f.dst = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseCSVTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).In(loc), nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseCSVValue(s string) (models.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
		return models.None(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.None(), err
	}
	return models.Some(f), nil
}
