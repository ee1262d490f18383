package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Timestamp,Open,High,Low,Close,Volume
2024-03-04 09:35:00,101,102,100,101.5,1200
2024-03-04 09:30:00,100,101,99.5,101,1500
2024-03-04 09:40:00,101.5,102,101,,900
`

func TestParseCSV(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	bars, err := ParseCSV(strings.NewReader(sampleCSV), est)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 3, 4, 9, 35, 0, 0, est), bars[0].Timestamp)
	assert.Equal(t, models.Some(101.5), bars[0].Close)
	assert.Equal(t, models.Some(1200), bars[0].Volume)
	assert.False(t, bars[2].Close.Valid, "empty cell is undefined")
}

func TestParseCSV_TimestampFormats(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"2024-03-04T14:30:00Z,1,1,1,1,1\n" +
		"1709562900,1,1,1,1,1\n"

	bars, err := ParseCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Timestamp.Equal(time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)))
	assert.True(t, bars[1].Timestamp.Equal(time.Date(2024, 3, 4, 14, 35, 0, 0, time.UTC)))
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "timestamp,open,high,low,close\n2024-03-04 09:30:00,1,1,1,1\n"},
		{"bad number", "timestamp,open,high,low,close,volume\n2024-03-04 09:30:00,1,x,1,1,1\n"},
		{"bad timestamp", "timestamp,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"},
		{"short row", "timestamp,open,high,low,close,volume\n2024-03-04 09:30:00,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), time.UTC)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCSV))
		})
	}
}

func TestCSVProvider_FetchBars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	provider, err := NewCSVProvider(ProviderConfig{CSVPath: path})
	require.NoError(t, err)

	req := weekRequest()
	series, err := provider.FetchBars(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, series.Bars, 3)
	assert.True(t, series.Bars[0].Timestamp.Before(series.Bars[1].Timestamp), "sorted ascending")
	assert.Equal(t, models.Some(101), series.Bars[0].Close)

	req.From = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	req.To = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	_, err = provider.FetchBars(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoData)
}
