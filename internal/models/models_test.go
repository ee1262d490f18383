package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar_Validate(t *testing.T) {
	ts := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bar     Bar
		wantErr error
	}{
		{
			name:    "valid bar",
			bar:     Bar{Timestamp: ts, Open: 150, High: 151, Low: 149, Close: 150.5, Volume: 1000},
			wantErr: nil,
		},
		{
			name:    "zero volume is allowed",
			bar:     Bar{Timestamp: ts, Open: 150, High: 150, Low: 150, Close: 150, Volume: 0},
			wantErr: nil,
		},
		{
			name:    "zero timestamp",
			bar:     Bar{Open: 150, High: 151, Low: 149, Close: 150.5, Volume: 1000},
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "non-positive price",
			bar:     Bar{Timestamp: ts, Open: 0, High: 151, Low: 149, Close: 150.5, Volume: 1000},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "high < low",
			bar:     Bar{Timestamp: ts, Open: 150, High: 149, Low: 151, Close: 150, Volume: 1000},
			wantErr: ErrInvalidBar,
		},
		{
			name:    "close above high",
			bar:     Bar{Timestamp: ts, Open: 150, High: 151, Low: 149, Close: 152, Volume: 1000},
			wantErr: ErrPriceOutOfRange,
		},
		{
			name:    "negative volume",
			bar:     Bar{Timestamp: ts, Open: 150, High: 151, Low: 149, Close: 150.5, Volume: -100},
			wantErr: ErrInvalidVolume,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestRawBar_Complete(t *testing.T) {
	ts := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	raw := RawFromBar(Bar{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10})

	bar, ok := raw.Complete()
	require.True(t, ok)
	assert.Equal(t, 1.5, bar.Close)

	raw.Volume = None()
	_, ok = raw.Complete()
	assert.False(t, ok)
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal([]Value{Some(1.25), None()})
	require.NoError(t, err)
	assert.Equal(t, "[1.25,null]", string(data))

	var decoded []Value
	require.NoError(t, json.Unmarshal([]byte(`[2.5, null]`), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, Some(2.5), decoded[0])
	assert.False(t, decoded[1].Valid)
}

func TestSome_RejectsNonFinite(t *testing.T) {
	assert.False(t, Some(math.NaN()).Valid)
	assert.False(t, Some(math.Inf(1)).Valid)
	assert.Equal(t, 3.0, None().Or(3))
}

func TestBarSeries_DateKeyUsesLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*60*60)

	// 02:00 UTC on the 5th is still the 4th in New York
	bars := []Bar{{Timestamp: time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1}}
	series := NewBarSeries("AAPL", ny, 5*time.Minute, bars)

	assert.Equal(t, "2024-03-04", series.DateKey(0))
	assert.Equal(t, 21, series.LocalTime(0).Hour())

	bars[0].Close = 99
	assert.Equal(t, 1.0, series.Bars[0].Close, "series must hold its own copy")
}

func TestDerivedSeries_AtAndDefined(t *testing.T) {
	d := NewDerivedSeries("returns", 3)
	d.Values[1] = Some(0.5)

	assert.False(t, d.At(0).Valid)
	assert.False(t, d.At(5).Valid)
	assert.Equal(t, []float64{0.5}, d.Defined())
}
