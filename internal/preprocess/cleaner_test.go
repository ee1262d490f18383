package preprocess

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var sessionOpen = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func rawFromCloses(closes ...float64) *models.RawSeries {
	bars := make([]models.RawBar, len(closes))
	for i, c := range closes {
		bars[i] = models.RawFromBar(models.Bar{
			Timestamp: sessionOpen.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    10,
		})
	}
	return &models.RawSeries{Symbol: "AAPL", Location: time.UTC, Interval: 5 * time.Minute, Bars: bars}
}

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := NewCleaner(DefaultFenceMultiplier)
	require.NoError(t, err)
	return c
}

func TestNewCleaner_InvalidMultiplier(t *testing.T) {
	_, err := NewCleaner(0)
	assert.Error(t, err)

	_, err = NewCleaner(math.NaN())
	assert.Error(t, err)
}

func TestClean_FencesCloseOutlier(t *testing.T) {
	c := newTestCleaner(t)

	res, err := c.Clean(rawFromCloses(100, 101, 99, 150, 100))
	require.NoError(t, err)

	// bar 0 has no return, bar 3 has the fenced close
	require.Equal(t, 3, res.Len())
	assert.Equal(t, 101.0, res.Series.Bars[0].Close)
	assert.Equal(t, 99.0, res.Series.Bars[1].Close)
	assert.Equal(t, 100.0, res.Series.Bars[2].Close)

	require.Equal(t, 3, res.Returns.Len())
	assert.InDelta(t, math.Log(101.0/100.0), res.Returns.Values[0].V, 1e-12)
	assert.InDelta(t, math.Log(99.0/101.0), res.Returns.Values[1].V, 1e-12)
	// returns are taken before fencing, so the bar after the spike keeps ln(100/150)
	assert.InDelta(t, math.Log(100.0/150.0), res.Returns.Values[2].V, 1e-12)

	assert.Equal(t, DropCounts{FencedClose: 1, MissingReturn: 1}, res.Dropped)
}

func TestClean_DropsIncompleteBars(t *testing.T) {
	c := newTestCleaner(t)
	raw := rawFromCloses(100, 101, 102, 103)
	raw.Bars[2].Close = models.None()

	res, err := c.Clean(raw)
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.Equal(t, 1, res.Dropped.Incomplete)
	// the return after a dropped bar spans the gap
	assert.InDelta(t, math.Log(103.0/101.0), res.Returns.Values[1].V, 1e-12)
}

func TestClean_RejectsMalformedBars(t *testing.T) {
	c := newTestCleaner(t)

	tests := []struct {
		name    string
		mutate  func(s *models.RawSeries)
		wantErr error
	}{
		{
			name: "low above high",
			mutate: func(s *models.RawSeries) {
				s.Bars[1].Low = models.Some(200)
			},
			wantErr: models.ErrInvalidBar,
		},
		{
			name: "negative volume",
			mutate: func(s *models.RawSeries) {
				s.Bars[2].Volume = models.Some(-5)
			},
			wantErr: models.ErrInvalidVolume,
		},
		{
			name: "timestamps out of order",
			mutate: func(s *models.RawSeries) {
				s.Bars[2].Timestamp = s.Bars[0].Timestamp
			},
			wantErr: models.ErrNonMonotonic,
		},
		{
			name: "duplicate timestamp",
			mutate: func(s *models.RawSeries) {
				s.Bars[2].Timestamp = s.Bars[1].Timestamp
			},
			wantErr: models.ErrNonMonotonic,
		},
		{
			name: "negative volume on incomplete bar",
			mutate: func(s *models.RawSeries) {
				s.Bars[1].Close = models.None()
				s.Bars[1].Volume = models.Some(-1)
			},
			wantErr: models.ErrInvalidVolume,
		},
		{
			name: "close outside range",
			mutate: func(s *models.RawSeries) {
				s.Bars[0].Close = models.Some(500)
			},
			wantErr: models.ErrPriceOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawFromCloses(100, 101, 102, 103)
			tt.mutate(raw)

			_, err := c.Clean(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestClean_DegenerateInput(t *testing.T) {
	c := newTestCleaner(t)

	res, err := c.Clean(rawFromCloses())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, res.Returns.Len())

	res, err = c.Clean(rawFromCloses(100))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len(), "a single bar has no return")

	_, err = c.Clean(nil)
	assert.Error(t, err)
}

// alternating 100/101 closes with a spike at index 10
func spikeSeries() *models.RawSeries {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 101
		}
	}
	closes[10] = 150
	return rawFromCloses(closes...)
}

func TestClean_SpikeRemovesNeighbouringReturns(t *testing.T) {
	c := newTestCleaner(t)

	res, err := c.Clean(spikeSeries())
	require.NoError(t, err)

	// bar 0: no return, bar 10: close fenced, bar 11: return ln(101/150) fenced
	assert.Equal(t, 17, res.Len())
	assert.Equal(t, DropCounts{FencedClose: 1, FencedReturn: 1, MissingReturn: 1}, res.Dropped)
	for _, b := range res.Series.Bars {
		assert.NotEqual(t, 150.0, b.Close)
	}
}

func TestClean_LogsEveryDropCount(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Set(zap.New(core))()

	c := newTestCleaner(t)
	_, err := c.Clean(spikeSeries())
	require.NoError(t, err)

	entries := logs.FilterMessage("Cleaned bar series").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(20), fields["raw_bars"])
	assert.Equal(t, int64(17), fields["clean_bars"])
	assert.Equal(t, int64(0), fields["incomplete"])
	assert.Equal(t, int64(1), fields["fenced_close"])
	assert.Equal(t, int64(1), fields["fenced_return"])
	assert.Equal(t, int64(1), fields["missing_return"])
}

func TestFence_Idempotent(t *testing.T) {
	c := newTestCleaner(t)

	first, err := c.Clean(spikeSeries())
	require.NoError(t, err)

	second := c.Fence(first)
	assert.Equal(t, first.Series.Bars, second.Series.Bars)
	assert.Equal(t, first.Returns.Values, second.Returns.Values)
	assert.Equal(t, first.Dropped, second.Dropped)
}

func TestFence_NoOpOnRandomWalks(t *testing.T) {
	c := newTestCleaner(t)

	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		closes := make([]float64, 780)
		price := 100.0
		for i := range closes {
			price *= math.Exp(rng.NormFloat64() * 0.002)
			closes[i] = price
		}

		first, err := c.Clean(rawFromCloses(closes...))
		require.NoError(t, err)

		second := c.Fence(first)
		require.Equal(t, first.Series.Bars, second.Series.Bars, "seed %d", seed)
		require.Equal(t, first.Returns.Values, second.Returns.Values, "seed %d", seed)
		require.Equal(t, first.Dropped, second.Dropped, "seed %d", seed)
	}
}

func TestClean_RefencesUntilStable(t *testing.T) {
	c := newTestCleaner(t)

	// each pass tightens the close fence: 110 goes first, then 106, then 103
	res, err := c.Clean(rawFromCloses(102, 110, 100, 101, 101, 106, 100, 103, 100, 101))
	require.NoError(t, err)

	closes := make([]float64, 0, res.Len())
	for _, b := range res.Series.Bars {
		closes = append(closes, b.Close)
	}
	assert.Equal(t, []float64{100, 101, 101, 100, 100, 101}, closes)
	assert.Equal(t, DropCounts{FencedClose: 3, MissingReturn: 1}, res.Dropped)

	// returns stay relative to the original predecessors
	require.Equal(t, 6, res.Returns.Len())
	assert.InDelta(t, math.Log(100.0/110.0), res.Returns.At(0).V, 1e-12)
	assert.InDelta(t, math.Log(100.0/106.0), res.Returns.At(3).V, 1e-12)
	assert.InDelta(t, math.Log(100.0/103.0), res.Returns.At(4).V, 1e-12)

	again := c.Fence(res)
	assert.Equal(t, res.Series.Bars, again.Series.Bars)
	assert.Equal(t, res.Dropped, again.Dropped)
}

func TestClean_EveryBarHasCloseAndReturn(t *testing.T) {
	c := newTestCleaner(t)

	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/7) + 0.5*math.Cos(float64(i)*1.3)
	}
	closes[120] = 180
	closes[250] = 40
	raw := rawFromCloses(closes...)
	raw.Bars[17].Open = models.None()

	res, err := c.Clean(raw)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Len(), len(raw.Bars))
	require.Equal(t, res.Len(), res.Returns.Len())
	for i := range res.Series.Bars {
		assert.True(t, res.Returns.At(i).Valid, "return %d undefined", i)
		assert.Greater(t, res.Series.Bars[i].Close, 0.0)
	}
	assert.Equal(t, len(raw.Bars)-res.Len(), res.Dropped.Total())
}

func TestFenceValues_IgnoresUndefined(t *testing.T) {
	in := []models.Value{models.None(), models.Some(1), models.Some(2), models.Some(3), models.Some(4), models.Some(100)}

	out := FenceValues(in, 1.5)

	require.Len(t, out, len(in))
	assert.False(t, out[0].Valid)
	assert.False(t, out[5].Valid)
	assert.Equal(t, models.Some(3), out[3])
	assert.True(t, in[5].Valid, "input must not be modified")
}
