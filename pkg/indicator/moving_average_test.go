package indicator

import (
	"testing"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeSeries(closes ...float64) *models.BarSeries {
	start := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    100,
		}
	}
	return models.NewBarSeries("AAPL", time.UTC, 5*time.Minute, bars)
}

func TestMovingAverage_New(t *testing.T) {
	ma, err := NewMovingAverage(20)
	require.NoError(t, err)
	assert.Equal(t, "ma_20", ma.Name())
	assert.False(t, ma.IsReady())

	_, err = NewMovingAverage(0)
	assert.Error(t, err)
}

func TestMovingAverage_LeadingUndefined(t *testing.T) {
	ma, _ := NewMovingAverage(3)

	out, err := Run(ma, closeSeries(1, 2, 3, 4, 5), nil)
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())

	assert.False(t, out.Values[0].Valid)
	assert.False(t, out.Values[1].Valid)
	assert.InDelta(t, 2.0, out.Values[2].V, 1e-12)
	assert.InDelta(t, 3.0, out.Values[3].V, 1e-12)
	assert.InDelta(t, 4.0, out.Values[4].V, 1e-12)
}

func TestMovingAverage_ConstantPrice(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 187.43
	}
	ma, _ := NewMovingAverage(20)

	out, err := Run(ma, closeSeries(closes...), nil)
	require.NoError(t, err)

	for i, v := range out.Values {
		if i < 19 {
			assert.False(t, v.Valid, "position %d", i)
			continue
		}
		require.True(t, v.Valid, "position %d", i)
		assert.InDelta(t, 187.43, v.V, 1e-9)
	}
}

func TestMovingAverage_RollingWindow(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	ma, _ := NewMovingAverage(5)

	_, err := Run(ma, closeSeries(closes...), nil)
	require.NoError(t, err)

	val, err := ma.Value()
	require.NoError(t, err)
	assert.InDelta(t, (105.0+106.0+107.0+108.0+109.0)/5.0, val, 1e-9)
}

func TestMovingAverage_Reset(t *testing.T) {
	ma, _ := NewMovingAverage(2)
	_, _ = Run(ma, closeSeries(1, 2, 3), nil)
	require.True(t, ma.IsReady())

	ma.Reset()
	assert.False(t, ma.IsReady())

	_, err := ma.Value()
	assert.Error(t, err)
}

func TestMovingAverage_RejectsOutOfOrderBars(t *testing.T) {
	ma, _ := NewMovingAverage(2)
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := ma.Update(Point{Bar: models.Bar{Timestamp: now, Close: 1}})
	require.NoError(t, err)

	_, err = ma.Update(Point{Bar: models.Bar{Timestamp: now.Add(-time.Minute), Close: 1}})
	assert.Error(t, err)
}
