package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// TechanCalculator wraps a Techan indicator to implement Calculator interface.
// The indicator is built over the calculator's own TimeSeries, so every
// Update is visible to it.
type TechanCalculator struct {
	name      string
	build     func(series *techan.TimeSeries) techan.Indicator
	series    *techan.TimeSeries
	indicator techan.Indicator
	period    int
	last      models.Value
}

// NewTechanCalculator creates a new Techan-based calculator. build is called
// with a fresh TimeSeries on creation and on every Reset.
func NewTechanCalculator(
	name string,
	build func(series *techan.TimeSeries) techan.Indicator,
	period int,
) *TechanCalculator {
	t := &TechanCalculator{
		name:   name,
		build:  build,
		period: period,
	}
	t.Reset()
	return t
}

// NewMovingAverage creates a simple trailing moving average of close over k bars
func NewMovingAverage(k int) (*TechanCalculator, error) {
	if k < 1 {
		return nil, fmt.Errorf("moving average period must be at least 1, got %d", k)
	}
	return NewTechanCalculator(
		MovingAverageName(k),
		func(series *techan.TimeSeries) techan.Indicator {
			return techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(series), k)
		},
		k,
	), nil
}

// MovingAverageName returns the derived series name for a k-bar moving average
func MovingAverageName(k int) string {
	return fmt.Sprintf("ma_%d", k)
}

func (t *TechanCalculator) Name() string {
	return t.name
}

func (t *TechanCalculator) Update(p Point) (models.Value, error) {
	bar := p.Bar

	// Zero-length periods: only the ordering of candles matters here
	candle := techan.NewCandle(techan.NewTimePeriod(bar.Timestamp, 0))
	candle.OpenPrice = big.NewDecimal(bar.Open)
	candle.MaxPrice = big.NewDecimal(bar.High)
	candle.MinPrice = big.NewDecimal(bar.Low)
	candle.ClosePrice = big.NewDecimal(bar.Close)
	candle.Volume = big.NewDecimal(bar.Volume)

	if !t.series.AddCandle(candle) {
		return models.None(), fmt.Errorf("%s: bar at %s is not after the previous bar", t.name, bar.Timestamp)
	}

	lastIndex := t.series.LastIndex()
	if lastIndex+1 < t.period {
		t.last = models.None()
		return t.last, nil
	}

	t.last = models.Some(t.indicator.Calculate(lastIndex).Float())
	return t.last, nil
}

func (t *TechanCalculator) Value() (float64, error) {
	if !t.last.Valid {
		return 0, fmt.Errorf("indicator not ready: need at least %d bars", t.period)
	}
	return t.last.V, nil
}

func (t *TechanCalculator) Reset() {
	t.series = techan.NewTimeSeries()
	t.indicator = t.build(t.series)
	t.last = models.None()
}

func (t *TechanCalculator) IsReady() bool {
	return t.last.Valid
}
