package indicator

import (
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// Point is one position of a cleaned series: the bar and its log return
type Point struct {
	Bar    models.Bar
	Return models.Value
}

// Calculator is the interface for computing a per-bar derived series.
// Each indicator type implements this interface.
type Calculator interface {
	// Name returns the unique name of this indicator (e.g., "ma_20", "volatility_10")
	Name() string

	// Update processes the next point and returns the indicator value at that
	// position, undefined if not enough data has been seen
	Update(p Point) (models.Value, error)

	// Value returns the current indicator value
	// Returns 0 and error if not enough data has been processed
	Value() (float64, error)

	// Reset clears the indicator state
	Reset()

	// IsReady returns true if the indicator has enough data to produce a valid value
	IsReady() bool
}

// Run feeds every position of series through calc and returns the aligned
// derived series. returns may be nil for calculators that only read bars.
func Run(calc Calculator, series *models.BarSeries, returns *models.DerivedSeries) (*models.DerivedSeries, error) {
	calc.Reset()
	out := models.NewDerivedSeries(calc.Name(), series.Len())
	for i, bar := range series.Bars {
		v, err := calc.Update(Point{Bar: bar, Return: returns.At(i)})
		if err != nil {
			return nil, err
		}
		out.Values[i] = v
	}
	return out, nil
}
