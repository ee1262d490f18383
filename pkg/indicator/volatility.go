package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/stats"
)

// RollingVolatility calculates annualized volatility over a trailing window of returns
// Volatility = SampleStdDev(last N returns) * sqrt(periods per year)
type RollingVolatility struct {
	window  int
	factor  float64
	name    string
	returns []models.Value // Rolling window of returns
	last    models.Value
}

// NewRollingVolatility creates a rolling volatility calculator. periodsPerYear
// is bars per day times trading days per year.
func NewRollingVolatility(window int, periodsPerYear float64) (*RollingVolatility, error) {
	if window < 2 {
		return nil, fmt.Errorf("volatility window must be at least 2, got %d", window)
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("periods per year must be positive, got %v", periodsPerYear)
	}

	return &RollingVolatility{
		window:  window,
		factor:  stats.AnnualizationFactor(periodsPerYear),
		name:    fmt.Sprintf("volatility_%d", window),
		returns: make([]models.Value, 0, window),
	}, nil
}

// Name returns the indicator name
func (v *RollingVolatility) Name() string {
	return v.name
}

// Update adds the point's return to the window. The value is recomputed from
// the full window at every position and is undefined until the window is
// full or while any return in it is undefined.
func (v *RollingVolatility) Update(p Point) (models.Value, error) {
	v.returns = append(v.returns, p.Return)

	if len(v.returns) > v.window {
		copy(v.returns, v.returns[1:])
		v.returns = v.returns[:len(v.returns)-1]
	}

	v.last = models.None()
	if len(v.returns) < v.window {
		return v.last, nil
	}

	xs := make([]float64, 0, v.window)
	for _, r := range v.returns {
		if !r.Valid {
			return v.last, nil
		}
		xs = append(xs, r.V)
	}

	if sd, ok := stats.StdDev(xs); ok {
		v.last = models.Some(sd * v.factor)
	}
	return v.last, nil
}

// Value returns the volatility at the last processed position
func (v *RollingVolatility) Value() (float64, error) {
	if !v.last.Valid {
		return 0, fmt.Errorf("volatility not ready: need %d defined returns", v.window)
	}
	return v.last.V, nil
}

// Reset clears the calculator state
func (v *RollingVolatility) Reset() {
	v.returns = v.returns[:0]
	v.last = models.None()
}

// IsReady returns true if the last position produced a value
func (v *RollingVolatility) IsReady() bool {
	return v.last.Valid
}
