package indicator

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// VWAP calculates the session Volume Weighted Average Price
// VWAP = Sum(Close * Volume) / Sum(Volume) since the first bar of the calendar date
type VWAP struct {
	loc         *time.Location
	name        string
	session     string // Calendar date of the running sums
	priceVolume float64
	volume      float64
	last        models.Value
}

// NewVWAP creates a VWAP calculator that resets at each calendar date in loc
func NewVWAP(loc *time.Location) *VWAP {
	if loc == nil {
		loc = time.UTC
	}
	return &VWAP{
		loc:  loc,
		name: "vwap",
	}
}

// Name returns the indicator name
func (v *VWAP) Name() string {
	return v.name
}

// Update processes a new bar and updates the running session sums
func (v *VWAP) Update(p Point) (models.Value, error) {
	bar := p.Bar
	if bar.Volume < 0 {
		return models.None(), fmt.Errorf("negative volume at %s", bar.Timestamp)
	}

	day := bar.Timestamp.In(v.loc).Format(models.DateLayout)
	if day != v.session {
		v.session = day
		v.priceVolume = 0
		v.volume = 0
	}

	v.priceVolume += bar.Close * bar.Volume
	v.volume += bar.Volume

	v.last = v.calculateVWAP()
	return v.last, nil
}

// calculateVWAP computes the VWAP value; undefined while no volume has traded
func (v *VWAP) calculateVWAP() models.Value {
	if v.volume == 0 {
		return models.None()
	}
	return models.Some(v.priceVolume / v.volume)
}

// Value returns the current VWAP value
func (v *VWAP) Value() (float64, error) {
	if !v.last.Valid {
		return 0, fmt.Errorf("VWAP not ready: no volume in session")
	}
	return v.last.V, nil
}

// Reset clears the VWAP state
func (v *VWAP) Reset() {
	v.session = ""
	v.priceVolume = 0
	v.volume = 0
	v.last = models.None()
}

// IsReady returns true if the VWAP has a value for the current session
func (v *VWAP) IsReady() bool {
	return v.last.Valid
}
