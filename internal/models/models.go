package models

import (
	"time"
)

// DateLayout is the calendar-date key used for daily grouping
const DateLayout = "2006-01-02"

// Bar represents one complete OHLCV observation
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return ErrInvalidPrice
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return ErrPriceOutOfRange
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// RawBar is a bar as delivered by a data provider; any price or volume field may be missing
type RawBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      Value     `json:"open"`
	High      Value     `json:"high"`
	Low       Value     `json:"low"`
	Close     Value     `json:"close"`
	Volume    Value     `json:"volume"`
}

// Complete returns the Bar and true when every OHLCV field is defined
func (r *RawBar) Complete() (Bar, bool) {
	if !r.Open.Valid || !r.High.Valid || !r.Low.Valid || !r.Close.Valid || !r.Volume.Valid {
		return Bar{}, false
	}
	return Bar{
		Timestamp: r.Timestamp,
		Open:      r.Open.V,
		High:      r.High.V,
		Low:       r.Low.V,
		Close:     r.Close.V,
		Volume:    r.Volume.V,
	}, true
}

// RawFromBar lifts a complete Bar into a RawBar
func RawFromBar(b Bar) RawBar {
	return RawBar{
		Timestamp: b.Timestamp,
		Open:      Some(b.Open),
		High:      Some(b.High),
		Low:       Some(b.Low),
		Close:     Some(b.Close),
		Volume:    Some(b.Volume),
	}
}

// RawSeries is the provider output for a single symbol
type RawSeries struct {
	Symbol   string
	Location *time.Location
	Interval time.Duration
	Bars     []RawBar
}

// BarSeries is an ordered, timestamp-unique sequence of complete bars.
// Stages never mutate a BarSeries; they build a new one.
type BarSeries struct {
	Symbol   string
	Location *time.Location
	Interval time.Duration
	Bars     []Bar
}

// NewBarSeries creates a series holding a copy of bars
func NewBarSeries(symbol string, loc *time.Location, interval time.Duration, bars []Bar) *BarSeries {
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return &BarSeries{
		Symbol:   symbol,
		Location: loc,
		Interval: interval,
		Bars:     cp,
	}
}

// Len returns the number of bars
func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Loc returns the series timezone, UTC when unset
func (s *BarSeries) Loc() *time.Location {
	if s == nil || s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// LocalTime returns bar i's timestamp in the series timezone
func (s *BarSeries) LocalTime(i int) time.Time {
	return s.Bars[i].Timestamp.In(s.Loc())
}

// DateKey returns bar i's calendar date in the series timezone
func (s *BarSeries) DateKey(i int) string {
	return s.LocalTime(i).Format(DateLayout)
}

// Closes returns the close prices as defined Values
func (s *BarSeries) Closes() []Value {
	out := make([]Value, s.Len())
	for i, b := range s.Bars {
		out[i] = Some(b.Close)
	}
	return out
}

// DerivedSeries is one numeric field aligned by index to a BarSeries
type DerivedSeries struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// NewDerivedSeries creates a series of n undefined values
func NewDerivedSeries(name string, n int) *DerivedSeries {
	return &DerivedSeries{
		Name:   name,
		Values: make([]Value, n),
	}
}

// Len returns the number of positions
func (d *DerivedSeries) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Values)
}

// At returns the value at i; out-of-range positions are undefined
func (d *DerivedSeries) At(i int) Value {
	if d == nil || i < 0 || i >= len(d.Values) {
		return Value{}
	}
	return d.Values[i]
}

// Defined returns the defined values in order
func (d *DerivedSeries) Defined() []float64 {
	out := make([]float64, 0, d.Len())
	for _, v := range d.Values {
		if v.Valid {
			out = append(out, v.V)
		}
	}
	return out
}
