package preprocess

import (
	"fmt"
	"math"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
	"github.com/mohamedkhairy/intraday-volatility/pkg/stats"
)

// DefaultFenceMultiplier is the Tukey IQR fence multiplier
const DefaultFenceMultiplier = 1.5

// ReturnsName is the DerivedSeries name of log returns
const ReturnsName = "return"

// DropCounts records why bars were removed during cleaning
type DropCounts struct {
	Incomplete    int `json:"incomplete"`
	FencedClose   int `json:"fenced_close"`
	FencedReturn  int `json:"fenced_return"`
	MissingReturn int `json:"missing_return"`
}

// Total returns the number of removed bars
func (d DropCounts) Total() int {
	return d.Incomplete + d.FencedClose + d.FencedReturn + d.MissingReturn
}

// Cleaned is the Preprocessor output: a series in which every bar has a
// defined close and a defined log return, plus the aligned returns.
type Cleaned struct {
	Series  *models.BarSeries
	Returns *models.DerivedSeries
	Dropped DropCounts
}

// Len returns the number of cleaned bars
func (c *Cleaned) Len() int {
	if c == nil {
		return 0
	}
	return c.Series.Len()
}

// Cleaner validates raw bars, computes log returns and removes IQR outliers
type Cleaner struct {
	FenceMultiplier float64
}

// NewCleaner creates a cleaner with the given fence multiplier
func NewCleaner(multiplier float64) (*Cleaner, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("fence multiplier must be positive, got %v", multiplier)
	}
	return &Cleaner{FenceMultiplier: multiplier}, nil
}

// Clean runs the full preprocessing pass over a raw series.
//
// Malformed bars are rejected with an error wrapping one of the models
// sentinel errors. Bars with a missing field are dropped silently. An empty
// result is valid.
func (c *Cleaner) Clean(raw *models.RawSeries) (*Cleaned, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw series cannot be nil")
	}
	if err := validate(raw.Bars); err != nil {
		return nil, err
	}

	var dropped DropCounts
	complete := make([]models.Bar, 0, len(raw.Bars))
	for i := range raw.Bars {
		bar, ok := raw.Bars[i].Complete()
		if !ok {
			dropped.Incomplete++
			continue
		}
		complete = append(complete, bar)
	}

	returns := LogReturns(complete)
	closes := make([]models.Value, len(complete))
	for i, b := range complete {
		closes[i] = models.Some(b.Close)
	}

	series := models.NewBarSeries(raw.Symbol, raw.Location, raw.Interval, complete)
	result := c.fenceAndDrop(series, closes, returns, dropped)

	logger.Debug("Cleaned bar series",
		logger.String("symbol", raw.Symbol),
		logger.Int("raw_bars", len(raw.Bars)),
		logger.Int("clean_bars", result.Len()),
		logger.Int("incomplete", result.Dropped.Incomplete),
		logger.Int("fenced_close", result.Dropped.FencedClose),
		logger.Int("fenced_return", result.Dropped.FencedReturn),
		logger.Int("missing_return", result.Dropped.MissingReturn),
	)

	return result, nil
}

// Fence re-applies outlier fencing to an already cleaned result, keeping its
// returns. Clean fences until a pass removes nothing, so on a result produced
// by Clean this is a no-op.
func (c *Cleaner) Fence(in *Cleaned) *Cleaned {
	if in == nil {
		return nil
	}
	closes := in.Series.Closes()
	returns := make([]models.Value, len(in.Returns.Values))
	copy(returns, in.Returns.Values)
	return c.fenceAndDrop(in.Series, closes, returns, in.Dropped)
}

// fenceAndDrop drops every bar whose close or return falls outside the fence
// and repeats on the survivors until a pass drops nothing. Survivors keep the
// returns computed against their original predecessors.
func (c *Cleaner) fenceAndDrop(series *models.BarSeries, closes, returns []models.Value, dropped DropCounts) *Cleaned {
	bars := series.Bars
	for {
		fencedCloses := FenceValues(closes, c.FenceMultiplier)
		fencedReturns := FenceValues(returns, c.FenceMultiplier)

		keptBars := make([]models.Bar, 0, len(bars))
		keptCloses := make([]models.Value, 0, len(bars))
		keptReturns := make([]models.Value, 0, len(bars))
		for i, bar := range bars {
			switch {
			case !fencedCloses[i].Valid:
				dropped.FencedClose++
			case !returns[i].Valid:
				dropped.MissingReturn++
			case !fencedReturns[i].Valid:
				dropped.FencedReturn++
			default:
				keptBars = append(keptBars, bar)
				keptCloses = append(keptCloses, closes[i])
				keptReturns = append(keptReturns, returns[i])
			}
		}

		stable := len(keptBars) == len(bars)
		bars, closes, returns = keptBars, keptCloses, keptReturns
		if stable {
			break
		}
	}

	return &Cleaned{
		Series:  models.NewBarSeries(series.Symbol, series.Location, series.Interval, bars),
		Returns: &models.DerivedSeries{Name: ReturnsName, Values: returns},
		Dropped: dropped,
	}
}

// LogReturns returns ln(close[i]) - ln(close[i-1]) aligned to bars; the first
// position has no prior bar and is undefined.
func LogReturns(bars []models.Bar) []models.Value {
	out := make([]models.Value, len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = models.Some(math.Log(bars[i].Close) - math.Log(bars[i-1].Close))
	}
	return out
}

// FenceValues marks every defined value outside [Q1 - k*IQR, Q3 + k*IQR] as
// undefined. Quartiles are taken over the defined values only. The input is
// not modified and the output keeps its length.
func FenceValues(values []models.Value, k float64) []models.Value {
	out := make([]models.Value, len(values))
	copy(out, values)

	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			defined = append(defined, v.V)
		}
	}
	q1, q3, ok := stats.Quartiles(defined)
	if !ok {
		return out
	}

	h := k * (q3 - q1)
	lower, upper := q1-h, q3+h
	for i, v := range out {
		if v.Valid && (v.V < lower || v.V > upper) {
			out[i] = models.None()
		}
	}
	return out
}

// validate rejects series that would corrupt downstream statistics
func validate(bars []models.RawBar) error {
	for i := range bars {
		raw := &bars[i]
		if raw.Timestamp.IsZero() {
			return fmt.Errorf("bar %d: %w", i, models.ErrInvalidTimestamp)
		}
		if i > 0 && !raw.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d at %s follows %s: %w",
				i, raw.Timestamp.Format(time.RFC3339),
				bars[i-1].Timestamp.Format(time.RFC3339), models.ErrNonMonotonic)
		}
		if raw.Volume.Valid && raw.Volume.V < 0 {
			return fmt.Errorf("bar %d at %s: %w", i, raw.Timestamp.Format(time.RFC3339), models.ErrInvalidVolume)
		}
		if raw.High.Valid && raw.Low.Valid && raw.High.V < raw.Low.V {
			return fmt.Errorf("bar %d at %s: %w", i, raw.Timestamp.Format(time.RFC3339), models.ErrInvalidBar)
		}
		bar, ok := raw.Complete()
		if !ok {
			continue
		}
		if err := bar.Validate(); err != nil {
			return fmt.Errorf("bar %d at %s: %w", i, raw.Timestamp.Format(time.RFC3339), err)
		}
	}
	return nil
}
