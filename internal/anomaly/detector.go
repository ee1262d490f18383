package anomaly

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/stats"
)

// DefaultThreshold is the default absolute z-score cut-off
const DefaultThreshold = 2.0

// ZScoreName is the DerivedSeries name of return z-scores
const ZScoreName = "z_score"

// Detector flags bars whose return is unusually far from the series mean
type Detector struct {
	Threshold float64
}

// NewDetector creates a detector with the given absolute z-score threshold
func NewDetector(threshold float64) (*Detector, error) {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("z-score threshold must be a non-negative number, got %v", threshold)
	}
	return &Detector{Threshold: threshold}, nil
}

// ZScores standardizes every defined return against the mean and sample
// standard deviation of all defined returns. Both parameters are fixed for
// the whole series. Every position is undefined when the deviation is
// undefined or zero.
func ZScores(returns *models.DerivedSeries) *models.DerivedSeries {
	out := models.NewDerivedSeries(ZScoreName, returns.Len())

	defined := returns.Defined()
	mean, ok := stats.Mean(defined)
	if !ok {
		return out
	}
	sd, ok := stats.StdDev(defined)
	if !ok {
		return out
	}

	for i, r := range returns.Values {
		if !r.Valid {
			continue
		}
		if z, ok := stats.ZScore(r.V, mean, sd); ok {
			out.Values[i] = models.Some(z)
		}
	}
	return out
}

// Detect returns an AnomalyRecord for every bar with |z| > Threshold, in time order
func (d *Detector) Detect(series *models.BarSeries, returns *models.DerivedSeries) []models.AnomalyRecord {
	return d.Select(series, ZScores(returns))
}

// Select picks the anomalies from precomputed z-scores
func (d *Detector) Select(series *models.BarSeries, zscores *models.DerivedSeries) []models.AnomalyRecord {
	records := make([]models.AnomalyRecord, 0)
	for i, z := range zscores.Values {
		if !z.Valid || math.Abs(z.V) <= d.Threshold || i >= series.Len() {
			continue
		}
		records = append(records, models.AnomalyRecord{
			Index:     i,
			Timestamp: series.Bars[i].Timestamp,
			ZScore:    z.V,
		})
	}
	return records
}
