package intraday

import (
	"sort"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/stats"
)

// Aggregate buckets bars by hour of day in the series location and averages
// volatility, volume and close within each bucket. Undefined volatility values
// are ignored. Only hours that contain at least one bar are returned, ascending.
func Aggregate(series *models.BarSeries, volatility *models.DerivedSeries) []models.HourBucket {
	type bucket struct {
		vols    []float64
		volumes []float64
		closes  []float64
	}

	buckets := make(map[int]*bucket)
	for i, bar := range series.Bars {
		hour := series.LocalTime(i).Hour()
		b, ok := buckets[hour]
		if !ok {
			b = &bucket{}
			buckets[hour] = b
		}
		if v, ok := volatility.At(i).Get(); ok {
			b.vols = append(b.vols, v)
		}
		b.volumes = append(b.volumes, bar.Volume)
		b.closes = append(b.closes, bar.Close)
	}

	hours := make([]int, 0, len(buckets))
	for h := range buckets {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := make([]models.HourBucket, 0, len(hours))
	for _, h := range hours {
		b := buckets[h]
		out = append(out, models.HourBucket{
			Hour:          h,
			Bars:          len(b.closes),
			AvgVolatility: mean(b.vols),
			AvgVolume:     mean(b.volumes),
			AvgPrice:      mean(b.closes),
		})
	}
	return out
}

func mean(xs []float64) models.Value {
	m, ok := stats.Mean(xs)
	if !ok {
		return models.None()
	}
	return models.Some(m)
}
