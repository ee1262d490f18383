package statistics

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/internal/preprocess"
	"github.com/mohamedkhairy/intraday-volatility/pkg/stats"
)

const (
	// DefaultBarsPerDay is the number of 5-minute bars in a 6.5h session
	DefaultBarsPerDay = 78
	// DefaultTradingDays is the number of trading days per year
	DefaultTradingDays = 252
)

// Engine computes per-day and whole-series statistics from a cleaned series
type Engine struct {
	BarsPerDay  float64
	TradingDays float64
}

// NewEngine creates a statistics engine with the given annualization constants
func NewEngine(barsPerDay, tradingDays float64) (*Engine, error) {
	if barsPerDay <= 0 || math.IsNaN(barsPerDay) {
		return nil, fmt.Errorf("bars per day must be positive, got %v", barsPerDay)
	}
	if tradingDays <= 0 || math.IsNaN(tradingDays) {
		return nil, fmt.Errorf("trading days must be positive, got %v", tradingDays)
	}
	return &Engine{BarsPerDay: barsPerDay, TradingDays: tradingDays}, nil
}

// dayGroup holds the bar indices of one calendar date
type dayGroup struct {
	date    string
	indices []int
}

// groupByDate buckets bar indices by calendar date, in first-seen order
func groupByDate(series *models.BarSeries) []dayGroup {
	groups := make([]dayGroup, 0)
	pos := make(map[string]int)
	for i := range series.Bars {
		key := series.DateKey(i)
		idx, ok := pos[key]
		if !ok {
			idx = len(groups)
			pos[key] = idx
			groups = append(groups, dayGroup{date: key})
		}
		groups[idx].indices = append(groups[idx].indices, i)
	}
	return groups
}

// Daily returns one DailyStat per calendar date present, ordered by date
func (e *Engine) Daily(c *preprocess.Cleaned) []models.DailyStat {
	if c.Len() == 0 {
		return []models.DailyStat{}
	}

	series := c.Series
	groups := groupByDate(series)
	dailyFactor := stats.AnnualizationFactor(e.BarsPerDay)

	out := make([]models.DailyStat, 0, len(groups))
	for _, g := range groups {
		returns := make([]float64, 0, len(g.indices))
		closes := make([]float64, 0, len(g.indices))
		volumes := make([]float64, 0, len(g.indices))
		high, low := math.Inf(-1), math.Inf(1)

		for _, i := range g.indices {
			bar := series.Bars[i]
			if r := c.Returns.At(i); r.Valid {
				returns = append(returns, r.V)
			}
			closes = append(closes, bar.Close)
			volumes = append(volumes, bar.Volume)
			high = math.Max(high, bar.High)
			low = math.Min(low, bar.Low)
		}

		stat := models.DailyStat{
			Date:        g.date,
			Start:       series.LocalTime(g.indices[0]),
			Bars:        len(g.indices),
			TotalVolume: stats.Sum(volumes),
			PriceRange:  models.Some(high - low),
		}
		if len(returns) > 0 {
			stat.Return = models.Some(stats.Sum(returns))
		}
		if sd, ok := stats.StdDev(returns); ok {
			stat.Volatility = models.Some(sd * dailyFactor)
		}
		if sk, ok := stats.Skewness(returns); ok {
			stat.Skewness = models.Some(sk)
		}
		if m, ok := stats.Mean(volumes); ok {
			stat.AvgVolume = models.Some(m)
		}
		if m, ok := stats.Mean(closes); ok {
			stat.AvgPrice = models.Some(m)
		}
		out = append(out, stat)
	}
	return out
}

// Summary returns whole-series statistics; fields are undefined on empty input
func (e *Engine) Summary(c *preprocess.Cleaned) models.SummaryStat {
	summary := models.SummaryStat{}
	if c.Len() == 0 {
		return summary
	}

	series := c.Series
	summary.Bars = series.Len()
	summary.Days = len(groupByDate(series))
	summary.Start = series.LocalTime(0)
	summary.End = series.LocalTime(series.Len() - 1)

	returns := c.Returns.Defined()
	volumes := make([]float64, series.Len())
	for i, b := range series.Bars {
		volumes[i] = b.Volume
	}

	if m, ok := stats.Mean(returns); ok {
		summary.MeanReturn = models.Some(m)
	}
	if sd, ok := stats.StdDev(returns); ok {
		summary.Volatility = models.Some(sd * stats.AnnualizationFactor(e.TradingDays*e.BarsPerDay))
	}
	if sk, ok := stats.Skewness(returns); ok {
		summary.Skewness = models.Some(sk)
	}
	if m, ok := stats.Mean(volumes); ok {
		summary.MeanVolume = models.Some(m)
	}
	return summary
}
