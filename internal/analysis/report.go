package analysis

import (
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/internal/preprocess"
	"github.com/mohamedkhairy/intraday-volatility/pkg/indicator"
)

// AnnotatedBar is one cleaned bar with every derived value attached
type AnnotatedBar struct {
	models.Bar
	Return         models.Value            `json:"return"`
	Volatility     models.Value            `json:"volatility"`
	VWAP           models.Value            `json:"vwap"`
	MovingAverages map[string]models.Value `json:"moving_averages"`
	ZScore         models.Value            `json:"z_score"`
	Anomaly        bool                    `json:"anomaly"`
}

// Report carries the five artifacts of one run plus its metadata
type Report struct {
	RunID       string                 `json:"run_id"`
	Symbol      string                 `json:"symbol"`
	Timezone    string                 `json:"timezone"`
	Interval    string                 `json:"interval"`
	GeneratedAt time.Time              `json:"generated_at"`
	Elapsed     time.Duration          `json:"elapsed_ns"`
	Params      Params                 `json:"params"`
	RawBars     int                    `json:"raw_bars"`
	Dropped     preprocess.DropCounts  `json:"dropped"`
	Bars        []AnnotatedBar         `json:"bars"`
	Daily       []models.DailyStat     `json:"daily"`
	Summary     models.SummaryStat     `json:"summary"`
	Anomalies   []models.AnomalyRecord `json:"anomalies"`
	Hourly      []models.HourBucket    `json:"hourly"`
}

// MovingAverageNames returns the moving average keys of each bar in window order
func (r *Report) MovingAverageNames() []string {
	names := make([]string, len(r.Params.MAWindows))
	for i, k := range r.Params.MAWindows {
		names[i] = indicator.MovingAverageName(k)
	}
	return names
}

func annotate(cleaned *preprocess.Cleaned, ind *indicator.Indicators, zscores *models.DerivedSeries, anomalies []models.AnomalyRecord) []AnnotatedBar {
	flagged := make(map[int]bool, len(anomalies))
	for _, a := range anomalies {
		flagged[a.Index] = true
	}

	out := make([]AnnotatedBar, cleaned.Len())
	for i, bar := range cleaned.Series.Bars {
		mas := make(map[string]models.Value, len(ind.MAWindows))
		for _, k := range ind.MAWindows {
			mas[indicator.MovingAverageName(k)] = ind.MovingAverages[k].At(i)
		}
		out[i] = AnnotatedBar{
			Bar:            bar,
			Return:         cleaned.Returns.At(i),
			Volatility:     ind.Volatility.At(i),
			VWAP:           ind.VWAP.At(i),
			MovingAverages: mas,
			ZScore:         zscores.At(i),
			Anomaly:        flagged[i],
		}
	}
	return out
}
