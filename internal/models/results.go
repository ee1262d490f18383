package models

import "time"

// DailyStat aggregates one calendar date of a cleaned series
type DailyStat struct {
	Date        string    `json:"date"`
	Start       time.Time `json:"start"`
	Bars        int       `json:"bars"`
	Return      Value     `json:"return"`
	Volatility  Value     `json:"volatility"`
	Skewness    Value     `json:"skewness"`
	TotalVolume float64   `json:"total_volume"`
	AvgVolume   Value     `json:"avg_volume"`
	AvgPrice    Value     `json:"avg_price"`
	PriceRange  Value     `json:"price_range"`
}

// SummaryStat aggregates the whole cleaned series
type SummaryStat struct {
	Bars       int       `json:"bars"`
	Days       int       `json:"days"`
	Start      time.Time `json:"start,omitempty"`
	End        time.Time `json:"end,omitempty"`
	MeanReturn Value     `json:"mean_return"`
	Volatility Value     `json:"volatility"`
	Skewness   Value     `json:"skewness"`
	MeanVolume Value     `json:"mean_volume"`
}

// AnomalyRecord references a bar of the source series by index and timestamp
type AnomalyRecord struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	ZScore    float64   `json:"z_score"`
}

// HourBucket aggregates all bars that start in one hour of the day
type HourBucket struct {
	Hour          int   `json:"hour"`
	Bars          int   `json:"bars"`
	AvgVolatility Value `json:"avg_volatility"`
	AvgVolume     Value `json:"avg_volume"`
	AvgPrice      Value `json:"avg_price"`
}
