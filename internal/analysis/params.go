package analysis

import (
	"fmt"

	"github.com/mohamedkhairy/intraday-volatility/internal/anomaly"
	"github.com/mohamedkhairy/intraday-volatility/internal/preprocess"
	"github.com/mohamedkhairy/intraday-volatility/internal/statistics"
	"github.com/mohamedkhairy/intraday-volatility/pkg/indicator"
)

// Params are the tunable parameters of one analysis run
type Params struct {
	FenceMultiplier  float64 `json:"fence_multiplier" yaml:"fence_multiplier"`
	VolatilityWindow int     `json:"volatility_window" yaml:"volatility_window"`
	MAWindows        []int   `json:"ma_windows" yaml:"ma_windows"`
	ZScoreThreshold  float64 `json:"zscore_threshold" yaml:"zscore_threshold"`
	BarsPerDay       float64 `json:"bars_per_day" yaml:"bars_per_day"`
	TradingDays      float64 `json:"trading_days_per_year" yaml:"trading_days_per_year"`
}

// DefaultParams returns the reference parameters for 5-minute equity bars
func DefaultParams() Params {
	return Params{
		FenceMultiplier:  preprocess.DefaultFenceMultiplier,
		VolatilityWindow: 10,
		MAWindows:        []int{20, 50},
		ZScoreThreshold:  anomaly.DefaultThreshold,
		BarsPerDay:       statistics.DefaultBarsPerDay,
		TradingDays:      statistics.DefaultTradingDays,
	}
}

// IndicatorConfig maps the parameters onto the indicator engine configuration
func (p Params) IndicatorConfig() indicator.EngineConfig {
	return indicator.EngineConfig{
		VolatilityWindow: p.VolatilityWindow,
		MAWindows:        append([]int(nil), p.MAWindows...),
		BarsPerDay:       p.BarsPerDay,
		TradingDays:      p.TradingDays,
	}
}

// Validate checks every parameter by building the stage that consumes it
func (p Params) Validate() error {
	_, err := newStages(p)
	return err
}

type stages struct {
	cleaner    *preprocess.Cleaner
	statistics *statistics.Engine
	indicators *indicator.Engine
	detector   *anomaly.Detector
}

func newStages(p Params) (*stages, error) {
	cleaner, err := preprocess.NewCleaner(p.FenceMultiplier)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	stats, err := statistics.NewEngine(p.BarsPerDay, p.TradingDays)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	indicators, err := indicator.NewEngine(p.IndicatorConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	detector, err := anomaly.NewDetector(p.ZScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return &stages{
		cleaner:    cleaner,
		statistics: stats,
		indicators: indicators,
		detector:   detector,
	}, nil
}
