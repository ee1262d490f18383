package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/intraday-volatility/internal/models"
)

// EngineConfig configures the indicator engine
type EngineConfig struct {
	VolatilityWindow int
	MAWindows        []int
	BarsPerDay       float64
	TradingDays      float64
}

// DefaultEngineConfig returns the default configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		VolatilityWindow: 10,
		MAWindows:        []int{20, 50},
		BarsPerDay:       78,
		TradingDays:      252,
	}
}

// Indicators holds the derived series of one run, each aligned to the cleaned series
type Indicators struct {
	Volatility     *models.DerivedSeries
	VWAP           *models.DerivedSeries
	MovingAverages map[int]*models.DerivedSeries
	MAWindows      []int
}

// Engine computes rolling volatility, session VWAP and moving averages
type Engine struct {
	config         EngineConfig
	registry       *Registry
	volatilityName string
}

// NewEngine creates an engine and registers its calculators
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.BarsPerDay <= 0 || config.TradingDays <= 0 {
		return nil, fmt.Errorf("annualization constants must be positive (bars per day %v, trading days %v)",
			config.BarsPerDay, config.TradingDays)
	}
	periodsPerYear := config.BarsPerDay * config.TradingDays

	// Validates the window before anything is registered
	probe, err := NewRollingVolatility(config.VolatilityWindow, periodsPerYear)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:         config,
		registry:       NewRegistry(),
		volatilityName: probe.Name(),
	}

	if err := e.registry.Register(probe.Name(), func(*models.BarSeries) (Calculator, error) {
		return NewRollingVolatility(config.VolatilityWindow, periodsPerYear)
	}); err != nil {
		return nil, err
	}

	if err := e.registry.Register("vwap", func(series *models.BarSeries) (Calculator, error) {
		return NewVWAP(series.Loc()), nil
	}); err != nil {
		return nil, err
	}

	for _, k := range config.MAWindows {
		k := k
		if _, err := NewMovingAverage(k); err != nil {
			return nil, err
		}
		if err := e.registry.Register(MovingAverageName(k), func(*models.BarSeries) (Calculator, error) {
			return NewMovingAverage(k)
		}); err != nil {
			return nil, fmt.Errorf("moving average windows: %w", err)
		}
	}

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Compute runs every registered calculator across series. The calculators
// are independent of each other.
func (e *Engine) Compute(series *models.BarSeries, returns *models.DerivedSeries) (*Indicators, error) {
	if returns.Len() != series.Len() {
		return nil, fmt.Errorf("returns length %d does not match series length %d", returns.Len(), series.Len())
	}

	derived := make(map[string]*models.DerivedSeries)
	for _, name := range e.registry.List() {
		calc, err := e.registry.Create(name, series)
		if err != nil {
			return nil, err
		}
		out, err := Run(calc, series, returns)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", name, err)
		}
		derived[name] = out
	}

	result := &Indicators{
		Volatility:     derived[e.volatilityName],
		VWAP:           derived["vwap"],
		MovingAverages: make(map[int]*models.DerivedSeries, len(e.config.MAWindows)),
		MAWindows:      append([]int(nil), e.config.MAWindows...),
	}
	for _, k := range e.config.MAWindows {
		result.MovingAverages[k] = derived[MovingAverageName(k)]
	}
	return result, nil
}
