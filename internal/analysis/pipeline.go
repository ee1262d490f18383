package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedkhairy/intraday-volatility/internal/anomaly"
	"github.com/mohamedkhairy/intraday-volatility/internal/intraday"
	"github.com/mohamedkhairy/intraday-volatility/internal/models"
	"github.com/mohamedkhairy/intraday-volatility/pkg/indicator"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
)

// Pipeline runs the full analysis over one raw series. A Pipeline holds no
// per-run state and may be shared by concurrent callers.
type Pipeline struct {
	params Params
	stages *stages
}

// NewPipeline creates a pipeline with validated parameters
func NewPipeline(params Params) (*Pipeline, error) {
	params.MAWindows = append([]int(nil), params.MAWindows...)
	s, err := newStages(params)
	if err != nil {
		return nil, err
	}
	return &Pipeline{params: params, stages: s}, nil
}

// Params returns the parameters used by every run
func (p *Pipeline) Params() Params {
	return p.params
}

// Run cleans raw and derives statistics, indicators, anomalies and hourly
// buckets from it. Only malformed input bars produce an error.
func (p *Pipeline) Run(ctx context.Context, raw *models.RawSeries) (*Report, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.WithContext(ctx)

	report, err := p.run(ctx, raw)
	elapsed := time.Since(start)
	analysisRunDuration.Observe(elapsed.Seconds())

	if err != nil {
		analysisRunsTotal.WithLabelValues("error").Inc()
		log.Warn("Analysis run failed", logger.ErrorField(err))
		return nil, err
	}
	analysisRunsTotal.WithLabelValues("success").Inc()

	report.RunID = runID
	report.GeneratedAt = start.UTC()
	report.Elapsed = elapsed

	log.Info("Analysis run completed",
		logger.String("symbol", report.Symbol),
		logger.Int("raw_bars", report.RawBars),
		logger.Int("clean_bars", len(report.Bars)),
		logger.Int("days", len(report.Daily)),
		logger.Int("anomalies", len(report.Anomalies)),
		logger.Duration("elapsed", elapsed),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, raw *models.RawSeries) (*Report, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw series cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.WithContext(ctx)

	cleaned, err := p.stages.cleaner.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("preprocess %s: %w", raw.Symbol, err)
	}
	analysisBarsTotal.WithLabelValues("raw").Add(float64(len(raw.Bars)))
	analysisBarsTotal.WithLabelValues("clean").Add(float64(cleaned.Len()))
	analysisDroppedBarsTotal.WithLabelValues("incomplete").Add(float64(cleaned.Dropped.Incomplete))
	analysisDroppedBarsTotal.WithLabelValues("fenced_close").Add(float64(cleaned.Dropped.FencedClose))
	analysisDroppedBarsTotal.WithLabelValues("fenced_return").Add(float64(cleaned.Dropped.FencedReturn))
	analysisDroppedBarsTotal.WithLabelValues("missing_return").Add(float64(cleaned.Dropped.MissingReturn))

	report := &Report{
		Symbol:   raw.Symbol,
		Timezone: cleaned.Series.Loc().String(),
		Interval: raw.Interval.String(),
		Params:   p.params,
		RawBars:  len(raw.Bars),
		Dropped:  cleaned.Dropped,
	}

	// Statistics and indicators both read the cleaned series only
	var ind *indicator.Indicators
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Daily = p.stages.statistics.Daily(cleaned)
		report.Summary = p.stages.statistics.Summary(cleaned)
		log.Debug("Computed statistics", logger.Int("days", len(report.Daily)))
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		ind, err = p.stages.indicators.Compute(cleaned.Series, cleaned.Returns)
		if err != nil {
			return fmt.Errorf("indicators: %w", err)
		}
		log.Debug("Computed indicators", logger.Int("ma_windows", len(ind.MAWindows)))
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zscores := anomaly.ZScores(cleaned.Returns)
	report.Anomalies = p.stages.detector.Select(cleaned.Series, zscores)
	report.Hourly = intraday.Aggregate(cleaned.Series, ind.Volatility)
	report.Bars = annotate(cleaned, ind, zscores, report.Anomalies)
	analysisAnomaliesTotal.Add(float64(len(report.Anomalies)))

	return report, nil
}
