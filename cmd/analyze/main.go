package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/config"
	"github.com/mohamedkhairy/intraday-volatility/internal/data"
	"github.com/mohamedkhairy/intraday-volatility/internal/export"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Flags override the environment and config file
	symbol := flag.String("symbol", "", "Ticker symbol (overrides SYMBOL)")
	provider := flag.String("provider", "", "Data provider: yahoo, polygon, csv or mock (overrides DATA_PROVIDER)")
	from := flag.String("from", "", "First date YYYY-MM-DD, inclusive (overrides DATE_FROM)")
	to := flag.String("to", "", "Last date YYYY-MM-DD, inclusive (overrides DATE_TO)")
	csvPath := flag.String("csv", "", "CSV bar file for the csv provider (overrides CSV_PATH)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides OUTPUT_DIR)")
	formats := flag.String("formats", "", "Comma-separated export formats: json,xlsx (overrides EXPORT_FORMATS)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *symbol, *provider, *from, *to, *csvPath, *outputDir, *formats)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Analysis failed", logger.ErrorField(err))
		logger.Sync()
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, symbol, provider, from, to, csvPath, outputDir, formats string) {
	if symbol != "" {
		cfg.Data.Symbol = strings.ToUpper(symbol)
	}
	if provider != "" {
		cfg.Data.Provider = strings.ToLower(provider)
	}
	if from != "" {
		cfg.Data.From = from
	}
	if to != "" {
		cfg.Data.To = to
	}
	if csvPath != "" {
		cfg.Data.CSVPath = csvPath
	}
	if outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}
	if formats != "" {
		cfg.Export.Formats = nil
		for _, f := range strings.Split(formats, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				cfg.Export.Formats = append(cfg.Export.Formats, f)
			}
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Data.Location()
	if err != nil {
		return err
	}
	fromDate, toDate, err := cfg.Data.Range(time.Now())
	if err != nil {
		return err
	}

	pipeline, err := analysis.NewPipeline(cfg.PipelineParams())
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	factory := data.NewProviderFactory()
	source, err := factory.CreateProvider(cfg.Data.Provider, cfg.Data.ProviderConfig())
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	req := data.Request{
		Symbol:   cfg.Data.Symbol,
		From:     fromDate,
		To:       toDate,
		Interval: cfg.Data.Interval,
		Location: loc,
	}

	logger.Info("Fetching bars",
		logger.String("provider", source.Name()),
		logger.String("symbol", req.Symbol),
		logger.Time("from", req.From),
		logger.Time("to", req.To),
		logger.Duration("interval", req.Interval),
	)

	fetchCtx, cancel := ctx, context.CancelFunc(func() {})
	if cfg.Data.RequestTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.Data.RequestTimeout)
	}
	raw, err := source.FetchBars(fetchCtx, req)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch %s from %s: %w", req.Symbol, source.Name(), err)
	}

	report, err := pipeline.Run(ctx, raw)
	if err != nil {
		return err
	}

	base := export.FileBase(report.Symbol, fromDate, toDate)
	paths, err := export.WriteFiles(report, cfg.Export.OutputDir, base, cfg.Export.Formats)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fields := []zap.Field{
		logger.String("run_id", report.RunID),
		logger.Int("bars", len(report.Bars)),
		logger.Int("anomalies", len(report.Anomalies)),
		logger.Any("files", paths),
	}
	if v, ok := report.Summary.Volatility.Get(); ok {
		fields = append(fields, logger.Float64("annualized_volatility", v))
	}
	logger.Info("Analysis exported", fields...)
	return nil
}
