package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohamedkhairy/intraday-volatility/internal/analysis"
	"github.com/mohamedkhairy/intraday-volatility/internal/api"
	"github.com/mohamedkhairy/intraday-volatility/internal/config"
	"github.com/mohamedkhairy/intraday-volatility/internal/data"
	"github.com/mohamedkhairy/intraday-volatility/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting analysis API service",
		logger.Int("port", cfg.API.Port),
		logger.String("provider", cfg.Data.Provider),
	)

	pipeline, err := analysis.NewPipeline(cfg.PipelineParams())
	if err != nil {
		logger.Fatal("Failed to create analysis pipeline",
			logger.ErrorField(err),
		)
	}

	loc, err := cfg.Data.Location()
	if err != nil {
		logger.Fatal("Failed to resolve timezone",
			logger.ErrorField(err),
		)
	}

	// A provider that cannot be built leaves POST /analysis available
	factory := data.NewProviderFactory()
	provider, err := factory.CreateProvider(cfg.Data.Provider, cfg.Data.ProviderConfig())
	if err != nil {
		logger.Warn("Data provider unavailable, only posted series can be analyzed",
			logger.String("provider", cfg.Data.Provider),
			logger.ErrorField(err),
		)
		provider = nil
	}

	handler := api.NewAnalysisHandler(pipeline, provider, api.HandlerConfig{
		Location:     loc,
		Interval:     cfg.Data.Interval,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	})

	// Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      api.NewRouter(handler, factory),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down analysis API service")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("Analysis API service stopped")
}
