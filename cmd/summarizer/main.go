package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/client"
	"github.com/kjstillabower/weather-summarizer/internal/config"
	httphandler "github.com/kjstillabower/weather-summarizer/internal/http"
	"github.com/kjstillabower/weather-summarizer/internal/lifecycle"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
	"github.com/kjstillabower/weather-summarizer/internal/pipeline"
	"github.com/kjstillabower/weather-summarizer/internal/store"
	"github.com/kjstillabower/weather-summarizer/internal/summary"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewWeatherAPIClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	summarizer, err := summary.NewClient(cfg.InferenceAPIKey, cfg.InferenceAPIURL, cfg.InferenceAPITimeout, logger)
	if err != nil {
		logger.Fatal("inference client", zap.Error(err))
	}

	records, err := store.New(cfg.StoreConfig(), logger)
	if err != nil {
		logger.Fatal("record store", zap.Error(err))
	}
	logger.Info("store backend", zap.String("backend", cfg.StoreBackend), zap.String("table", cfg.StoreTable))

	runID := observability.NewRunID()
	logger = logger.With(zap.String("run_id", runID))
	ctx := observability.WithCorrelationID(context.Background(), runID)

	progress := lifecycle.NewProgress(runID)

	var srv *http.Server
	if cfg.StatusListenAddr != "" {
		srv = &http.Server{
			Addr:         cfg.StatusListenAddr,
			Handler:      httphandler.NewRouter(httphandler.NewHandler(progress, logger)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("status server starting", zap.String("addr", cfg.StatusListenAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("status server", zap.Error(err))
			}
		}()
	}

	observer := pipeline.MultiObserver{
		pipeline.ConsoleObserver{W: os.Stdout},
		pipeline.LogObserver{Logger: logger},
		pipeline.ProgressObserver{Progress: progress},
	}
	runner := pipeline.NewRunner(weatherClient, summarizer, records, cfg.Delay, observer, logger)
	runner.Run(ctx, cfg.Cities)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown", zap.Error(err))
		}
		cancel()
	}

	if err := records.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}

	push := observability.PushConfig{URL: cfg.PushgatewayURL, Job: cfg.MetricsJob, RunID: runID}
	if err := observability.FlushTelemetry(context.Background(), logger, push); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
}
