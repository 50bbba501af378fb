//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjstillabower/weather-summarizer/internal/client"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
	"github.com/kjstillabower/weather-summarizer/internal/store"
	"github.com/kjstillabower/weather-summarizer/internal/summary"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	WeatherAPIKey   string
	WeatherAPIURL   string
	InferenceAPIKey string
	InferenceAPIURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test unless both WEATHER_API_KEY and INFERENCE_API_KEY are set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	weatherKey := os.Getenv("WEATHER_API_KEY")
	if weatherKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	inferenceKey := os.Getenv("INFERENCE_API_KEY")
	if inferenceKey == "" {
		t.Skip("INFERENCE_API_KEY not set, skipping integration test")
	}

	return IntegrationTestConfig{
		WeatherAPIKey:   weatherKey,
		WeatherAPIURL:   os.Getenv("WEATHER_API_URL"),
		InferenceAPIKey: inferenceKey,
		InferenceAPIURL: os.Getenv("INFERENCE_API_URL"),
	}
}

// SetupIntegrationClients creates live weather and inference clients plus a SQLite
// store in a temp dir. The store is closed on test cleanup.
func SetupIntegrationClients(t *testing.T, cfg IntegrationTestConfig) (client.WeatherClient, summary.Summarizer, *store.SQLiteStore) {
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	weatherClient, err := client.NewWeatherAPIClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}

	summarizer, err := summary.NewClient(cfg.InferenceAPIKey, cfg.InferenceAPIURL, 30*time.Second, logger)
	if err != nil {
		t.Fatalf("summary.NewClient() error = %v", err)
	}

	records, err := store.NewSQLite(store.Config{
		Backend:    store.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "integration.db"),
	}, logger)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = records.Close() })

	return weatherClient, summarizer, records
}
