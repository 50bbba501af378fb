package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var secretEnvKeys = []string{"WEATHER_API_KEY", "INFERENCE_API_KEY", "STORE_URL", "STORE_KEY", "STORE_BACKEND", "PUSHGATEWAY_URL", "ENV_NAME"}

const minimalEnvYAML = `
store:
  backend: postgrest
`

const fullSecretsYAML = `
weather_api_key: weather-from-secrets
inference_api_key: hf-from-secrets
store_url: https://project.supabase.co
store_key: store-from-secrets
`

// clearEnv unsets keys for the duration of the test and restores them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile dev.yaml: %v", err)
	}
}

func writeSecretsFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config", "secrets.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile secrets.yaml: %v", err)
	}
}

// loadIn runs Load from dir and restores the working directory.
func loadIn(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	return Load()
}

func TestLoad_FailsWhenNoWeatherAPIKey(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)

	cfg, err := loadIn(t, dir)
	if err == nil {
		t.Fatal("Load() expected error when no WEATHER_API_KEY and no secrets file, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "WEATHER_API_KEY") {
		t.Errorf("Load() error = %v, want message containing WEATHER_API_KEY", err)
	}
}

func TestLoad_FailsWhenNoInferenceAPIKey(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	t.Setenv("WEATHER_API_KEY", "weather-key")
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)

	_, err := loadIn(t, dir)
	if err == nil || !strings.Contains(err.Error(), "INFERENCE_API_KEY") {
		t.Errorf("Load() error = %v, want message containing INFERENCE_API_KEY", err)
	}
}

func TestLoad_FailsWhenPostgRESTSecretsMissing(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	t.Setenv("WEATHER_API_KEY", "weather-key")
	t.Setenv("INFERENCE_API_KEY", "hf-key")
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)

	_, err := loadIn(t, dir)
	if err == nil || !strings.Contains(err.Error(), "STORE_URL") {
		t.Errorf("Load() error = %v, want message containing STORE_URL", err)
	}

	t.Setenv("STORE_URL", "https://project.supabase.co")
	_, err = loadIn(t, dir)
	if err == nil || !strings.Contains(err.Error(), "STORE_KEY") {
		t.Errorf("Load() error = %v, want message containing STORE_KEY", err)
	}
}

// TestLoad_SucceedsWithSecretsFile verifies secrets come from config/secrets.yaml and
// every unset option takes its default.
func TestLoad_SucceedsWithSecretsFile(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, fullSecretsYAML)

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "weather-from-secrets" || cfg.InferenceAPIKey != "hf-from-secrets" {
		t.Errorf("API keys = %q/%q", cfg.WeatherAPIKey, cfg.InferenceAPIKey)
	}
	if cfg.StoreURL != "https://project.supabase.co" || cfg.StoreKey != "store-from-secrets" {
		t.Errorf("store secrets = %q/%q", cfg.StoreURL, cfg.StoreKey)
	}

	if cfg.WeatherAPIURL != "https://api.weatherapi.com" {
		t.Errorf("WeatherAPIURL = %q", cfg.WeatherAPIURL)
	}
	if cfg.InferenceAPIURL != "https://api-inference.huggingface.co/models/gpt2" {
		t.Errorf("InferenceAPIURL = %q", cfg.InferenceAPIURL)
	}
	if cfg.WeatherAPITimeout != 0 || cfg.InferenceAPITimeout != 0 || cfg.StoreTimeout != 0 {
		t.Errorf("timeouts = %v/%v/%v, want all 0", cfg.WeatherAPITimeout, cfg.InferenceAPITimeout, cfg.StoreTimeout)
	}
	if cfg.StoreBackend != "postgrest" || cfg.StoreTable != "weather_analysis" {
		t.Errorf("store = %q/%q", cfg.StoreBackend, cfg.StoreTable)
	}
	if strings.Join(cfg.Cities, ",") != "London,New York,Tokyo,Sydney,Paris" {
		t.Errorf("Cities = %v", cfg.Cities)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", cfg.Delay)
	}
	if cfg.StatusListenAddr != "" || cfg.PushgatewayURL != "" {
		t.Errorf("status/push = %q/%q, want disabled", cfg.StatusListenAddr, cfg.PushgatewayURL)
	}
	if cfg.MetricsJob != "weather_summarizer" {
		t.Errorf("MetricsJob = %q", cfg.MetricsJob)
	}
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	t.Setenv("WEATHER_API_KEY", "weather-from-env")
	t.Setenv("STORE_KEY", "store-from-env")
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, fullSecretsYAML)

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "weather-from-env" {
		t.Errorf("WeatherAPIKey = %q, want env value", cfg.WeatherAPIKey)
	}
	if cfg.StoreKey != "store-from-env" {
		t.Errorf("StoreKey = %q, want env value", cfg.StoreKey)
	}
	if cfg.InferenceAPIKey != "hf-from-secrets" {
		t.Errorf("InferenceAPIKey = %q, want secrets value", cfg.InferenceAPIKey)
	}
}

// TestLoad_DotEnv verifies that a .env file in the working directory supplies secrets.
func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, "store:\n  backend: sqlite\n")
	dotenv := "WEATHER_API_KEY=weather-from-dotenv\nINFERENCE_API_KEY=hf-from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("WriteFile .env: %v", err)
	}

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIKey != "weather-from-dotenv" || cfg.InferenceAPIKey != "hf-from-dotenv" {
		t.Errorf("keys = %q/%q, want values from .env", cfg.WeatherAPIKey, cfg.InferenceAPIKey)
	}
}

func TestLoad_EnvFileNotFound(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	t.Setenv("ENV_NAME", "nonexistent")

	_, err := loadIn(t, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, "pipeline: [unclosed")

	_, err := loadIn(t, dir)
	if err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

// TestLoad_FullFile verifies every YAML option is read.
func TestLoad_FullFile(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
weather_api:
  url: http://weather.local
  timeout: 3s
inference_api:
  url: http://model.local/generate
  timeout: 20s
store:
  backend: sqlite
  table: weather_analysis_dev
  sqlite_path: /tmp/wa.db
  timeout: 5s
pipeline:
  cities: [" Lisbon ", "Oslo"]
  delay: 500ms
status:
  listen_addr: ":9090"
metrics:
  pushgateway_url: http://push.local:9091
  job: nightly_weather
`)
	writeSecretsFile(t, dir, "weather_api_key: w\ninference_api_key: h\n")

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "http://weather.local" || cfg.WeatherAPITimeout != 3*time.Second {
		t.Errorf("weather = %q/%v", cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	}
	if cfg.InferenceAPIURL != "http://model.local/generate" || cfg.InferenceAPITimeout != 20*time.Second {
		t.Errorf("inference = %q/%v", cfg.InferenceAPIURL, cfg.InferenceAPITimeout)
	}
	sc := cfg.StoreConfig()
	if sc.Backend != "sqlite" || sc.Table != "weather_analysis_dev" || sc.SQLitePath != "/tmp/wa.db" || sc.Timeout != 5*time.Second {
		t.Errorf("StoreConfig() = %+v", sc)
	}
	if strings.Join(cfg.Cities, ",") != "Lisbon,Oslo" {
		t.Errorf("Cities = %v, want trimmed and ordered", cfg.Cities)
	}
	if cfg.Delay != 500*time.Millisecond {
		t.Errorf("Delay = %v", cfg.Delay)
	}
	if cfg.StatusListenAddr != ":9090" {
		t.Errorf("StatusListenAddr = %q", cfg.StatusListenAddr)
	}
	if cfg.PushgatewayURL != "http://push.local:9091" || cfg.MetricsJob != "nightly_weather" {
		t.Errorf("metrics = %q/%q", cfg.PushgatewayURL, cfg.MetricsJob)
	}
}

func TestLoad_StoreBackendEnvOverride(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	t.Setenv("STORE_BACKEND", "SQLite")
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, "weather_api_key: w\ninference_api_key: h\n")

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"unknown backend", "store:\n  backend: dynamo\n", "store.backend"},
		{"empty city", "pipeline:\n  cities: [London, \"  \"]\n", "pipeline.cities"},
		{"negative delay", "pipeline:\n  delay: -1s\n", "pipeline.delay"},
		{"negative timeout", "weather_api:\n  timeout: -2s\n", "weather_api.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, secretEnvKeys...)
			dir := t.TempDir()
			writeEnvFile(t, dir, tt.yaml)
			writeSecretsFile(t, dir, fullSecretsYAML)

			_, err := loadIn(t, dir)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want message containing %q", err, tt.wantMsg)
			}
		})
	}
}

// TestLoad_ZeroDelay verifies an explicit zero pause is honored rather than defaulted.
func TestLoad_ZeroDelay(t *testing.T) {
	clearEnv(t, secretEnvKeys...)
	dir := t.TempDir()
	writeEnvFile(t, dir, "pipeline:\n  delay: 0s\n")
	writeSecretsFile(t, dir, fullSecretsYAML)

	cfg, err := loadIn(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Delay != 0 {
		t.Errorf("Delay = %v, want 0", cfg.Delay)
	}
}

func TestParseDurationOrZero(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"  ", time.Second, time.Second},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, 0},
		{"-1s", time.Second, -time.Second},
		{"250ms", time.Second, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := parseDurationOrZero(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDurationOrZero(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
