package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/weather-summarizer/internal/client"
	"github.com/kjstillabower/weather-summarizer/internal/pipeline"
	"github.com/kjstillabower/weather-summarizer/internal/store"
	"github.com/kjstillabower/weather-summarizer/internal/summary"
	"github.com/kjstillabower/weather-summarizer/internal/validation"
)

// Config holds the run configuration loaded from YAML, secrets and env.
type Config struct {
	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	InferenceAPIKey     string
	InferenceAPIURL     string
	InferenceAPITimeout time.Duration

	StoreBackend    string // "postgrest" or "sqlite"
	StoreURL        string
	StoreKey        string
	StoreTable      string
	StoreSQLitePath string
	StoreTimeout    time.Duration

	Cities []string
	Delay  time.Duration

	StatusListenAddr string

	PushgatewayURL string
	MetricsJob     string
}

type fileConfig struct {
	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	InferenceAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"inference_api"`

	Store struct {
		Backend    string `yaml:"backend"`
		URL        string `yaml:"url"`
		Table      string `yaml:"table"`
		SQLitePath string `yaml:"sqlite_path"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"store"`

	Pipeline struct {
		Cities []string `yaml:"cities"`
		Delay  *string  `yaml:"delay"`
	} `yaml:"pipeline"`

	Status struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"status"`

	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url"`
		Job            string `yaml:"job"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	WeatherAPIKey   string `yaml:"weather_api_key"`
	InferenceAPIKey string `yaml:"inference_api_key"`
	StoreURL        string `yaml:"store_url"`
	StoreKey        string `yaml:"store_key"`
}

// Load reads .env (if present), config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml.
// Secrets come from env first (WEATHER_API_KEY, INFERENCE_API_KEY, STORE_URL, STORE_KEY),
// then the secrets file. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	sec, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.WeatherAPIKey = firstNonEmpty(os.Getenv("WEATHER_API_KEY"), sec.WeatherAPIKey)
	cfg.InferenceAPIKey = firstNonEmpty(os.Getenv("INFERENCE_API_KEY"), sec.InferenceAPIKey)
	cfg.StoreURL = firstNonEmpty(os.Getenv("STORE_URL"), sec.StoreURL, fc.Store.URL)
	cfg.StoreKey = firstNonEmpty(os.Getenv("STORE_KEY"), sec.StoreKey)

	cfg.WeatherAPIURL = firstNonEmpty(strings.TrimSpace(fc.WeatherAPI.URL), client.DefaultBaseURL)
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 0)

	cfg.InferenceAPIURL = firstNonEmpty(strings.TrimSpace(fc.InferenceAPI.URL), summary.DefaultModelURL)
	cfg.InferenceAPITimeout = parseDurationOrZero(fc.InferenceAPI.Timeout, 0)

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Store.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = store.BackendPostgREST
	}
	cfg.StoreTable = firstNonEmpty(strings.TrimSpace(fc.Store.Table), store.DefaultTable)
	cfg.StoreSQLitePath = firstNonEmpty(strings.TrimSpace(fc.Store.SQLitePath), "weather_analysis.db")
	cfg.StoreTimeout = parseDurationOrZero(fc.Store.Timeout, 0)

	cfg.Cities = fc.Pipeline.Cities
	if len(cfg.Cities) == 0 {
		cfg.Cities = append([]string(nil), pipeline.DefaultCities...)
	}
	cfg.Delay = pipeline.DefaultDelay
	if fc.Pipeline.Delay != nil {
		cfg.Delay = parseDurationOrZero(*fc.Pipeline.Delay, pipeline.DefaultDelay)
	}

	cfg.StatusListenAddr = strings.TrimSpace(fc.Status.ListenAddr)

	cfg.PushgatewayURL = firstNonEmpty(os.Getenv("PUSHGATEWAY_URL"), strings.TrimSpace(fc.Metrics.PushgatewayURL))
	cfg.MetricsJob = firstNonEmpty(strings.TrimSpace(fc.Metrics.Job), "weather_summarizer")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreConfig projects the store settings for store.New.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend:    c.StoreBackend,
		URL:        c.StoreURL,
		Key:        c.StoreKey,
		Table:      c.StoreTable,
		SQLitePath: c.StoreSQLitePath,
		Timeout:    c.StoreTimeout,
	}
}

func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (validate rejects negatives).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. Secrets for the hosted store are only
// required with the postgrest backend.
func validate(cfg *Config) error {
	if cfg.WeatherAPIKey == "" {
		return fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}
	if cfg.InferenceAPIKey == "" {
		return fmt.Errorf("INFERENCE_API_KEY required (set env or config/secrets.yaml inference_api_key)")
	}
	switch cfg.StoreBackend {
	case store.BackendPostgREST:
		if cfg.StoreURL == "" {
			return fmt.Errorf("STORE_URL required for postgrest backend (set env or config/secrets.yaml store_url)")
		}
		if cfg.StoreKey == "" {
			return fmt.Errorf("STORE_KEY required for postgrest backend (set env or config/secrets.yaml store_key)")
		}
	case store.BackendSQLite:
		// valid
	default:
		return fmt.Errorf("store.backend must be postgrest or sqlite, got %q", cfg.StoreBackend)
	}

	cities, err := validation.ValidateCities(cfg.Cities)
	if err != nil {
		return fmt.Errorf("pipeline.cities: %w", err)
	}
	cfg.Cities = cities

	if cfg.Delay < 0 {
		return fmt.Errorf("pipeline.delay must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"weather_api.timeout":   cfg.WeatherAPITimeout,
		"inference_api.timeout": cfg.InferenceAPITimeout,
		"store.timeout":         cfg.StoreTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
