package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/models"
)

// DefaultTable is the table every record is appended to.
const DefaultTable = "weather_analysis"

const (
	BackendPostgREST = "postgrest"
	BackendSQLite    = "sqlite"
)

var (
	// ErrStoreWriteFailed wraps every insert failure. Callers treat it as a per-city failure.
	ErrStoreWriteFailed = errors.New("store write failed")
	// ErrConfiguration is returned when a store cannot be constructed from its parameters.
	ErrConfiguration = errors.New("store configuration error")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store appends one record per processed city. Records are never updated or deleted.
type Store interface {
	Insert(ctx context.Context, reading models.Reading, summary string) error
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend    string
	URL        string
	Key        string
	Table      string
	SQLitePath string
	Timeout    time.Duration

	// Now stamps records; defaults to time.Now.
	Now func() time.Time
}

// New constructs the backend named by cfg.Backend.
func New(cfg Config, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendPostgREST:
		return NewPostgREST(cfg, logger)
	case BackendSQLite:
		return NewSQLite(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfiguration, cfg.Backend)
	}
}

// NewRecord builds the row for a reading and its summary. The weather_data blob and
// the summary are both derived from the same reading value.
func NewRecord(reading models.Reading, summary string, now time.Time) (models.Record, error) {
	blob, err := json.Marshal(reading.Payload())
	if err != nil {
		return models.Record{}, fmt.Errorf("encode weather_data: %w", err)
	}
	return models.Record{
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Location:    reading.Location,
		Country:     reading.Country,
		WeatherData: string(blob),
		AIAnalysis:  summary,
	}, nil
}

// DecodePayload parses a stored weather_data blob.
func DecodePayload(blob string) (models.WeatherPayload, error) {
	var p models.WeatherPayload
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return models.WeatherPayload{}, fmt.Errorf("decode weather_data: %w", err)
	}
	return p, nil
}

func tableName(t string) (string, error) {
	if t == "" {
		return DefaultTable, nil
	}
	if !tableNamePattern.MatchString(t) {
		return "", fmt.Errorf("%w: invalid table name %q", ErrConfiguration, t)
	}
	return t, nil
}

func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
