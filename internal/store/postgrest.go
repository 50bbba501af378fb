package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/models"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
)

const maxErrorBody = 4 << 10

// PostgRESTStore inserts rows through a hosted PostgREST endpoint ({url}/rest/v1/{table}),
// authenticating with the project's access key.
type PostgRESTStore struct {
	endpoint string
	key      string
	client   *http.Client
	now      func() time.Time
	logger   *zap.Logger
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewPostgREST validates the URL, key and table name and builds the store.
// No network call is made until Insert.
func NewPostgREST(cfg Config, logger *zap.Logger) (*PostgRESTStore, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("%w: store key is required", ErrConfiguration)
	}
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid store URL %q", ErrConfiguration, cfg.URL)
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}

	return &PostgRESTStore{
		endpoint: u.JoinPath("rest", "v1", table).String(),
		key:      cfg.Key,
		client:   &http.Client{Timeout: cfg.Timeout},
		now:      clock(cfg.Now),
		logger:   observability.OrNop(logger),
	}, nil
}

func (s *PostgRESTStore) Insert(ctx context.Context, reading models.Reading, summary string) error {
	rec, err := NewRecord(reading, summary, s.now())
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "error").Inc()
		return fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "error").Inc()
		return fmt.Errorf("%w: encode record: %w", ErrStoreWriteFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "error").Inc()
		return fmt.Errorf("%w: create request: %w", ErrStoreWriteFailed, err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "error").Inc()
		return fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "error").Inc()
		return fmt.Errorf("%w: HTTP %d: %s", ErrStoreWriteFailed, resp.StatusCode, errorMessage(resp.Body))
	}

	observability.StoreInsertsTotal.WithLabelValues(BackendPostgREST, "success").Inc()
	s.logger.Debug("record inserted", zap.String("location", rec.Location), zap.String("timestamp", rec.Timestamp))
	return nil
}

// Close releases idle keep-alive connections.
func (s *PostgRESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var pe postgrestError
	if err := json.Unmarshal(raw, &pe); err == nil && pe.Message != "" {
		if pe.Code != "" {
			return pe.Code + " " + pe.Message
		}
		return pe.Message
	}
	return strings.TrimSpace(string(raw))
}
