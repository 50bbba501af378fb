package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-summarizer/internal/models"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
	"github.com/kjstillabower/weather-summarizer/internal/validation"
)

// DefaultBaseURL is the WeatherAPI.com host; the client appends currentPath.
const DefaultBaseURL = "https://api.weatherapi.com"

const (
	currentPath = "/v1/current.json"

	// WeatherAPI error code for "No matching location found."
	codeLocationNotFound = 1006

	maxErrorBody = 4 << 10
)

type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, city string) (models.Reading, error)
}

var (
	ErrUpstreamUnavailable = errors.New("weather provider unavailable")
	ErrMalformedResponse   = errors.New("malformed weather response")
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrLocationNotFound    = errors.New("location not found")
	ErrRequestRejected     = errors.New("weather request rejected")
)

// WeatherAPIClient fetches current conditions from WeatherAPI.com. One request per call, no retry.
type WeatherAPIClient struct {
	apiKey  string
	baseURL *url.URL
	client  *http.Client
}

// NewWeatherAPIClient builds a client. timeout of zero leaves requests unbounded
// (they still honor ctx).
func NewWeatherAPIClient(apiKey, baseURL string, timeout time.Duration) (*WeatherAPIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid weather API URL %q", baseURL)
	}

	return &WeatherAPIClient{
		apiKey:  apiKey,
		baseURL: u,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type currentResponse struct {
	Location struct {
		Name    *string `json:"name"`
		Country *string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     *float64 `json:"temp_c"`
		Condition struct {
			Text *string `json:"text"`
		} `json:"condition"`
		Humidity *float64 `json:"humidity"`
		WindKph  *float64 `json:"wind_kph"`
	} `json:"current"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WeatherAPIClient) GetCurrentWeather(ctx context.Context, city string) (models.Reading, error) {
	city, err := validation.ValidateCity(city)
	if err != nil {
		return models.Reading{}, err
	}

	start := time.Now()

	req, err := c.buildRequest(ctx, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.Reading{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return models.Reading{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return models.Reading{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: read response body: %w", ErrUpstreamUnavailable, err)
	}

	var apiResp currentResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.Reading{}, fmt.Errorf("%w: parse response: %v", ErrMalformedResponse, err)
	}

	return mapResponse(apiResp)
}

func (c *WeatherAPIClient) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	u := c.baseURL.JoinPath(currentPath)

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", city)
	params.Set("aqi", "no")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
	case resp.StatusCode == http.StatusBadRequest && apiErr.Error.Code == codeLocationNotFound:
		return fmt.Errorf("%w: %s", ErrLocationNotFound, msg)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrUpstreamUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", ErrRequestRejected, resp.StatusCode, msg)
	}
}

// mapResponse returns a Reading only when all six fields are present.
func mapResponse(r currentResponse) (models.Reading, error) {
	var missing []string
	if r.Location.Name == nil {
		missing = append(missing, "location.name")
	}
	if r.Location.Country == nil {
		missing = append(missing, "location.country")
	}
	if r.Current.TempC == nil {
		missing = append(missing, "current.temp_c")
	}
	if r.Current.Condition.Text == nil {
		missing = append(missing, "current.condition.text")
	}
	if r.Current.Humidity == nil {
		missing = append(missing, "current.humidity")
	}
	if r.Current.WindKph == nil {
		missing = append(missing, "current.wind_kph")
	}
	if len(missing) > 0 {
		return models.Reading{}, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	return models.Reading{
		Location:  *r.Location.Name,
		Country:   *r.Location.Country,
		TempC:     *r.Current.TempC,
		Condition: *r.Current.Condition.Text,
		Humidity:  *r.Current.Humidity,
		WindKph:   *r.Current.WindKph,
	}, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
