// Package summary asks a hosted text-generation model to describe a weather reading.
//
// Summarize never fails: when the model call or its response is unusable the
// client returns a deterministic description built from the reading itself.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/models"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
)

// DefaultModelURL is the hosted inference endpoint for the text-generation model.
const DefaultModelURL = "https://api-inference.huggingface.co/models/gpt2"

// Placeholder is returned when the model answered with a result object that has no generated text.
const Placeholder = "Weather analysis not available"

const (
	maxLength   = 50
	temperature = 0.7
)

const (
	outcomeGenerated   = "generated"
	outcomePlaceholder = "placeholder"
	outcomeFallback    = "fallback"
)

// ErrMissingAPIKey is returned by NewClient when no inference key is configured.
var ErrMissingAPIKey = errors.New("inference API key is required")

// Summarizer produces a short description of a reading. Implementations must not fail.
type Summarizer interface {
	Summarize(ctx context.Context, reading models.Reading) string
}

// Client calls a text-generation inference endpoint.
type Client struct {
	apiKey   string
	modelURL string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient builds a Client. timeout of zero leaves requests unbounded.
func NewClient(apiKey, modelURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if modelURL == "" {
		modelURL = DefaultModelURL
	}
	return &Client{
		apiKey:   apiKey,
		modelURL: modelURL,
		client:   &http.Client{Timeout: timeout},
		logger:   observability.OrNop(logger),
	}, nil
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generateResult struct {
	GeneratedText *string `json:"generated_text"`
}

// Prompt renders the fixed prompt for a reading. The word count is a hint to the model only.
func Prompt(r models.Reading) string {
	return fmt.Sprintf(
		"Describe this weather condition in exactly 30 words: Temperature is %s°C with %s, humidity at %s%% and wind speed of %s km/h.",
		formatNumber(r.TempC), r.Condition, formatNumber(r.Humidity), formatNumber(r.WindKph),
	)
}

// Fallback renders the deterministic description used when the model is unusable.
func Fallback(r models.Reading) string {
	return fmt.Sprintf(
		"Current weather: %s, %s°C, %s%% humidity, wind %s km/h",
		r.Condition, formatNumber(r.TempC), formatNumber(r.Humidity), formatNumber(r.WindKph),
	)
}

// Summarize returns the model's text, Placeholder, or Fallback(reading). It never returns "".
func (c *Client) Summarize(ctx context.Context, reading models.Reading) string {
	start := time.Now()
	body, err := c.call(ctx, reading)
	observability.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("inference call failed, using fallback summary",
			zap.String("location", reading.Location), zap.Error(err))
		observability.InferenceCallsTotal.WithLabelValues(outcomeFallback).Inc()
		return Fallback(reading)
	}

	text, outcome := interpret(body, reading)
	observability.InferenceCallsTotal.WithLabelValues(outcome).Inc()
	if outcome != outcomeGenerated {
		c.logger.Info("inference response unusable",
			zap.String("location", reading.Location), zap.String("outcome", outcome))
	}
	return text
}

// call performs the POST and returns the raw body. The status code is not checked:
// error bodies are JSON objects and are classified by interpret like any other response.
func (c *Client) call(ctx context.Context, reading models.Reading) ([]byte, error) {
	payload, err := json.Marshal(generateRequest{
		Inputs: Prompt(reading),
		Parameters: generateParameters{
			MaxLength:      maxLength,
			Temperature:    temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("inference provider returned non-2xx", zap.Int("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// interpret applies the response rules in order: non-empty array, non-empty object,
// anything else. Undecodable bodies and malformed result items produce the fallback.
func interpret(body []byte, reading models.Reading) (string, string) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Fallback(reading), outcomeFallback
	}

	var item interface{}
	switch v := raw.(type) {
	case []interface{}:
		if len(v) == 0 {
			return Fallback(reading), outcomeFallback
		}
		item = v[0]
	case map[string]interface{}:
		if len(v) == 0 {
			return Fallback(reading), outcomeFallback
		}
		item = v
	default:
		return Fallback(reading), outcomeFallback
	}

	text, err := generatedText(item)
	if err != nil {
		return Fallback(reading), outcomeFallback
	}
	if text == "" {
		return Placeholder, outcomePlaceholder
	}
	return text, outcomeGenerated
}

// generatedText decodes one result object. A non-object item or a non-string
// generated_text is an error; an absent field yields "".
func generatedText(item interface{}) (string, error) {
	if _, ok := item.(map[string]interface{}); !ok {
		return "", fmt.Errorf("result item is %T, not an object", item)
	}
	var res generateResult
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &res,
		TagName: "json",
	})
	if err != nil {
		return "", err
	}
	if err := decoder.Decode(item); err != nil {
		return "", err
	}
	if res.GeneratedText == nil {
		return "", nil
	}
	return *res.GeneratedText, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
