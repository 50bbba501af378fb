package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, summary, store and pipeline packages.
func TestMetrics_Usable(t *testing.T) {
	WeatherAPICallsTotal.WithLabelValues("success").Inc()
	WeatherAPICallsTotal.WithLabelValues("error").Inc()
	WeatherAPIDuration.WithLabelValues("success").Observe(0.1)
	InferenceCallsTotal.WithLabelValues("fallback").Inc()
	InferenceDuration.Observe(0.4)
	StoreInsertsTotal.WithLabelValues("postgrest", "success").Inc()
	CitiesProcessedTotal.WithLabelValues("success").Inc()
	CityDuration.Observe(0.7)
	RunSucceededCities.Set(5)
	RunTotalCities.Set(5)
	HTTPRequestsTotal.WithLabelValues("GET", "/health", "2xx").Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	CitiesProcessedTotal.WithLabelValues("success").Inc()

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "citiesProcessedTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}

// TestFlushTelemetry_PushesToGateway verifies that metrics are PUT to the
// Pushgateway job path, grouped by run_id.
func TestFlushTelemetry_PushesToGateway(t *testing.T) {
	RunTotalCities.Set(5)

	var gotPath, gotMethod, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := FlushTelemetry(context.Background(), nil, PushConfig{URL: server.URL, Job: "weather_summarizer", RunID: "abc"})
	if err != nil {
		t.Fatalf("FlushTelemetry() error = %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/metrics/job/weather_summarizer/run_id/abc" {
		t.Errorf("path = %s", gotPath)
	}
	if gotBody == "" {
		t.Error("expected a non-empty push body")
	}
}

// TestFlushTelemetry_NoGateway verifies that an empty URL skips the push entirely.
func TestFlushTelemetry_NoGateway(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil, PushConfig{}); err != nil {
		t.Errorf("FlushTelemetry() error = %v, want nil", err)
	}
}

// TestFlushTelemetry_GatewayError verifies that a failing Pushgateway surfaces an error.
func TestFlushTelemetry_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := FlushTelemetry(context.Background(), nil, PushConfig{URL: server.URL, Job: "weather_summarizer"})
	if err == nil || !strings.Contains(err.Error(), "push metrics") {
		t.Errorf("FlushTelemetry() error = %v, want push metrics error", err)
	}
}
