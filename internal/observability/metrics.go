package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// WeatherAPI call rate by status. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// WeatherAPI latency per request. Watch for: slow upstream stretching the run.
	WeatherAPIDuration *prometheus.HistogramVec

	// Inference calls by outcome (generated, placeholder, fallback).
	// Watch for: fallback share rising = model endpoint unusable.
	InferenceCallsTotal *prometheus.CounterVec

	// Inference latency per request.
	InferenceDuration prometheus.Histogram

	// Table store inserts by backend and status.
	StoreInsertsTotal *prometheus.CounterVec

	// Per-city pipeline outcome. result is "success" or the error category.
	CitiesProcessedTotal *prometheus.CounterVec

	// Wall time of fetch+summarize+insert for one city, excluding the pause.
	CityDuration prometheus.Histogram

	// Tally of the last completed run.
	RunSucceededCities prometheus.Gauge
	RunTotalCities     prometheus.Gauge

	// Status server request rate.
	HTTPRequestsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of WeatherAPI current-conditions calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "WeatherAPI latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	InferenceCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inferenceCallsTotal",
			Help: "Total number of summary requests by outcome",
		},
		[]string{"outcome"},
	)
	InferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inferenceDurationSeconds",
			Help:    "Inference provider latency in seconds (per request)",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	StoreInsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeInsertsTotal",
			Help: "Total number of weather_analysis inserts",
		},
		[]string{"backend", "status"},
	)
	CitiesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citiesProcessedTotal",
			Help: "Cities attempted, labeled success or by error category",
		},
		[]string{"result"},
	)
	CityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cityDurationSeconds",
			Help:    "Time to fetch, summarize and store one city",
			Buckets: prometheus.DefBuckets,
		},
	)
	RunSucceededCities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runSucceededCities",
			Help: "Cities fully processed in the last run",
		},
	)
	RunTotalCities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runTotalCities",
			Help: "Cities attempted in the last run",
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of status server requests",
		},
		[]string{"method", "route", "statusCode"},
	)

	registry.MustRegister(
		WeatherAPICallsTotal, WeatherAPIDuration,
		InferenceCallsTotal, InferenceDuration,
		StoreInsertsTotal,
		CitiesProcessedTotal, CityDuration,
		RunSucceededCities, RunTotalCities,
		HTTPRequestsTotal,
	)
}

// Registry exposes the application registry as a Gatherer for the Pushgateway.
func Registry() prometheus.Gatherer {
	return registry
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
