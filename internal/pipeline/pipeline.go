// Package pipeline sequences fetch, summarize and store for an ordered list of cities.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/client"
	"github.com/kjstillabower/weather-summarizer/internal/models"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
	"github.com/kjstillabower/weather-summarizer/internal/summary"
)

// DefaultDelay is the pause after each city.
const DefaultDelay = 2 * time.Second

// DefaultCities is used when configuration names none.
var DefaultCities = []string{"London", "New York", "Tokyo", "Sydney", "Paris"}

// Inserter persists one record per processed city.
type Inserter interface {
	Insert(ctx context.Context, reading models.Reading, summary string) error
}

// Result is the tally of one run.
type Result struct {
	Succeeded int
	Total     int
	// Failures maps each failed city to the error that ended it.
	Failures map[string]error
}

func (r Result) String() string {
	return fmt.Sprintf("Successfully processed %d out of %d cities.", r.Succeeded, r.Total)
}

// Runner processes cities one at a time. It holds no state between runs.
type Runner struct {
	weather    client.WeatherClient
	summarizer summary.Summarizer
	records    Inserter
	observer   Observer
	delay      time.Duration
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// NewRunner wires the three collaborators. A nil observer reports nothing;
// a negative delay is treated as zero.
func NewRunner(weather client.WeatherClient, summarizer summary.Summarizer, records Inserter, delay time.Duration, observer Observer, logger *zap.Logger) *Runner {
	if observer == nil {
		observer = MultiObserver{}
	}
	if delay < 0 {
		delay = 0
	}
	return &Runner{
		weather:    weather,
		summarizer: summarizer,
		records:    records,
		observer:   observer,
		delay:      delay,
		logger:     observability.OrNop(logger),
		sleep:      sleepContext,
	}
}

// Run processes every city in order. A failure on one city never stops the next.
// The pause follows every city, the last one included.
func (r *Runner) Run(ctx context.Context, cities []string) Result {
	result := Result{Total: len(cities), Failures: make(map[string]error)}
	r.observer.RunStarted(len(cities))

	for i, city := range cities {
		r.observer.CityStarted(i, len(cities), city)

		start := time.Now()
		err := r.processCity(ctx, city)
		observability.CityDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			category := CategorizeError(err)
			observability.CitiesProcessedTotal.WithLabelValues(category).Inc()
			result.Failures[city] = err
			r.observer.CityFailed(city, err)
		} else {
			observability.CitiesProcessedTotal.WithLabelValues("success").Inc()
			result.Succeeded++
			r.observer.CityStored(city)
		}

		r.sleep(ctx, r.delay)
	}

	observability.RunSucceededCities.Set(float64(result.Succeeded))
	observability.RunTotalCities.Set(float64(result.Total))
	r.observer.Finished(result)
	return result
}

// processCity runs fetch → summarize → insert. Summarize cannot fail, so only fetch
// and insert end a city early.
func (r *Runner) processCity(ctx context.Context, city string) error {
	reading, err := r.weather.GetCurrentWeather(ctx, city)
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}

	text := r.summarizer.Summarize(ctx, reading)
	r.observer.CitySummarized(city, text)

	if err := r.records.Insert(ctx, reading, text); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
