package pipeline

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/lifecycle"
)

// Observer receives per-city progress from Runner.Run. Calls happen on the Run goroutine.
type Observer interface {
	RunStarted(total int)
	CityStarted(index, total int, city string)
	CitySummarized(city, summary string)
	CityStored(city string)
	CityFailed(city string, err error)
	Finished(result Result)
}

// ConsoleObserver prints human-readable progress lines.
type ConsoleObserver struct {
	W io.Writer
}

func (o ConsoleObserver) RunStarted(total int) {
	fmt.Fprintln(o.W, "Starting weather analysis...")
}

func (o ConsoleObserver) CityStarted(index, total int, city string) {
	fmt.Fprintf(o.W, "\nProcessing weather data for %s...\n", city)
}

func (o ConsoleObserver) CitySummarized(city, summary string) {
	fmt.Fprintf(o.W, "AI Analysis: %s\n", summary)
}

func (o ConsoleObserver) CityStored(city string) {}

func (o ConsoleObserver) CityFailed(city string, err error) {
	fmt.Fprintf(o.W, "Error processing %s: %v\n", city, err)
}

func (o ConsoleObserver) Finished(result Result) {
	fmt.Fprintf(o.W, "\nDone! %s\n", result)
}

// LogObserver emits structured log lines.
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) RunStarted(total int) {
	o.Logger.Info("run started", zap.Int("cities", total))
}

func (o LogObserver) CityStarted(index, total int, city string) {
	o.Logger.Debug("processing city", zap.String("city", city), zap.Int("index", index+1), zap.Int("total", total))
}

func (o LogObserver) CitySummarized(city, summary string) {
	o.Logger.Debug("summary ready", zap.String("city", city), zap.Int("summary_len", len(summary)))
}

func (o LogObserver) CityStored(city string) {
	o.Logger.Info("city processed", zap.String("city", city))
}

func (o LogObserver) CityFailed(city string, err error) {
	o.Logger.Warn("city failed", zap.String("city", city), zap.String("error_category", CategorizeError(err)), zap.Error(err))
}

func (o LogObserver) Finished(result Result) {
	o.Logger.Info("run finished", zap.Int("succeeded", result.Succeeded), zap.Int("total", result.Total))
}

// ProgressObserver mirrors the run into a lifecycle.Progress for the status endpoint.
type ProgressObserver struct {
	Progress *lifecycle.Progress
}

func (o ProgressObserver) RunStarted(total int) {
	o.Progress.Start(total)
}

func (o ProgressObserver) CityStarted(index, total int, city string) {
	o.Progress.SetCurrent(city)
}

func (o ProgressObserver) CitySummarized(city, summary string) {}

func (o ProgressObserver) CityStored(city string) {
	o.Progress.RecordCity(true)
}

func (o ProgressObserver) CityFailed(city string, err error) {
	o.Progress.RecordCity(false)
}

func (o ProgressObserver) Finished(result Result) {
	o.Progress.Finish()
}

// MultiObserver fans out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(total int) {
	for _, o := range m {
		o.RunStarted(total)
	}
}

func (m MultiObserver) CityStarted(index, total int, city string) {
	for _, o := range m {
		o.CityStarted(index, total, city)
	}
}

func (m MultiObserver) CitySummarized(city, summary string) {
	for _, o := range m {
		o.CitySummarized(city, summary)
	}
}

func (m MultiObserver) CityStored(city string) {
	for _, o := range m {
		o.CityStored(city)
	}
}

func (m MultiObserver) CityFailed(city string, err error) {
	for _, o := range m {
		o.CityFailed(city, err)
	}
}

func (m MultiObserver) Finished(result Result) {
	for _, o := range m {
		o.Finished(result)
	}
}
