package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushConfig targets a Prometheus Pushgateway. An empty URL disables the push.
type PushConfig struct {
	URL   string
	Job   string
	RunID string
}

// FlushTelemetry runs before process exit. A batch run is gone before any scrape,
// so metrics are pushed when a Pushgateway is configured; logs are synced last.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, cfg PushConfig) error {
	var errs []error
	if cfg.URL != "" {
		pusher := push.New(cfg.URL, cfg.Job).Gatherer(registry)
		if cfg.RunID != "" {
			pusher = pusher.Grouping("run_id", cfg.RunID)
		}
		if err := pusher.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}
