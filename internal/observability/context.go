package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const correlationIDKey ctxKey = iota

// NewRunID returns a fresh identifier for one pipeline run.
func NewRunID() string {
	return uuid.New().String()
}

// WithCorrelationID attaches id to ctx. Outbound clients forward it as X-Correlation-ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the id attached by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}
