package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/weather-summarizer/internal/validation"
)

// ErrorCategory is a stable label for error classification in metrics and logs.
type ErrorCategory string

// Error category constants used as metric labels (citiesProcessedTotal) and log fields.
const (
	ErrorCategoryTimeout             ErrorCategory = "timeout"
	ErrorCategoryUpstreamUnavailable ErrorCategory = "upstream_unavailable"
	ErrorCategoryMalformedResponse   ErrorCategory = "malformed_response"
	ErrorCategoryInvalidAPIKey       ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound    ErrorCategory = "location_not_found"
	ErrorCategoryRequestRejected     ErrorCategory = "request_rejected"
	ErrorCategoryValidation          ErrorCategory = "validation"
	ErrorCategoryUnknown             ErrorCategory = "unknown"
)

// CategorizeError maps a weather fetch error to a stable ErrorCategory.
// Timeouts are checked first so a timed-out upstream call is not reported as plain unavailability.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	case errors.Is(err, ErrLocationNotFound):
		return ErrorCategoryLocationNotFound
	case errors.Is(err, ErrMalformedResponse):
		return ErrorCategoryMalformedResponse
	case errors.Is(err, ErrRequestRejected):
		return ErrorCategoryRequestRejected
	case errors.Is(err, ErrUpstreamUnavailable):
		if strings.Contains(err.Error(), "Client.Timeout") {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryUpstreamUnavailable
	case errors.Is(err, validation.ErrCityEmpty), errors.Is(err, validation.ErrCityInvalidChars):
		return ErrorCategoryValidation
	}

	return ErrorCategoryUnknown
}
