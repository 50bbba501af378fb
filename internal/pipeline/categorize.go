package pipeline

import (
	"errors"

	"github.com/kjstillabower/weather-summarizer/internal/client"
	"github.com/kjstillabower/weather-summarizer/internal/store"
)

const (
	categoryStoreWriteFailed = "store_write_failed"
	categoryConfiguration    = "configuration"
)

// CategorizeError labels a per-city failure. Store errors are checked before the
// weather categories since a store timeout would otherwise read as a fetch timeout.
func CategorizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrStoreWriteFailed):
		return categoryStoreWriteFailed
	case errors.Is(err, store.ErrConfiguration):
		return categoryConfiguration
	}
	return string(client.CategorizeError(err))
}
