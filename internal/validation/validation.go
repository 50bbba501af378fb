package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCityEmpty is returned when a city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityInvalidChars is returned when a city contains control characters.
var ErrCityInvalidChars = errors.New("city contains invalid characters")

// ValidateCity trims the input and rejects empty names and control characters.
// Anything else is passed to the weather provider as-is; the provider decides
// whether it recognizes the location.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCityEmpty
	}
	for _, c := range s {
		if unicode.IsControl(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// ValidateCities applies ValidateCity to each entry, preserving order.
func ValidateCities(cities []string) ([]string, error) {
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		v, err := ValidateCity(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
