package weather

import (
	"errors"
	"fmt"
)

// ErrNoSources is returned when every configured provider failed or came back
// empty for a query. Maps to a 502 at the HTTP layer.
var ErrNoSources = errors.New("no weather sources available")

// ErrNoRecord is returned by the durable store when no row exists for a
// (city, query type) pair.
var ErrNoRecord = errors.New("no stored weather data")

// NotFoundError means geocoding had zero matches for the requested city.
type NotFoundError struct {
	City string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("City '%s' not found.", e.City)
}

// UpstreamError carries a geocoding transport or API failure along with the
// status code to surface, defaulting to 500 when the upstream gave none.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream failure (status %d)", e.StatusCode)
}
