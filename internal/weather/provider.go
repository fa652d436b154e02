package weather

import (
	"context"
	"encoding/json"
	"time"
)

// Provider abstracts a live weather data source (e.g. Open-Meteo, WeatherAPI).
// Fetch methods return the provider's payload sub-document raw; a nil or empty
// payload with a nil error means the provider answered without usable data.
type Provider interface {
	Name() string
	FetchCurrent(ctx context.Context, loc Location) (json.RawMessage, error)
	FetchForecast(ctx context.Context, loc Location) (json.RawMessage, error)
}

// ArchiveProvider serves historical daily data over a date range.
type ArchiveProvider interface {
	Name() string
	FetchRange(ctx context.Context, loc Location, start, end time.Time) (json.RawMessage, error)
}

// Resolver maps a free-text city name to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, city string) (Location, error)
}

// Store is the contract the durable tier must satisfy.
type Store interface {
	// SaveSource upserts one provider payload, keyed by (city, queryType, source).
	SaveSource(ctx context.Context, city string, queryType QueryType, source string, data json.RawMessage) error
	// LatestRecord returns the most recently updated row for (city, queryType)
	// regardless of source, ties broken by created_at. ErrNoRecord when absent.
	LatestRecord(ctx context.Context, city string, queryType QueryType) (*Record, error)
	Stats(ctx context.Context) (Stats, error)
}
