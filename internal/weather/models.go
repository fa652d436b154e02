package weather

import (
	"encoding/json"
	"time"
)

// QueryType identifies which kind of weather data a request asks for.
type QueryType string

const (
	QueryCurrent  QueryType = "current"
	QueryForecast QueryType = "forecast"
	QueryHistory  QueryType = "history"
)

// SourceDatabase is the source name used when a result is served from the
// durable store instead of a live provider.
const SourceDatabase = "Database"

// Location is a resolved place. Immutable once produced by the resolver.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SourceRecord is one upstream's contribution to an aggregate. Data holds the
// provider's payload verbatim; the pipeline never interprets it.
type SourceRecord struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// AggregateResult is the merged response for current and forecast queries.
// Sources are in fan-out completion order, which is not stable across calls.
type AggregateResult struct {
	City    string         `json:"city"`
	Sources []SourceRecord `json:"sources"`
}

// HistoryResult is the response for history queries. The archive payload is
// returned directly rather than as a source list.
type HistoryResult struct {
	City string          `json:"city"`
	Data json.RawMessage `json:"data"`
}

// Record is one durable-tier row for a (city, query type, source) triple.
type Record struct {
	Source    string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats summarizes the durable tier.
type Stats struct {
	TotalRecords  int64      `json:"total_records"`
	UniqueCities  int64      `json:"unique_cities"`
	UniqueSources int64      `json:"unique_sources"`
	LastUpdate    *time.Time `json:"last_update"`
}
