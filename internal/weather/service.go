package weather

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/dkotenko/weather-aggregation-api/internal/cache"
	"github.com/dkotenko/weather-aggregation-api/internal/metrics"
)

// TTLConfig holds the fast-tier TTL per query type. The same values double as
// the freshness window for durable-tier rows.
type TTLConfig struct {
	Current  time.Duration
	Forecast time.Duration
	History  time.Duration
}

// DefaultTTL mirrors the cache lifetimes the API has always used.
var DefaultTTL = TTLConfig{
	Current:  10 * time.Minute,
	Forecast: time.Hour,
	History:  24 * time.Hour,
}

// ServiceConfig wires the pipeline's collaborators.
type ServiceConfig struct {
	Cache     cache.Store
	Store     Store
	Resolver  Resolver
	Providers []Provider
	Archive   ArchiveProvider

	TTL TTLConfig

	// ProviderTimeout bounds each upstream call inside a fan-out.
	ProviderTimeout time.Duration
}

// Service orchestrates the aggregation pipeline: fast tier, durable tier with
// a freshness window, coordinate resolution, provider fan-out, and write-back
// into both tiers.
type Service struct {
	cache     cache.Store
	store     Store
	resolver  Resolver
	providers []Provider
	archive   ArchiveProvider
	ttl       TTLConfig
	timeout   time.Duration

	now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl.Current <= 0 {
		ttl.Current = DefaultTTL.Current
	}
	if ttl.Forecast <= 0 {
		ttl.Forecast = DefaultTTL.Forecast
	}
	if ttl.History <= 0 {
		ttl.History = DefaultTTL.History
	}

	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Service{
		cache:     cfg.Cache,
		store:     cfg.Store,
		resolver:  cfg.Resolver,
		providers: cfg.Providers,
		archive:   cfg.Archive,
		ttl:       ttl,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Current returns the aggregated current weather for a city.
func (s *Service) Current(ctx context.Context, city string) (*AggregateResult, error) {
	return s.aggregate(ctx, QueryCurrent, city, s.ttl.Current)
}

// Forecast returns the aggregated 7-day forecast for a city.
func (s *Service) Forecast(ctx context.Context, city string) (*AggregateResult, error) {
	return s.aggregate(ctx, QueryForecast, city, s.ttl.Forecast)
}

// aggregate is the shared pipeline for current and forecast queries.
func (s *Service) aggregate(ctx context.Context, queryType QueryType, city string, ttl time.Duration) (*AggregateResult, error) {
	key := cacheKey(queryType, city)

	if cached, ok := s.cacheGet(ctx, key); ok {
		var result AggregateResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
		// A corrupt entry is just a miss.
	}

	if record := s.freshRecord(ctx, city, queryType, ttl); record != nil {
		result := &AggregateResult{
			City:    city,
			Sources: []SourceRecord{{Name: SourceDatabase, Data: record.Data}},
		}
		s.cacheSet(ctx, key, result, ttl)
		return result, nil
	}

	loc, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		return nil, err
	}

	sources, err := s.liveSources(ctx, loc, queryType)
	if err != nil {
		return nil, err
	}

	result := &AggregateResult{City: loc.Name, Sources: sources}
	s.persistSources(ctx, city, queryType, sources)
	s.cacheSet(ctx, key, result, ttl)
	return result, nil
}

// History returns daily archive data for the rolling [today-7d, today] window.
// Same tiered lookup as the other query types, with a degenerate fan-out of a
// single archive provider.
func (s *Service) History(ctx context.Context, city string) (*HistoryResult, error) {
	key := cacheKey(QueryHistory, city)

	if cached, ok := s.cacheGet(ctx, key); ok {
		var result HistoryResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	if record := s.freshRecord(ctx, city, QueryHistory, s.ttl.History); record != nil {
		result := &HistoryResult{City: city, Data: record.Data}
		s.cacheSet(ctx, key, result, s.ttl.History)
		return result, nil
	}

	loc, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		return nil, err
	}

	sources, err := s.liveSources(ctx, loc, QueryHistory)
	if err != nil {
		return nil, err
	}

	result := &HistoryResult{City: loc.Name, Data: sources[0].Data}
	s.persistSources(ctx, city, QueryHistory, sources)
	s.cacheSet(ctx, key, result, s.ttl.History)
	return result, nil
}

// Stats reports durable-tier aggregate counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// liveSources fans out to the providers configured for the query type and
// waits for all of them to settle. Partial failure is tolerated; only a fully
// empty settle is an error.
func (s *Service) liveSources(ctx context.Context, loc Location, queryType QueryType) ([]SourceRecord, error) {
	var calls []providerCall

	switch queryType {
	case QueryCurrent:
		for _, p := range s.providers {
			p := p
			calls = append(calls, providerCall{
				name: p.Name(),
				fetch: func(ctx context.Context) (json.RawMessage, error) {
					return p.FetchCurrent(ctx, loc)
				},
			})
		}
	case QueryForecast:
		for _, p := range s.providers {
			p := p
			calls = append(calls, providerCall{
				name: p.Name(),
				fetch: func(ctx context.Context) (json.RawMessage, error) {
					return p.FetchForecast(ctx, loc)
				},
			})
		}
	case QueryHistory:
		if s.archive != nil {
			end := s.now().UTC()
			start := end.AddDate(0, 0, -7)
			calls = append(calls, providerCall{
				name: s.archive.Name(),
				fetch: func(ctx context.Context) (json.RawMessage, error) {
					return s.archive.FetchRange(ctx, loc, start, end)
				},
			})
		}
	}

	settled := settleAll(ctx, s.timeout, calls)
	sources := collectSources(settled)
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	return sources, nil
}

// freshRecord returns the most recent durable row for (city, queryType) when
// its updated_at falls inside the freshness window, nil otherwise.
func (s *Service) freshRecord(ctx context.Context, city string, queryType QueryType, window time.Duration) *Record {
	record, err := s.store.LatestRecord(ctx, city, queryType)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			log.Printf("durable lookup failed for %s/%s: %v", city, queryType, err)
		}
		metrics.CacheLookups.WithLabelValues("durable", "miss").Inc()
		return nil
	}
	if s.now().Sub(record.UpdatedAt) > window {
		metrics.CacheLookups.WithLabelValues("durable", "miss").Inc()
		return nil
	}
	metrics.CacheLookups.WithLabelValues("durable", "hit").Inc()
	return record
}

// persistSources upserts each live source into the durable tier. Write
// failures are logged and swallowed: the response already has the data.
func (s *Service) persistSources(ctx context.Context, city string, queryType QueryType, sources []SourceRecord) {
	for _, src := range sources {
		if err := s.store.SaveSource(ctx, city, queryType, src.Name, src.Data); err != nil {
			log.Printf("persist %s/%s source %s failed: %v", city, queryType, src.Name, err)
		}
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, ok := s.cache.Get(ctx, key)
	if ok {
		metrics.CacheLookups.WithLabelValues("fast", "hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("fast", "miss").Inc()
	}
	return value, ok
}

func (s *Service) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache encode for %s failed: %v", key, err)
		return
	}
	s.cache.Set(ctx, key, encoded, ttl)
}

func cacheKey(queryType QueryType, city string) string {
	return "weather:" + string(queryType) + ":" + city
}
