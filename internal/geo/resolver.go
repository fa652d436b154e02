// Package geo resolves free-text city names to coordinates via the
// API-Ninjas geocoding API, with 24-hour caching of successful lookups.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/dkotenko/weather-aggregation-api/internal/cache"
	"github.com/dkotenko/weather-aggregation-api/internal/weather"
)

const defaultBaseURL = "https://api.api-ninjas.com/v1/geocoding"

// Resolver implements weather.Resolver. Calls are a single attempt: the
// caller decides whether the whole request is worth retrying.
type Resolver struct {
	client  *http.Client
	apiKey  string
	baseURL string
	cache   cache.Store
	ttl     time.Duration
}

func NewResolver(client *http.Client, apiKey string, store cache.Store, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Resolver{
		client:  client,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		cache:   store,
		ttl:     ttl,
	}
}

// Resolve returns the first geocoding match for city. Zero matches yield a
// weather.NotFoundError; any other failure a weather.UpstreamError carrying
// the provider's status code when there is one.
func (r *Resolver) Resolve(ctx context.Context, city string) (weather.Location, error) {
	key := "geocoding:" + city

	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, key); ok {
			var loc weather.Location
			if err := json.Unmarshal(cached, &loc); err == nil {
				return loc, nil
			}
		}
	}

	loc, err := r.fetch(ctx, city)
	if err != nil {
		return weather.Location{}, err
	}

	if r.cache != nil {
		if encoded, err := json.Marshal(loc); err == nil {
			r.cache.Set(ctx, key, encoded, r.ttl)
		}
	}
	return loc, nil
}

func (r *Resolver) fetch(ctx context.Context, city string) (weather.Location, error) {
	u := fmt.Sprintf("%s?%s", r.baseURL, url.Values{"city": {city}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.Location{}, err
	}
	req.Header.Set("X-Api-Key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("geocoding request for %s failed: %v", city, err)
		return weather.Location{}, &weather.UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("Failed to get coordinates for %s.", city),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return weather.Location{}, &weather.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Failed to get coordinates for %s.", city),
		}
	}

	var matches []weather.Location
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return weather.Location{}, &weather.UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("Failed to get coordinates for %s.", city),
		}
	}

	if len(matches) == 0 {
		return weather.Location{}, &weather.NotFoundError{City: city}
	}
	return matches[0], nil
}
