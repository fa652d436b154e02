package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkotenko/weather-aggregation-api/internal/cache"
	"github.com/dkotenko/weather-aggregation-api/internal/weather"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *httptest.Server, *int) {
	t.Helper()

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	r := NewResolver(server.Client(), "test-key", cache.NewMemory(), time.Hour)
	r.baseURL = server.URL
	return r, server, &hits
}

func TestResolveReturnsFirstMatch(t *testing.T) {
	r, _, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("city") != "Paris" {
			t.Errorf("unexpected city query %q", req.URL.Query().Get("city"))
		}
		if req.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`[{"name":"Paris","latitude":48.85,"longitude":2.35},{"name":"Paris","latitude":33.66,"longitude":-95.55}]`))
	})

	loc, err := r.Resolve(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Name != "Paris" || loc.Latitude != 48.85 || loc.Longitude != 2.35 {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestResolveCachesSuccessfulLookups(t *testing.T) {
	r, _, hits := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"name":"Paris","latitude":48.85,"longitude":2.35}]`))
	})

	if _, err := r.Resolve(context.Background(), "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Resolve(context.Background(), "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *hits != 1 {
		t.Fatalf("expected 1 upstream call, got %d", *hits)
	}
}

func TestResolveZeroMatchesIsNotFound(t *testing.T) {
	r, _, _ := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := r.Resolve(context.Background(), "InvalidCity")

	var notFound *weather.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Error() != "City 'InvalidCity' not found." {
		t.Fatalf("unexpected message %q", notFound.Error())
	}
}

func TestResolveUpstreamStatusPropagates(t *testing.T) {
	r, _, _ := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := r.Resolve(context.Background(), "Paris")

	var upstream *weather.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", upstream.StatusCode)
	}
}

func TestResolveFailuresAreNotCached(t *testing.T) {
	r, _, hits := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, _ = r.Resolve(context.Background(), "InvalidCity")
	_, _ = r.Resolve(context.Background(), "InvalidCity")

	if *hits != 2 {
		t.Fatalf("expected 2 upstream calls for uncached failures, got %d", *hits)
	}
}
