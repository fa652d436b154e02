package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dkotenko/weather-aggregation-api/internal/weather"
)

type stubService struct {
	current  *weather.AggregateResult
	forecast *weather.AggregateResult
	history  *weather.HistoryResult
	stats    weather.Stats
	err      error
}

func (s *stubService) Current(context.Context, string) (*weather.AggregateResult, error) {
	return s.current, s.err
}

func (s *stubService) Forecast(context.Context, string) (*weather.AggregateResult, error) {
	return s.forecast, s.err
}

func (s *stubService) History(context.Context, string) (*weather.HistoryResult, error) {
	return s.history, s.err
}

func (s *stubService) Stats(context.Context) (weather.Stats, error) {
	return s.stats, s.err
}

func newTestApp(service Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, service)
	return app
}

func doRequest(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", raw, err)
	}
	return resp, body
}

func TestCurrentWeatherSuccess(t *testing.T) {
	app := newTestApp(&stubService{current: &weather.AggregateResult{
		City: "Paris",
		Sources: []weather.SourceRecord{
			{Name: "Open-Meteo", Data: json.RawMessage(`{"temperature":15}`)},
			{Name: "WeatherAPI", Data: json.RawMessage(`{"temp_c":16}`)},
		},
	}})

	resp, body := doRequest(t, app, "/weather/current/Paris")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if body["city"] != "Paris" {
		t.Fatalf("expected city Paris, got %v", body["city"])
	}
	sources, ok := body["sources"].([]any)
	if !ok || len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %v", body["sources"])
	}
}

func TestCurrentWeatherCityNotFound(t *testing.T) {
	app := newTestApp(&stubService{err: &weather.NotFoundError{City: "InvalidCity"}})

	resp, body := doRequest(t, app, "/weather/current/InvalidCity")

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if body["message"] != "City 'InvalidCity' not found." {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestCurrentWeatherAllSourcesDown(t *testing.T) {
	app := newTestApp(&stubService{err: weather.ErrNoSources})

	resp, body := doRequest(t, app, "/weather/current/Paris")

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.StatusCode)
	}
	if body["message"] != "Could not retrieve weather data from any source." {
		t.Fatalf("unexpected message %q", body["message"])
	}
	if _, present := body["sources"]; present {
		t.Fatal("error body must not contain sources")
	}
}

func TestForecastAllSourcesDown(t *testing.T) {
	app := newTestApp(&stubService{err: weather.ErrNoSources})

	resp, body := doRequest(t, app, "/weather/forecast/Paris")

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.StatusCode)
	}
	if body["message"] != "Could not retrieve forecast data from any source." {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestUpstreamStatusPassesThrough(t *testing.T) {
	app := newTestApp(&stubService{err: &weather.UpstreamError{StatusCode: http.StatusForbidden, Message: "Failed to get coordinates for Paris."}})

	resp, body := doRequest(t, app, "/weather/current/Paris")

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.StatusCode)
	}
	if body["message"] != "Failed to get coordinates for Paris." {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestUnknownErrorIsGeneric500(t *testing.T) {
	app := newTestApp(&stubService{err: errors.New("pq: connection refused on 10.0.0.3")})

	resp, body := doRequest(t, app, "/weather/current/Paris")

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}
	if body["message"] != "An internal server error occurred." {
		t.Fatalf("internal detail leaked: %q", body["message"])
	}
}

func TestHistoryResponseShape(t *testing.T) {
	app := newTestApp(&stubService{history: &weather.HistoryResult{
		City: "Berlin",
		Data: json.RawMessage(`{"time":["2026-03-03","2026-03-04","2026-03-05","2026-03-06","2026-03-07","2026-03-08","2026-03-09","2026-03-10"],"temperature_2m_max":[5,6,7,8,9,10,11,12]}`),
	}})

	resp, body := doRequest(t, app, "/weather/history/Berlin")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if body["city"] != "Berlin" {
		t.Fatalf("expected city Berlin, got %v", body["city"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body["data"])
	}
	times, ok := data["time"].([]any)
	if !ok || len(times) != 8 {
		t.Fatalf("expected 8 dates in an inclusive 7-day window, got %v", data["time"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	lastUpdate := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	app := newTestApp(&stubService{stats: weather.Stats{
		TotalRecords:  42,
		UniqueCities:  7,
		UniqueSources: 3,
		LastUpdate:    &lastUpdate,
	}})

	resp, body := doRequest(t, app, "/weather/stats")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if body["total_records"] != float64(42) {
		t.Fatalf("expected 42 total records, got %v", body["total_records"])
	}
	if body["unique_cities"] != float64(7) {
		t.Fatalf("expected 7 unique cities, got %v", body["unique_cities"])
	}
}
