package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dkotenko/weather-aggregation-api/internal/weather"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements the weather.Provider interface for
// WeatherAPI.com. Current conditions come from the "current" sub-document,
// forecasts from "forecast.forecastday".
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "WeatherAPI",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, loc weather.Location) (json.RawMessage, error) {
	var payload struct {
		Current json.RawMessage `json:"current"`
	}
	if err := p.getJSON(ctx, "/current.json", loc, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Current, nil
}

func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location) (json.RawMessage, error) {
	extra := url.Values{}
	extra.Set("days", "7")

	var payload struct {
		Forecast struct {
			ForecastDay json.RawMessage `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := p.getJSON(ctx, "/forecast.json", loc, extra, &payload); err != nil {
		return nil, err
	}
	return payload.Forecast.ForecastDay, nil
}

func (p *WeatherAPIProvider) getJSON(ctx context.Context, path string, loc weather.Location, extra url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI takes "q" as "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude))
		for k, vs := range extra {
			for _, v := range vs {
				values.Set(k, v)
			}
		}

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
