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

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// The payload handed back is the relevant sub-document of the API response,
// untouched: "current_weather" for current conditions, "daily" for forecasts.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "Open-Meteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, loc weather.Location) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", loc.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", loc.Longitude))
	values.Set("current_weather", "true")

	var payload struct {
		CurrentWeather json.RawMessage `json:"current_weather"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}
	return payload.CurrentWeather, nil
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", loc.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", loc.Longitude))
	values.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min")
	values.Set("timezone", "auto")

	var payload struct {
		Daily json.RawMessage `json:"daily"`
	}
	if err := p.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}
	return payload.Daily, nil
}

func (p *OpenMeteoProvider) getJSON(ctx context.Context, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
