package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dkotenko/weather-aggregation-api/internal/weather"
	"github.com/sony/gobreaker"
)

const archiveDateLayout = "2006-01-02"

// OpenMeteoArchiveProvider serves historical daily maxima from the Open-Meteo
// archive API. It is the single provider behind history queries.
type OpenMeteoArchiveProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoArchiveProvider(client *http.Client) *OpenMeteoArchiveProvider {
	return &OpenMeteoArchiveProvider{
		name:    "Open-Meteo-Archive",
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("openmeteo-archive"),
	}
}

func (p *OpenMeteoArchiveProvider) Name() string {
	return p.name
}

// FetchRange returns the "daily" sub-document for [start, end], inclusive on
// both sides, so a 7-day window yields 8 dated entries.
func (p *OpenMeteoArchiveProvider) FetchRange(ctx context.Context, loc weather.Location, start, end time.Time) (json.RawMessage, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", loc.Longitude))
		values.Set("start_date", start.Format(archiveDateLayout))
		values.Set("end_date", end.Format(archiveDateLayout))
		values.Set("daily", "temperature_2m_max")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily json.RawMessage `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Daily, nil
}
