package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultForecastBaseURL  = "https://api.open-meteo.com/v1"
	DefaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"
	defaultForecastDays     = 7

	currentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,precipitation,weather_code,is_day"
	hourlyFields  = "temperature_2m,weather_code"
	dailyFields   = "temperature_2m_max,temperature_2m_min,weather_code"
)

// OpenMeteoConfig points the client at the forecast and geocoding APIs.
// Zero values fall back to the public endpoints and a 7 day window.
type OpenMeteoConfig struct {
	ForecastBaseURL  string
	GeocodingBaseURL string
	ForecastDays     int
}

// OpenMeteo implements weather.Forecaster and weather.Geocoder.
type OpenMeteo struct {
	name         string
	forecastURL  string
	geocodingURL string
	days         int

	httpCfg     HTTPClientConfig
	forecastCB  *gobreaker.CircuitBreaker
	geocodingCB *gobreaker.CircuitBreaker
	metrics     *metrics.Metrics
}

func NewOpenMeteo(client *http.Client, cfg OpenMeteoConfig, m *metrics.Metrics) *OpenMeteo {
	if cfg.ForecastBaseURL == "" {
		cfg.ForecastBaseURL = DefaultForecastBaseURL
	}
	if cfg.GeocodingBaseURL == "" {
		cfg.GeocodingBaseURL = DefaultGeocodingBaseURL
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = defaultForecastDays
	}

	return &OpenMeteo{
		name:         "openmeteo",
		forecastURL:  strings.TrimRight(cfg.ForecastBaseURL, "/") + "/forecast",
		geocodingURL: strings.TrimRight(cfg.GeocodingBaseURL, "/") + "/search",
		days:         cfg.ForecastDays,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		forecastCB:  newCircuitBreaker("openmeteo-forecast"),
		geocodingCB: newCircuitBreaker("openmeteo-geocoding"),
		metrics:     m,
	}
}

func (p *OpenMeteo) Name() string {
	return p.name
}

// FetchForecast returns current conditions plus the hourly and daily series,
// with times in the location's own time zone.
func (p *OpenMeteo) FetchForecast(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("current", currentFields)
		values.Set("hourly", hourlyFields)
		values.Set("daily", dailyFields)
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(p.days))

		return http.NewRequest(http.MethodGet, p.forecastURL+"?"+values.Encode(), nil)
	}

	resp, err := observedRequest(ctx, p.metrics, p.name, "forecast", p.httpCfg, p.forecastCB, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var fc weather.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode openmeteo forecast: %w", err)
	}
	return fc, nil
}

type geocodingResponse struct {
	Results []struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Country     string  `json:"country"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
	} `json:"results"`
}

// Search geocodes query. A response without results yields an empty slice.
func (p *OpenMeteo) Search(ctx context.Context, query string, count int) ([]weather.Location, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", query)
		values.Set("count", strconv.Itoa(count))
		values.Set("language", "en")
		values.Set("format", "json")

		return http.NewRequest(http.MethodGet, p.geocodingURL+"?"+values.Encode(), nil)
	}

	resp, err := observedRequest(ctx, p.metrics, p.name, "geocoding", p.httpCfg, p.geocodingCB, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo geocoding: %w", err)
	}

	out := make([]weather.Location, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, weather.Location{
			ID:          r.ID,
			Name:        r.Name,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Admin1:      r.Admin1,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	return out, nil
}
