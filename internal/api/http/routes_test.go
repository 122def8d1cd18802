package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubForecaster struct {
	err   error
	calls atomic.Int32
}

func (s *stubForecaster) Name() string { return "stub" }

func (s *stubForecaster) FetchForecast(context.Context, weather.Location) (weather.Forecast, error) {
	s.calls.Add(1)
	if s.err != nil {
		return weather.Forecast{}, s.err
	}
	return fixtureForecast(), nil
}

type stubGeocoder struct{}

func (stubGeocoder) Name() string { return "stub" }

func (stubGeocoder) Search(_ context.Context, query string, _ int) ([]weather.Location, error) {
	return []weather.Location{{Name: query, Country: "Germany", Latitude: 52.52, Longitude: 13.405}}, nil
}

func fixtureForecast() weather.Forecast {
	fc := weather.Forecast{
		Timezone: "Europe/Berlin",
		Current: weather.Current{
			Time:                "2025-03-14T15:00",
			Temperature:         21.4,
			ApparentTemperature: 19.8,
			RelativeHumidity:    48,
			WindSpeed:           16,
			Precipitation:       25.4,
			WeatherCode:         2,
			IsDay:               1,
		},
		Daily: weather.Daily{
			Time:           []string{"2025-03-14", "2025-03-15", "2025-03-16"},
			TemperatureMax: []float64{22, 18, 15},
			TemperatureMin: []float64{6.5, 5, 3},
			WeatherCode:    []int{2, 61, 71},
		},
	}
	for _, day := range fc.Daily.Time {
		for h := 0; h < 24; h++ {
			fc.Hourly.Time = append(fc.Hourly.Time, fmt.Sprintf("%sT%02d:00", day, h))
			fc.Hourly.Temperature = append(fc.Hourly.Temperature, float64(h))
			fc.Hourly.WeatherCode = append(fc.Hourly.WeatherCode, 0)
		}
	}
	return fc
}

type testEnv struct {
	app      *fiber.App
	settings *settings.Service
	fc       *stubForecaster
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.OpenSettingsStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	locales, err := units.NewLocales("en")
	require.NoError(t, err)

	m := metrics.New()
	fc := &stubForecaster{}
	weatherSvc := weather.NewService(store.NewMemoryStore(10, time.Hour), fc, []weather.Geocoder{stubGeocoder{}}, weather.WithMetrics(m))
	settingsSvc := settings.NewService(db, weather.DefaultLocation, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	RegisterRoutes(app, Deps{Weather: weatherSvc, Settings: settingsSvc, Locales: locales, Metrics: m})

	return &testEnv{app: app, settings: settingsSvc, fc: fc, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, header ...string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, data []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(data, &e))
	assert.True(t, e.Error)
	return e
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, data := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"status":"ok"`)
}

func TestLocationSearch(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/locations/search?q=B", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results": []}`, string(data))

	resp, data = env.do(t, http.MethodGet, "/api/v1/locations/search?q=Berlin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []weather.Location `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Berlin", out.Results[0].Name)
}

func TestForecastValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/forecast?lon=13.4", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Message, "lat")

	resp, _ = env.do(t, http.MethodGet, "/api/v1/forecast?lat=91&lon=13.4", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/forecast?lat=52.52&lon=13.405", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDashboardWithoutLocation(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Location not selected", decodeError(t, data).Message)
}

func TestDashboardQueryOverrides(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{}
	q.Set("lat", "52.52")
	q.Set("lon", "13.405")
	q.Set("name", "Berlin")
	q.Set("country", "Germany")
	q.Set("temperature", "fahrenheit")
	q.Set("precipitation", "inch")
	q.Set("day", "1")

	resp, data := env.do(t, http.MethodGet, "/api/v1/dashboard?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var d weather.Dashboard
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "Berlin, Germany", d.Location)
	assert.Equal(t, "en", d.Locale)
	assert.Equal(t, "Friday, Mar 14, 2025", d.Date)
	assert.Equal(t, "71°", d.Current.Temperature)
	assert.False(t, d.Imperial)
	assert.Contains(t, d.Metrics, weather.Metric{Label: "Precipitation", Value: "1 in"})
	assert.Contains(t, d.Metrics, weather.Metric{Label: "Wind", Value: "16 km/h"})
	assert.Equal(t, "2025-03-15", d.Hourly.SelectedDay)
	require.Len(t, d.Hourly.Hours, 8)
	assert.Equal(t, "6 AM", d.Hourly.Hours[0].Hour)
}

func TestDashboardLocaleFromAcceptLanguage(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405", nil,
		"Accept-Language", "de-DE,de;q=0.9,en;q=0.5")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var d weather.Dashboard
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "de", d.Locale)
	assert.True(t, strings.HasPrefix(d.Date, "Freitag"), d.Date)

	resp, data = env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405&locale=en", nil,
		"Accept-Language", "de")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "en", d.Locale)
}

func TestDashboardUsesClientSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st, err := env.settings.Create(ctx)
	require.NoError(t, err)
	_, err = env.settings.SwitchToImperial(ctx, st.ClientID)
	require.NoError(t, err)
	// A day that is no longer in the forecast falls back to the first day.
	_, err = env.settings.SetSelectedDay(ctx, st.ClientID, "2025-01-01")
	require.NoError(t, err)

	resp, data := env.do(t, http.MethodGet, "/api/v1/dashboard?client="+st.ClientID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var d weather.Dashboard
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "Berlin, Germany", d.Location)
	assert.True(t, d.Imperial)
	assert.Equal(t, 0, d.Hourly.SelectedIndex)
	assert.Contains(t, d.Metrics, weather.Metric{Label: "Wind", Value: "10 mph"})
	assert.EqualValues(t, 1, env.fc.calls.Load())

	resp, data = env.do(t, http.MethodGet, "/api/v1/dashboard?temperature=celsius&client="+st.ClientID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &d))
	assert.Equal(t, "21°", d.Current.Temperature)
	assert.False(t, d.Imperial)
}

func TestDashboardErrors(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405&wind=knots", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405&day=9", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/dashboard?client=6f1c3a4e-8f0a-4d5e-9b1c-2a3b4c5d6e7f", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.fc.err = errors.New("upstream down")
	resp, data := env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "failed to fetch forecast", decodeError(t, data).Message)
}

func TestLatestAndHistory(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/weather/latest?lat=52.52&lon=13.405", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/forecast?lat=52.52&lon=13.405", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := env.do(t, http.MethodGet, "/api/v1/weather/latest?lat=52.52&lon=13.405", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap weather.ForecastSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 21.4, snap.Forecast.Current.Temperature)

	from := time.Now().Add(-time.Hour).Unix()
	to := time.Now().Add(time.Hour).Unix()
	resp, data = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/weather/history?lat=52.52&lon=13.405&from=%d&to=%d", from, to), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"snapshots":[`)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/weather/history?lat=52.52&lon=13.405", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/weather/history?lat=52.52&lon=13.405&from=%d&to=%d", to, from), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPost, "/api/v1/settings", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var st settings.Settings
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, units.Metric(), st.Units)

	base := "/api/v1/settings/" + st.ClientID

	resp, data = env.do(t, http.MethodPatch, base, strings.NewReader(
		`{"windSpeedUnit":"mph","location":{"name":"Paris","country":"France","latitude":48.8566,"longitude":2.3522},"selectedDay":"2025-03-15"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, units.MilesPerHour, st.Units.WindSpeed)
	assert.Equal(t, "Paris", st.Location.Name)
	assert.Equal(t, "2025-03-15", st.SelectedDay)

	resp, _ = env.do(t, http.MethodPatch, base, strings.NewReader(`{"location":{"name":"","latitude":1,"longitude":1}}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPatch, base, strings.NewReader(`{"temperatureUnit":"kelvin"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = env.do(t, http.MethodPost, base+"/imperial", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, units.Imperial(), st.Units)

	resp, data = env.do(t, http.MethodPost, base+"/metric", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, units.Metric(), st.Units)

	resp, data = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "Paris", st.Location.Name)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/settings/6f1c3a4e-8f0a-4d5e-9b1c-2a3b4c5d6e7f", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/settings/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFormatEndpoints(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  string
	}{
		{"value=21.4&kind=temperature", "21°"},
		{"value=-17.22&kind=temperature&unit=fahrenheit", "1°"},
		{"value=16&kind=wind&unit=mph", "10 mph"},
		{"value=25.4&kind=precipitation&unit=inch", "1 in"},
		{"value=5.2&kind=precipitation", "5"},
	}
	for _, tt := range tests {
		resp, data := env.do(t, http.MethodGet, "/api/v1/format?"+tt.query, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, tt.query)
		var out struct {
			Formatted string `json:"formatted"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, tt.want, out.Formatted, tt.query)
	}

	resp, _ := env.do(t, http.MethodGet, "/api/v1/format?value=1&kind=pressure", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/v1/format?value=warm&kind=temperature", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/v1/format?value=1&kind=wind&unit=knots", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := env.do(t, http.MethodGet, "/api/v1/format?value=99999999999999999999999&kind=temperature", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, data).Message, "out of range")
}

func TestFormatDateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  string
	}{
		{"value=2025-03-14", "Friday, Mar 14, 2025"},
		{"value=2025-03-14&style=day-short", "Fri"},
		{"value=2025-03-14&style=day-long", "Friday"},
		{"value=2025-03-14T15:00&style=hour", "3 PM"},
	}
	for _, tt := range tests {
		resp, data := env.do(t, http.MethodGet, "/api/v1/format/date?"+tt.query, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, tt.query)
		var out struct {
			Formatted string `json:"formatted"`
		}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, tt.want, out.Formatted, tt.query)
	}

	resp, _ := env.do(t, http.MethodGet, "/api/v1/format/date?value=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/v1/format/date?value=2025-03-14&style=iso", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/dashboard?lat=52.52&lon=13.405", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `weather_dashboard_views_total{locale="en",system="metric"} 1`)
}
