package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const EnvProduction = "production"

type AppConfig struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	HTTPTimeout      time.Duration `validate:"gt=0"`
	ForecastBaseURL  string        `validate:"required,url"`
	GeocodingBaseURL string        `validate:"required,url"`

	// Empty disables the Google fallback geocoder.
	GoogleGeocoderAPIKey string

	DefaultLocale     string `validate:"required"`
	ForecastDays      int    `validate:"min=1,max=16"`
	SearchResultCount int    `validate:"min=1,max=20"`

	// FetchInterval controls how often we refresh data for each location.
	FetchInterval time.Duration `validate:"gt=0"`

	// Locations kept warm by the scheduler.
	Locations []weather.Location `validate:"dive"`

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of snapshots (0 = unlimited)

	SettingsDBPath string `validate:"required"`
}

// IsProduction reports whether ENVIRONMENT is "production".
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load reads a .env file if present, then the environment, applying
// defaults for everything unset.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	bindings := []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "HTTP_TIMEOUT",
		"FORECAST_BASE_URL", "GEOCODING_BASE_URL", "GOOGLE_GEOCODER_API_KEY",
		"DEFAULT_LOCALE", "FORECAST_DAYS", "SEARCH_RESULT_COUNT",
		"FETCH_INTERVAL", "STORE_MAX_HISTORY", "STORE_MAX_AGE",
		"SETTINGS_DB_PATH", "WEATHER_LOCATIONS",
	}
	for _, key := range bindings {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &AppConfig{
		Port:                 v.GetString("PORT"),
		Environment:          v.GetString("ENVIRONMENT"),
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		ForecastBaseURL:      v.GetString("FORECAST_BASE_URL"),
		GeocodingBaseURL:     v.GetString("GEOCODING_BASE_URL"),
		GoogleGeocoderAPIKey: v.GetString("GOOGLE_GEOCODER_API_KEY"),
		DefaultLocale:        v.GetString("DEFAULT_LOCALE"),
		SettingsDBPath:       v.GetString("SETTINGS_DB_PATH"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = duration(v, "FETCH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = duration(v, "STORE_MAX_AGE"); err != nil {
		return nil, err
	}
	if cfg.ForecastDays, err = integer(v, "FORECAST_DAYS"); err != nil {
		return nil, err
	}
	if cfg.SearchResultCount, err = integer(v, "SEARCH_RESULT_COUNT"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxHistory, err = integer(v, "STORE_MAX_HISTORY"); err != nil {
		return nil, err
	}
	if cfg.Locations, err = ParseLocations(v.GetString("WEATHER_LOCATIONS")); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_LOCATIONS: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1")
	v.SetDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com/v1")
	v.SetDefault("GOOGLE_GEOCODER_API_KEY", "")
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("FORECAST_DAYS", 7)
	v.SetDefault("SEARCH_RESULT_COUNT", 5)
	v.SetDefault("FETCH_INTERVAL", "15m")
	v.SetDefault("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	v.SetDefault("STORE_MAX_AGE", "24h")
	v.SetDefault("SETTINGS_DB_PATH", "weather-settings.db")
	v.SetDefault("WEATHER_LOCATIONS", "Berlin|Germany|52.52|13.405")
}

// viper's GetDuration and GetInt swallow parse errors, so values are parsed here.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func integer(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// ParseLocations parses "Name|Country|lat|lon" entries separated by ";".
// Blank entries are skipped.
func ParseLocations(raw string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 4 {
			return nil, fmt.Errorf("entry %q: want Name|Country|lat|lon", entry)
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err := errors.Join(errLat, errLon); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		locs = append(locs, weather.Location{
			Name:      strings.TrimSpace(parts[0]),
			Country:   strings.TrimSpace(parts[1]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return locs, nil
}
