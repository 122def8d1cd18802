package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	applog "github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so fall back to a default one here.
		zap.NewExample().Sugar().Fatalw("failed to load config", "error", err)
	}

	log, err := applog.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to build logger", "error", err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("weather-dashboard stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *zap.SugaredLogger) error {
	m := metrics.New()

	locales, err := units.NewLocales(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory snapshot store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	settingsDB, err := store.OpenSettingsStore(cfg.SettingsDBPath, log)
	if err != nil {
		return err
	}
	defer settingsDB.Close()

	// Open-Meteo serves forecasts and geocoding; Google is a keyed fallback.
	openMeteo := providers.NewOpenMeteo(httpClient, providers.OpenMeteoConfig{
		ForecastBaseURL:  cfg.ForecastBaseURL,
		GeocodingBaseURL: cfg.GeocodingBaseURL,
		ForecastDays:     cfg.ForecastDays,
	}, m)
	geocoders := []weather.Geocoder{openMeteo}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey, m))
	}

	service := weather.NewService(memStore, openMeteo, geocoders,
		weather.WithLogger(log.Named("weather")),
		weather.WithMetrics(m),
		weather.WithSearchCount(cfg.SearchResultCount),
	)
	settingsService := settings.NewService(settingsDB, weather.DefaultLocation, log.Named("settings"))

	// Scheduler that periodically refreshes the configured locations.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, service, log, m)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler(log.Named("http")),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:  service,
		Settings: settingsService,
		Locales:  locales,
		Metrics:  m,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "port", cfg.Port, "environment", cfg.Environment, "locales", locales.Supported())
		errCh <- app.Listen(":" + cfg.Port)
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warnw("error during shutdown", "error", err)
	}
	return nil
}
