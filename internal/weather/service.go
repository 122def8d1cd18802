package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/units"
)

// ErrLocationNotSelected is returned when a dashboard is requested without a place.
var ErrLocationNotSelected = errors.New("location not selected")

const (
	minQueryLength     = 2
	defaultSearchCount = 5
)

// Service orchestrates geocoding, forecast fetching and snapshot persistence.
type Service struct {
	store       Store
	forecaster  Forecaster
	geocoders   []Geocoder
	searchCount int
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *zap.SugaredLogger) ServiceOption {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithSearchCount caps the number of geocoding results per search.
func WithSearchCount(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.searchCount = n
		}
	}
}

// NewService creates a new Service. Geocoders are tried in order.
func NewService(store Store, forecaster Forecaster, geocoders []Geocoder, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		forecaster:  forecaster,
		geocoders:   geocoders,
		searchCount: defaultSearchCount,
		log:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchLocations geocodes query. Queries shorter than two characters
// return an empty result without calling upstream. The first geocoder with
// a non-empty answer wins; if every geocoder fails the last error is returned.
func (s *Service) SearchLocations(ctx context.Context, query string) ([]Location, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return []Location{}, nil
	}
	if len(s.geocoders) == 0 {
		return nil, fmt.Errorf("no geocoders configured")
	}

	var lastErr error
	for i, g := range s.geocoders {
		results, err := g.Search(ctx, query, s.searchCount)
		if err != nil {
			s.log.Warnw("geocoder failed", "geocoder", g.Name(), "query", query, "error", err)
			lastErr = err
			continue
		}
		if len(results) == 0 {
			s.log.Debugw("geocoder returned no results", "geocoder", g.Name(), "query", query)
			continue
		}
		if i > 0 {
			s.metrics.GeocoderFallback()
		}
		if len(results) > s.searchCount {
			results = results[:s.searchCount]
		}
		return results, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("search %q: %w", query, lastErr)
	}
	return []Location{}, nil
}

// GetForecast fetches a fresh forecast for loc and records it as the
// latest snapshot.
func (s *Service) GetForecast(ctx context.Context, loc Location) (Forecast, error) {
	if s.forecaster == nil {
		return Forecast{}, fmt.Errorf("no forecast provider configured")
	}

	fc, err := s.forecaster.FetchForecast(ctx, loc)
	if err != nil {
		return Forecast{}, fmt.Errorf("forecast for %s: %w", loc.Key(), err)
	}

	s.store.SaveSnapshot(loc, ForecastSnapshot{
		Location:  loc,
		FetchedAt: time.Now().UTC(),
		Forecast:  fc,
	})
	return fc, nil
}

// Refresh is the scheduled variant of GetForecast. A failed fetch leaves
// the last good snapshot in place.
func (s *Service) Refresh(ctx context.Context, loc Location) error {
	if _, err := s.GetForecast(ctx, loc); err != nil {
		s.log.Warnw("refresh failed; keeping last good snapshot", "location", loc.Label(), "error", err)
		return err
	}
	s.log.Debugw("refreshed forecast", "location", loc.Label())
	return nil
}

// DashboardRequest describes one dashboard render.
type DashboardRequest struct {
	Location  *Location
	Units     units.Preferences
	Day       string
	Formatter *units.Formatter
	// FallbackDay shows the first day instead of failing when Day is not
	// in the fetched forecast. Used for days remembered from earlier visits.
	FallbackDay bool
}

// Dashboard fetches the forecast for req.Location and formats it.
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (Dashboard, error) {
	if req.Location == nil {
		return Dashboard{}, ErrLocationNotSelected
	}
	if err := req.Units.Validate(); err != nil {
		return Dashboard{}, err
	}
	f := req.Formatter
	if f == nil {
		f = units.NewFormatter(nil)
	}

	fc, err := s.GetForecast(ctx, *req.Location)
	if err != nil {
		return Dashboard{}, err
	}

	day := req.Day
	if req.FallbackDay && day != "" {
		if _, err := SelectDayIndex(fc.DailyPoints(), day); err != nil {
			s.log.Debugw("selected day outside forecast window", "day", day)
			day = ""
		}
	}

	d, err := BuildDashboard(*req.Location, fc, req.Units, day, f)
	if err != nil {
		return Dashboard{}, err
	}
	s.metrics.DashboardRendered(d.Locale, d.Imperial)
	return d, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (ForecastSnapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]ForecastSnapshot, error) {
	return s.store.GetRange(loc, from, to)
}
