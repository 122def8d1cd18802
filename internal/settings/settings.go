// Package settings keeps each viewer's unit preferences, selected location
// and selected day between visits.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrNotFound is returned for unknown client ids.
var ErrNotFound = errors.New("settings not found")

// Settings is the persisted state of one client.
type Settings struct {
	ClientID    string            `json:"clientId"`
	Units       units.Preferences `json:"units"`
	Location    *weather.Location `json:"location,omitempty"`
	SelectedDay string            `json:"selectedDay"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Store persists Settings keyed by client id.
type Store interface {
	Get(ctx context.Context, clientID string) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Temperature   *units.TemperatureUnit   `json:"temperatureUnit,omitempty"`
	WindSpeed     *units.WindSpeedUnit     `json:"windSpeedUnit,omitempty"`
	Precipitation *units.PrecipitationUnit `json:"precipitationUnit,omitempty"`
	Location      *weather.Location        `json:"location,omitempty"`
	SelectedDay   *string                  `json:"selectedDay,omitempty"`
}

// Service applies setting changes on top of a Store.
type Service struct {
	store           Store
	defaultLocation weather.Location
	log             *zap.SugaredLogger

	// Serializes read-modify-write cycles.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewService creates a Service. New clients start with metric units and
// defaultLocation.
func NewService(store Store, defaultLocation weather.Location, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		store:           store,
		defaultLocation: defaultLocation,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
}

// Create issues a new client id with default settings.
func (s *Service) Create(ctx context.Context) (Settings, error) {
	loc := s.defaultLocation
	st := Settings{
		ClientID:  s.newID(),
		Units:     units.Metric(),
		Location:  &loc,
		UpdatedAt: s.now(),
	}
	if err := s.store.Save(ctx, st); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.log.Debugw("created client settings", "client", st.ClientID)
	return st, nil
}

// Get loads the settings of clientID.
func (s *Service) Get(ctx context.Context, clientID string) (Settings, error) {
	if err := validateID(clientID); err != nil {
		return Settings{}, err
	}
	return s.store.Get(ctx, clientID)
}

// Apply validates p and merges it into the stored settings.
func (s *Service) Apply(ctx context.Context, clientID string, p Patch) (Settings, error) {
	return s.update(ctx, clientID, func(st *Settings) error {
		if p.Temperature != nil {
			if !p.Temperature.Valid() {
				return fmt.Errorf("%w: temperature unit %q", units.ErrInvalidInput, *p.Temperature)
			}
			st.Units.Temperature = *p.Temperature
		}
		if p.WindSpeed != nil {
			if !p.WindSpeed.Valid() {
				return fmt.Errorf("%w: wind speed unit %q", units.ErrInvalidInput, *p.WindSpeed)
			}
			st.Units.WindSpeed = *p.WindSpeed
		}
		if p.Precipitation != nil {
			if !p.Precipitation.Valid() {
				return fmt.Errorf("%w: precipitation unit %q", units.ErrInvalidInput, *p.Precipitation)
			}
			st.Units.Precipitation = *p.Precipitation
		}
		if p.Location != nil {
			if err := validateLocation(*p.Location); err != nil {
				return err
			}
			loc := *p.Location
			st.Location = &loc
		}
		if p.SelectedDay != nil {
			day := strings.TrimSpace(*p.SelectedDay)
			if day != "" {
				if _, err := units.ParseISO(day); err != nil {
					return err
				}
			}
			st.SelectedDay = day
		}
		return nil
	})
}

func (s *Service) SetTemperatureUnit(ctx context.Context, clientID string, u units.TemperatureUnit) (Settings, error) {
	return s.Apply(ctx, clientID, Patch{Temperature: &u})
}

func (s *Service) SetWindSpeedUnit(ctx context.Context, clientID string, u units.WindSpeedUnit) (Settings, error) {
	return s.Apply(ctx, clientID, Patch{WindSpeed: &u})
}

func (s *Service) SetPrecipitationUnit(ctx context.Context, clientID string, u units.PrecipitationUnit) (Settings, error) {
	return s.Apply(ctx, clientID, Patch{Precipitation: &u})
}

func (s *Service) SetLocation(ctx context.Context, clientID string, loc weather.Location) (Settings, error) {
	return s.Apply(ctx, clientID, Patch{Location: &loc})
}

func (s *Service) SetSelectedDay(ctx context.Context, clientID, day string) (Settings, error) {
	return s.Apply(ctx, clientID, Patch{SelectedDay: &day})
}

// SwitchToImperial sets all three units to fahrenheit/mph/inch.
func (s *Service) SwitchToImperial(ctx context.Context, clientID string) (Settings, error) {
	return s.update(ctx, clientID, func(st *Settings) error {
		st.Units = units.Imperial()
		return nil
	})
}

// SwitchToMetric sets all three units to celsius/kmh/mm.
func (s *Service) SwitchToMetric(ctx context.Context, clientID string) (Settings, error) {
	return s.update(ctx, clientID, func(st *Settings) error {
		st.Units = units.Metric()
		return nil
	})
}

func (s *Service) update(ctx context.Context, clientID string, fn func(*Settings) error) (Settings, error) {
	if err := validateID(clientID); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Get(ctx, clientID)
	if err != nil {
		return Settings{}, err
	}
	if err := fn(&st); err != nil {
		return Settings{}, err
	}
	st.UpdatedAt = s.now()

	if err := s.store.Save(ctx, st); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}

func validateID(clientID string) error {
	if _, err := uuid.Parse(clientID); err != nil {
		return fmt.Errorf("%w: client id %q", units.ErrInvalidInput, clientID)
	}
	return nil
}

func validateLocation(loc weather.Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: location name is required", units.ErrInvalidInput)
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("%w: coordinates %f,%f out of range", units.ErrInvalidInput, loc.Latitude, loc.Longitude)
	}
	return nil
}
