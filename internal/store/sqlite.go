package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// SettingsStore persists client settings in a SQLite database.
type SettingsStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// OpenSettingsStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSettingsStore(path string, log *zap.SugaredLogger) (*SettingsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	// SQLite allows one writer; an in-memory database is also per connection.
	db.SetMaxOpenConns(1)

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &SettingsStore{db: db, log: log.Named("settings-db")}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SettingsStore) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS client_settings (
			client_id TEXT PRIMARY KEY,
			temperature_unit TEXT NOT NULL,
			wind_speed_unit TEXT NOT NULL,
			precipitation_unit TEXT NOT NULL,
			location TEXT,
			selected_day TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create client_settings table: %w", err)
	}
	return nil
}

// Get loads the settings of clientID or returns settings.ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, clientID string) (settings.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT client_id, temperature_unit, wind_speed_unit, precipitation_unit, location, selected_day, updated_at
		FROM client_settings WHERE client_id = ?`, clientID)

	var (
		st                 settings.Settings
		temp, wind, precip string
		location           sql.NullString
		updatedAt          string
	)
	err := row.Scan(&st.ClientID, &temp, &wind, &precip, &location, &st.SelectedDay, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Settings{}, settings.ErrNotFound
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}

	st.Units = units.Preferences{
		Temperature:   units.TemperatureUnit(temp),
		WindSpeed:     units.WindSpeedUnit(wind),
		Precipitation: units.PrecipitationUnit(precip),
	}
	if location.Valid && location.String != "" {
		var loc weather.Location
		if err := json.Unmarshal([]byte(location.String), &loc); err != nil {
			return settings.Settings{}, fmt.Errorf("failed to decode stored location: %w", err)
		}
		st.Location = &loc
	}
	if st.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		s.log.Warnw("bad updated_at in settings row", "client", clientID, "value", updatedAt)
	}
	return st, nil
}

// Save inserts or replaces the settings row of st.ClientID.
func (s *SettingsStore) Save(ctx context.Context, st settings.Settings) error {
	var location sql.NullString
	if st.Location != nil {
		b, err := json.Marshal(st.Location)
		if err != nil {
			return fmt.Errorf("failed to encode location: %w", err)
		}
		location = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_settings
		(client_id, temperature_unit, wind_speed_unit, precipitation_unit, location, selected_day, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			temperature_unit = excluded.temperature_unit,
			wind_speed_unit = excluded.wind_speed_unit,
			precipitation_unit = excluded.precipitation_unit,
			location = excluded.location,
			selected_day = excluded.selected_day,
			updated_at = excluded.updated_at`,
		st.ClientID,
		string(st.Units.Temperature),
		string(st.Units.WindSpeed),
		string(st.Units.Precipitation),
		location,
		st.SelectedDay,
		st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SettingsStore) Close() error {
	return s.db.Close()
}
