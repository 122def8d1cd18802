package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func openTestStore(t *testing.T) *SettingsStore {
	t.Helper()
	s, err := OpenSettingsStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsStoreNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestSettingsStoreUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	loc := weather.DefaultLocation
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	st := settings.Settings{
		ClientID:  "c1",
		Units:     units.Metric(),
		Location:  &loc,
		UpdatedAt: at,
	}
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st.Units = units.Imperial()
	st.Location = nil
	st.SelectedDay = "2025-03-15"
	st.UpdatedAt = at.Add(time.Hour)
	require.NoError(t, s.Save(ctx, st))

	got, err = s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, units.Imperial(), got.Units)
	assert.Nil(t, got.Location)
	assert.Equal(t, "2025-03-15", got.SelectedDay)
	assert.True(t, got.UpdatedAt.Equal(at.Add(time.Hour)))
}

func TestSettingsStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	s, err := OpenSettingsStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, settings.Settings{ClientID: "c1", Units: units.Imperial(), UpdatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = OpenSettingsStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.Units.IsImperial())
}
