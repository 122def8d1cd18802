package weather

import (
	"context"
	"time"
)

// Forecaster abstracts a forecast data source (e.g. Open-Meteo).
type Forecaster interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location) (Forecast, error)
}

// Geocoder resolves a free-text place name to candidate locations.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Location, error)
}

// Store is the contract the in-memory snapshot store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot ForecastSnapshot)
	GetLatest(loc Location) (ForecastSnapshot, error)
	GetRange(loc Location, from, to time.Time) ([]ForecastSnapshot, error)
}
