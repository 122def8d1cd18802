package weather

import (
	"fmt"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionDrizzle Condition = "drizzle"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// Location is a geocoded place. Name and coordinates are required;
// the remaining fields are filled when the geocoder knows them.
type Location struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode,omitempty"`
	Admin1      string  `json:"admin1,omitempty"`
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
}

// DefaultLocation is shown until a viewer picks a place.
var DefaultLocation = Location{
	Name:      "Berlin",
	Country:   "Germany",
	Latitude:  52.52,
	Longitude: 13.405,
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded so that the same place found by different
// geocoders lands on the same key.
func (l Location) Key() string {
	return fmt.Sprintf("%.3f:%.3f", l.Latitude, l.Longitude)
}

// Label renders "Name, Admin1, Country", skipping empty parts.
func (l Location) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.Admin1, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Current holds the instantaneous conditions of a forecast.
type Current struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity    int     `json:"relative_humidity_2m"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
	IsDay               int     `json:"is_day"`
}

// Hourly is the column-oriented hourly series. All slices share one index.
type Hourly struct {
	Time        []string  `json:"time"`
	Temperature []float64 `json:"temperature_2m"`
	WeatherCode []int     `json:"weather_code"`
}

// Daily is the column-oriented daily series. All slices share one index.
type Daily struct {
	Time           []string  `json:"time"`
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
	WeatherCode    []int     `json:"weather_code"`
}

// Forecast is a forecast window for one location. Times are ISO strings in
// the location's own time zone, as returned by the upstream API.
type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   Current `json:"current"`
	Hourly    Hourly  `json:"hourly"`
	Daily     Daily   `json:"daily"`
}

// HourlyPoint is one row of the hourly series.
type HourlyPoint struct {
	Time        string
	Temperature float64
	WeatherCode int
}

// HourlyPoints zips the hourly columns, stopping at the shortest one.
func (f Forecast) HourlyPoints() []HourlyPoint {
	n := minLen(len(f.Hourly.Time), len(f.Hourly.Temperature), len(f.Hourly.WeatherCode))
	out := make([]HourlyPoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, HourlyPoint{
			Time:        f.Hourly.Time[i],
			Temperature: f.Hourly.Temperature[i],
			WeatherCode: f.Hourly.WeatherCode[i],
		})
	}
	return out
}

// DailyPoint is one row of the daily series.
type DailyPoint struct {
	Date        string
	Max         float64
	Min         float64
	WeatherCode int
}

// DailyPoints zips the daily columns, stopping at the shortest one.
func (f Forecast) DailyPoints() []DailyPoint {
	n := minLen(len(f.Daily.Time), len(f.Daily.TemperatureMax), len(f.Daily.TemperatureMin), len(f.Daily.WeatherCode))
	out := make([]DailyPoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, DailyPoint{
			Date:        f.Daily.Time[i],
			Max:         f.Daily.TemperatureMax[i],
			Min:         f.Daily.TemperatureMin[i],
			WeatherCode: f.Daily.WeatherCode[i],
		})
	}
	return out
}

func minLen(ns ...int) int {
	m := ns[0]
	for _, n := range ns[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

// ForecastSnapshot is a forecast as fetched at a point in time.
type ForecastSnapshot struct {
	Location  Location  `json:"location"`
	FetchedAt time.Time `json:"fetchedAt"` // always UTC
	Forecast  Forecast  `json:"forecast"`
}
