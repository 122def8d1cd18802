// Package units converts and formats raw forecast values for display.
package units

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when an argument cannot be interpreted,
// e.g. an unknown unit name or a malformed ISO date.
var ErrInvalidInput = errors.New("invalid input")

// TemperatureUnit selects how temperatures are displayed.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// Valid reports whether u is a known temperature unit.
func (u TemperatureUnit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// WindSpeedUnit selects how wind speeds are displayed.
type WindSpeedUnit string

const (
	KilometersPerHour WindSpeedUnit = "kmh"
	MilesPerHour      WindSpeedUnit = "mph"
)

func (u WindSpeedUnit) Valid() bool {
	return u == KilometersPerHour || u == MilesPerHour
}

// PrecipitationUnit selects how precipitation amounts are displayed.
type PrecipitationUnit string

const (
	Millimeters PrecipitationUnit = "mm"
	Inches      PrecipitationUnit = "inch"
)

func (u PrecipitationUnit) Valid() bool {
	return u == Millimeters || u == Inches
}

// ParseTemperatureUnit converts a raw string into a TemperatureUnit.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	u := TemperatureUnit(s)
	if !u.Valid() {
		return "", fmt.Errorf("%w: temperature unit %q", ErrInvalidInput, s)
	}
	return u, nil
}

// ParseWindSpeedUnit converts a raw string into a WindSpeedUnit.
func ParseWindSpeedUnit(s string) (WindSpeedUnit, error) {
	u := WindSpeedUnit(s)
	if !u.Valid() {
		return "", fmt.Errorf("%w: wind speed unit %q", ErrInvalidInput, s)
	}
	return u, nil
}

// ParsePrecipitationUnit converts a raw string into a PrecipitationUnit.
func ParsePrecipitationUnit(s string) (PrecipitationUnit, error) {
	u := PrecipitationUnit(s)
	if !u.Valid() {
		return "", fmt.Errorf("%w: precipitation unit %q", ErrInvalidInput, s)
	}
	return u, nil
}

// Preferences is the unit selection for a single viewer. It is passed by
// value into every formatting call; nothing in this package keeps it.
type Preferences struct {
	Temperature   TemperatureUnit   `json:"temperatureUnit" validate:"required,oneof=celsius fahrenheit"`
	WindSpeed     WindSpeedUnit     `json:"windSpeedUnit" validate:"required,oneof=kmh mph"`
	Precipitation PrecipitationUnit `json:"precipitationUnit" validate:"required,oneof=mm inch"`
}

// Metric returns the default preferences.
func Metric() Preferences {
	return Preferences{
		Temperature:   Celsius,
		WindSpeed:     KilometersPerHour,
		Precipitation: Millimeters,
	}
}

// Imperial returns fahrenheit/mph/inch preferences.
func Imperial() Preferences {
	return Preferences{
		Temperature:   Fahrenheit,
		WindSpeed:     MilesPerHour,
		Precipitation: Inches,
	}
}

// IsImperial is true only when all three units are imperial.
func (p Preferences) IsImperial() bool {
	return p.Temperature == Fahrenheit &&
		p.WindSpeed == MilesPerHour &&
		p.Precipitation == Inches
}

// Validate checks every unit of p.
func (p Preferences) Validate() error {
	if !p.Temperature.Valid() {
		return fmt.Errorf("%w: temperature unit %q", ErrInvalidInput, p.Temperature)
	}
	if !p.WindSpeed.Valid() {
		return fmt.Errorf("%w: wind speed unit %q", ErrInvalidInput, p.WindSpeed)
	}
	if !p.Precipitation.Valid() {
		return fmt.Errorf("%w: precipitation unit %q", ErrInvalidInput, p.Precipitation)
	}
	return nil
}
