package units

import (
	"fmt"
	"math"
	"strconv"
)

const (
	mphPerKmh  = 0.621371
	inchPerMm  = 0.0393701
	degreeMark = "°"

	// Far outside any real reading, and small enough that a converted and
	// rounded value still fits in an int.
	maxReading = 1e15
)

// CheckReading rejects values the formatters cannot render: NaN, infinities
// and magnitudes beyond maxReading.
func CheckReading(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxReading {
		return fmt.Errorf("%w: reading %v out of range", ErrInvalidInput, v)
	}
	return nil
}

// CelsiusToFahrenheit converts and rounds to the nearest whole degree.
// Rounding is math.Round: halves go away from zero.
func CelsiusToFahrenheit(celsius float64) int {
	return roundInt(celsius*9/5 + 32)
}

// KmhToMph converts and rounds to the nearest whole mile per hour.
func KmhToMph(kmh float64) int {
	return roundInt(kmh * mphPerKmh)
}

// MmToInch converts and rounds to one decimal place.
func MmToInch(mm float64) float64 {
	v := math.Round(mm*inchPerMm*10) / 10
	if v == 0 {
		return 0 // drop the sign of -0
	}
	return v
}

// FormatTemperature renders a Celsius reading as "21°" in the requested unit.
func FormatTemperature(celsius float64, unit TemperatureUnit) string {
	if unit == Fahrenheit {
		return strconv.Itoa(CelsiusToFahrenheit(celsius)) + degreeMark
	}
	return strconv.Itoa(roundInt(celsius)) + degreeMark
}

// FormatWindSpeed renders a km/h reading as "10 km/h" or "6 mph".
func FormatWindSpeed(kmh float64, unit WindSpeedUnit) string {
	if unit == MilesPerHour {
		return strconv.Itoa(KmhToMph(kmh)) + " mph"
	}
	return strconv.Itoa(roundInt(kmh)) + " km/h"
}

// FormatPrecipitation renders a millimeter reading. The mm branch carries
// no unit suffix while the inch branch does ("5" vs "0.2 in").
func FormatPrecipitation(mm float64, unit PrecipitationUnit) string {
	if unit == Inches {
		return strconv.FormatFloat(MmToInch(mm), 'f', -1, 64) + " in"
	}
	return strconv.Itoa(roundInt(mm))
}

// roundInt rounds to the nearest integer. The int conversion also folds
// negative zero into 0.
func roundInt(v float64) int {
	return int(math.Round(v))
}
