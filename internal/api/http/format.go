package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/units"
)

type formatQuery struct {
	Value string `query:"value" validate:"required,numeric"`
	Kind  string `query:"kind" validate:"required,oneof=temperature wind precipitation"`
	Unit  string `query:"unit"`
}

type formatDateQuery struct {
	Value  string `query:"value" validate:"required"`
	Style  string `query:"style" validate:"omitempty,oneof=date day-short day-long hour"`
	Locale string `query:"locale"`
}

func registerFormatRoutes(r fiber.Router, locales *units.Locales) {
	// Values are in metric base units: celsius, km/h and millimeters.
	r.Get("/format", func(c *fiber.Ctx) error {
		q := formatQuery{Value: c.Query("value"), Kind: c.Query("kind"), Unit: c.Query("unit")}
		if err := validateStruct(q); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(q.Value, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "value must be a number")
		}
		if err := units.CheckReading(v); err != nil {
			return err
		}

		out, unit, err := formatValue(v, q.Kind, q.Unit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"kind":      q.Kind,
			"unit":      unit,
			"formatted": out,
		})
	})

	r.Get("/format/date", func(c *fiber.Ctx) error {
		q := formatDateQuery{Value: c.Query("value"), Style: c.Query("style"), Locale: c.Query("locale")}
		if err := validateStruct(q); err != nil {
			return err
		}
		f := formatterFor(c, locales, q.Locale)

		var (
			out string
			err error
		)
		switch q.Style {
		case "", "date":
			out, err = f.FormatDate(q.Value)
		case "day-short":
			out, err = f.FormatDayShort(q.Value)
		case "day-long":
			out, err = f.FormatDayLong(q.Value)
		case "hour":
			out, err = f.FormatHour(q.Value)
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"locale":    f.Locale(),
			"formatted": out,
		})
	})
}

func formatValue(v float64, kind, unit string) (string, string, error) {
	switch kind {
	case "temperature":
		u := units.Celsius
		if unit != "" {
			var err error
			if u, err = units.ParseTemperatureUnit(unit); err != nil {
				return "", "", err
			}
		}
		return units.FormatTemperature(v, u), string(u), nil
	case "wind":
		u := units.KilometersPerHour
		if unit != "" {
			var err error
			if u, err = units.ParseWindSpeedUnit(unit); err != nil {
				return "", "", err
			}
		}
		return units.FormatWindSpeed(v, u), string(u), nil
	default:
		u := units.Millimeters
		if unit != "" {
			var err error
			if u, err = units.ParsePrecipitationUnit(unit); err != nil {
				return "", "", err
			}
		}
		return units.FormatPrecipitation(v, u), string(u), nil
	}
}
