package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/settings"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Weather  *weather.Service
	Settings *settings.Service
	Locales  *units.Locales
	Metrics  *metrics.Metrics
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/locations/search", func(c *fiber.Ctx) error {
		results, err := d.Weather.SearchLocations(c.UserContext(), c.Query("q"))
		if err != nil {
			return upstreamError(err, "location search failed")
		}
		return c.JSON(fiber.Map{"results": results})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		loc, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		fc, err := d.Weather.GetForecast(c.UserContext(), loc)
		if err != nil {
			return upstreamError(err, "failed to fetch forecast")
		}
		return c.JSON(fc)
	})

	v1.Get("/dashboard", dashboardHandler(d))

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		loc, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		snapshot, err := d.Weather.GetLatest(loc)
		if err != nil {
			return err
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return err
		}
		if err := validateStruct(req); err != nil {
			return err
		}

		snapshots, err := d.Weather.GetRange(req.Location, req.From, req.To)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"location":  req.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	registerSettingsRoutes(v1, d.Settings)
	registerFormatRoutes(v1, d.Locales)
}

// coordinateQuery holds query parameters for identifying a location.
type coordinateQuery struct {
	Lat     string `query:"lat" validate:"required,latitude"`
	Lon     string `query:"lon" validate:"required,longitude"`
	Name    string `query:"name"`
	Country string `query:"country"`
}

func (q coordinateQuery) empty() bool {
	return q.Lat == "" && q.Lon == ""
}

func (q coordinateQuery) toLocation() weather.Location {
	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lon, _ := strconv.ParseFloat(q.Lon, 64)
	return weather.Location{
		Name:      strings.TrimSpace(q.Name),
		Country:   strings.TrimSpace(q.Country),
		Latitude:  lat,
		Longitude: lon,
	}
}

func bindCoordinates(c *fiber.Ctx) coordinateQuery {
	return coordinateQuery{
		Lat:     strings.TrimSpace(c.Query("lat")),
		Lon:     strings.TrimSpace(c.Query("lon")),
		Name:    c.Query("name"),
		Country: c.Query("country"),
	}
}

func parseCoordinates(c *fiber.Ctx) (weather.Location, error) {
	q := bindCoordinates(c)
	if err := validateStruct(q); err != nil {
		return weather.Location{}, err
	}
	return q.toLocation(), nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location weather.Location `validate:"-"`
	From     time.Time        `json:"from" validate:"required"`
	To       time.Time        `json:"to" validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseCoordinates(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid time format; use RFC3339 or unix seconds")
}

// dashboardQuery carries the optional overrides of a dashboard view.
// Anything left empty comes from the client's stored settings, then from
// the metric defaults.
type dashboardQuery struct {
	coordinateQuery
	Day           string `query:"day"`
	Temperature   string `query:"temperature"`
	Wind          string `query:"wind"`
	Precipitation string `query:"precipitation"`
	Client        string `query:"client"`
	Locale        string `query:"locale"`
}

func dashboardHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := dashboardQuery{
			coordinateQuery: bindCoordinates(c),
			Day:             strings.TrimSpace(c.Query("day")),
			Temperature:     c.Query("temperature"),
			Wind:            c.Query("wind"),
			Precipitation:   c.Query("precipitation"),
			Client:          c.Query("client"),
			Locale:          c.Query("locale"),
		}

		prefs := units.Metric()
		var loc *weather.Location
		day, dayFromSettings := q.Day, false

		if q.Client != "" && d.Settings != nil {
			st, err := d.Settings.Get(c.UserContext(), q.Client)
			if err != nil {
				return err
			}
			prefs = st.Units
			loc = st.Location
			if day == "" && st.SelectedDay != "" {
				day, dayFromSettings = st.SelectedDay, true
			}
		}

		if !q.empty() {
			if err := validateStruct(q.coordinateQuery); err != nil {
				return err
			}
			l := q.toLocation()
			loc = &l
		}

		if err := overrideUnits(&prefs, q); err != nil {
			return err
		}

		// A stored day may have rolled out of the forecast window.
		dash, err := d.Weather.Dashboard(c.UserContext(), weather.DashboardRequest{
			Location:    loc,
			Units:       prefs,
			Day:         day,
			Formatter:   formatterFor(c, d.Locales, q.Locale),
			FallbackDay: dayFromSettings,
		})
		if err != nil {
			return upstreamError(err, "failed to fetch forecast")
		}
		return c.JSON(dash)
	}
}

func overrideUnits(p *units.Preferences, q dashboardQuery) error {
	if q.Temperature != "" {
		u, err := units.ParseTemperatureUnit(q.Temperature)
		if err != nil {
			return err
		}
		p.Temperature = u
	}
	if q.Wind != "" {
		u, err := units.ParseWindSpeedUnit(q.Wind)
		if err != nil {
			return err
		}
		p.WindSpeed = u
	}
	if q.Precipitation != "" {
		u, err := units.ParsePrecipitationUnit(q.Precipitation)
		if err != nil {
			return err
		}
		p.Precipitation = u
	}
	return nil
}

// formatterFor prefers an explicit locale and falls back to Accept-Language.
func formatterFor(c *fiber.Ctx, l *units.Locales, explicit string) *units.Formatter {
	if l == nil {
		return units.NewFormatter(nil)
	}
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return l.Formatter(explicit)
	}
	return units.NewFormatter(l.Match(c.Get(fiber.HeaderAcceptLanguage)))
}
