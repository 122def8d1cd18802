package weather

import (
	"fmt"
	"strconv"

	"github.com/i474232898/weather-dashboard/internal/units"
)

const (
	maxHourlyEntries = 8
	firstDaytimeHour = 6
	lastDaytimeHour  = 22
)

// Dashboard is the display-ready view of one forecast.
type Dashboard struct {
	Location string            `json:"location"`
	Date     string            `json:"date"`
	DateISO  string            `json:"dateIso"`
	Locale   string            `json:"locale"`
	Units    units.Preferences `json:"units"`
	Imperial bool              `json:"imperial"`
	Current  CurrentView       `json:"current"`
	Metrics  []Metric          `json:"metrics"`
	Hourly   HourlyView        `json:"hourly"`
	Daily    []DailyView       `json:"daily"`
}

// CurrentView is the headline card.
type CurrentView struct {
	Temperature string   `json:"temperature"`
	Condition   CodeInfo `json:"condition"`
	IsDay       bool     `json:"isDay"`
}

// Metric is one labelled tile of the metrics grid.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HourlyView is the hourly panel for the selected day.
type HourlyView struct {
	SelectedIndex int         `json:"selectedIndex"`
	SelectedDay   string      `json:"selectedDay"`
	SelectedLabel string      `json:"selectedLabel"`
	Days          []DayOption `json:"days"`
	Hours         []HourView  `json:"hours"`
}

// DayOption is an entry of the day selector.
type DayOption struct {
	Index    int    `json:"index"`
	Date     string `json:"date"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// HourView is one row of the hourly panel.
type HourView struct {
	Time        string `json:"time"`
	Hour        string `json:"hour"`
	Temperature string `json:"temperature"`
	Icon        Icon   `json:"icon"`
}

// DailyView is one card of the daily strip.
type DailyView struct {
	Date        string `json:"date"`
	Day         string `json:"day"`
	Icon        Icon   `json:"icon"`
	Description string `json:"description"`
	Max         string `json:"max"`
	Min         string `json:"min"`
}

// BuildDashboard formats fc for display. day selects the hourly panel's day,
// either as an index into the daily series or as an ISO date; empty means
// the first day.
func BuildDashboard(loc Location, fc Forecast, prefs units.Preferences, day string, f *units.Formatter) (Dashboard, error) {
	if err := prefs.Validate(); err != nil {
		return Dashboard{}, err
	}

	days := fc.DailyPoints()

	d := Dashboard{
		Location: loc.Label(),
		Locale:   f.Locale(),
		Units:    prefs,
		Imperial: prefs.IsImperial(),
		Current: CurrentView{
			Temperature: units.FormatTemperature(fc.Current.Temperature, prefs.Temperature),
			Condition:   DescribeCode(fc.Current.WeatherCode),
			IsDay:       fc.Current.IsDay == 1,
		},
		Metrics: []Metric{
			{Label: "Feels Like", Value: units.FormatTemperature(fc.Current.ApparentTemperature, prefs.Temperature)},
			{Label: "Humidity", Value: strconv.Itoa(fc.Current.RelativeHumidity)},
			{Label: "Wind", Value: units.FormatWindSpeed(fc.Current.WindSpeed, prefs.WindSpeed)},
			{Label: "Precipitation", Value: units.FormatPrecipitation(fc.Current.Precipitation, prefs.Precipitation)},
		},
	}

	d.DateISO = f.TodayDateString()
	if len(days) > 0 {
		d.DateISO = days[0].Date
	}
	date, err := f.FormatDate(d.DateISO)
	if err != nil {
		return Dashboard{}, fmt.Errorf("format header date: %w", err)
	}
	d.Date = date

	daily, err := buildDaily(days, prefs, f)
	if err != nil {
		return Dashboard{}, err
	}
	d.Daily = daily

	hourly, err := buildHourly(fc, days, day, prefs, f)
	if err != nil {
		return Dashboard{}, err
	}
	d.Hourly = hourly

	return d, nil
}

func buildDaily(days []DailyPoint, prefs units.Preferences, f *units.Formatter) ([]DailyView, error) {
	out := make([]DailyView, 0, len(days))
	for _, p := range days {
		short, err := f.FormatDayShort(p.Date)
		if err != nil {
			return nil, fmt.Errorf("format daily %q: %w", p.Date, err)
		}
		info := DescribeCode(p.WeatherCode)
		out = append(out, DailyView{
			Date:        p.Date,
			Day:         short,
			Icon:        info.Icon,
			Description: info.Description,
			Max:         units.FormatTemperature(p.Max, prefs.Temperature),
			Min:         units.FormatTemperature(p.Min, prefs.Temperature),
		})
	}
	return out, nil
}

func buildHourly(fc Forecast, days []DailyPoint, day string, prefs units.Preferences, f *units.Formatter) (HourlyView, error) {
	view := HourlyView{
		SelectedIndex: -1,
		Days:          make([]DayOption, 0, len(days)),
		Hours:         []HourView{},
	}
	if len(days) == 0 {
		return view, nil
	}

	idx, err := SelectDayIndex(days, day)
	if err != nil {
		return HourlyView{}, err
	}

	for i, p := range days {
		label, err := f.FormatDayLong(p.Date)
		if err != nil {
			return HourlyView{}, fmt.Errorf("format day option %q: %w", p.Date, err)
		}
		view.Days = append(view.Days, DayOption{
			Index:    i,
			Date:     p.Date,
			Label:    label,
			Selected: i == idx,
		})
	}

	view.SelectedIndex = idx
	view.SelectedDay = days[idx].Date
	view.SelectedLabel = view.Days[idx].Label

	points, err := SelectHours(fc.HourlyPoints(), view.SelectedDay, idx == 0, currentHour(fc, f))
	if err != nil {
		return HourlyView{}, err
	}

	for _, p := range points {
		hour, err := f.FormatHour(p.Time)
		if err != nil {
			return HourlyView{}, fmt.Errorf("format hour %q: %w", p.Time, err)
		}
		view.Hours = append(view.Hours, HourView{
			Time:        p.Time,
			Hour:        hour,
			Temperature: units.FormatTemperature(p.Temperature, prefs.Temperature),
			Icon:        IconFor(p.WeatherCode),
		})
	}
	return view, nil
}

// SelectDayIndex resolves day against the daily series. day is empty
// (first day), a zero-based index, or an ISO date present in the series.
func SelectDayIndex(days []DailyPoint, day string) (int, error) {
	if day == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(day); err == nil {
		if n < 0 || n >= len(days) {
			return 0, fmt.Errorf("%w: day index %d out of range [0,%d)", units.ErrInvalidInput, n, len(days))
		}
		return n, nil
	}
	for i, p := range days {
		if units.IsSameDay(p.Date, day) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: day %q not in forecast", units.ErrInvalidInput, day)
}

// SelectHours keeps the hourly points on day. For today only hours from
// nowHour on are kept, for other days only 06:00-22:00. At most eight
// points are returned.
func SelectHours(points []HourlyPoint, day string, today bool, nowHour int) ([]HourlyPoint, error) {
	out := make([]HourlyPoint, 0, maxHourlyEntries)
	for _, p := range points {
		if !units.IsSameDay(p.Time, day) {
			continue
		}
		t, err := units.ParseISO(p.Time)
		if err != nil {
			return nil, err
		}
		h := t.Hour()
		if today {
			if h < nowHour {
				continue
			}
		} else if h < firstDaytimeHour || h > lastDaytimeHour {
			continue
		}
		out = append(out, p)
		if len(out) == maxHourlyEntries {
			break
		}
	}
	return out, nil
}

// currentHour prefers the forecast's own notion of "now", which is already
// in the location's time zone, over the server clock.
func currentHour(fc Forecast, f *units.Formatter) int {
	if fc.Current.Time != "" {
		if t, err := units.ParseISO(fc.Current.Time); err == nil {
			return t.Hour()
		}
	}
	return f.Now().Hour()
}
