package units

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
)

const isoDate = "2006-01-02"

// Forecast timestamps arrive already shifted to the location's local time,
// with or without seconds and, rarely, with an explicit offset.
var isoLayouts = []string{
	isoDate,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Calendar supplies the locale-specific names used by Formatter.
// Every github.com/go-playground/locales translator satisfies it.
type Calendar interface {
	Locale() string
	WeekdayWide(weekday time.Weekday) string
	WeekdayAbbreviated(weekday time.Weekday) string
	FmtDateMedium(t time.Time) string
}

// Clock is the source of "now" for TodayDateString.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Formatter renders ISO dates for display. It holds no mutable state and
// may be shared between goroutines.
type Formatter struct {
	cal   Calendar
	clock Clock
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(f *Formatter) {
		if c != nil {
			f.clock = c
		}
	}
}

// NewFormatter creates a Formatter for cal. A nil calendar means English.
func NewFormatter(cal Calendar, opts ...Option) *Formatter {
	if cal == nil {
		cal = en.New()
	}
	f := &Formatter{cal: cal, clock: systemClock{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Locale returns the locale name of the underlying calendar.
func (f *Formatter) Locale() string {
	return f.cal.Locale()
}

// FormatDate renders the weekday followed by the locale's medium date,
// e.g. "Friday, Mar 14, 2025" or "Freitag, 14.03.2025".
func (f *Formatter) FormatDate(s string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return f.cal.WeekdayWide(t.Weekday()) + ", " + f.cal.FmtDateMedium(t), nil
}

// FormatDayShort renders the abbreviated weekday, e.g. "Fri". Some locales
// end abbreviations with a period ("Fr.").
func (f *Formatter) FormatDayShort(s string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return f.cal.WeekdayAbbreviated(t.Weekday()), nil
}

// FormatDayLong renders the full weekday, e.g. "Friday".
func (f *Formatter) FormatDayLong(s string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return f.cal.WeekdayWide(t.Weekday()), nil
}

// FormatHour renders the hour on a 12-hour clock without minutes, e.g. "3 PM".
func (f *Formatter) FormatHour(s string) (string, error) {
	t, err := ParseISO(s)
	if err != nil {
		return "", err
	}
	return t.Format("3 PM"), nil
}

// TodayDateString returns the clock's current date as YYYY-MM-DD.
func (f *Formatter) TodayDateString() string {
	return f.clock.Now().Format(isoDate)
}

// Now exposes the formatter's clock.
func (f *Formatter) Now() time.Time {
	return f.clock.Now()
}

// ParseISO parses an ISO-8601 date or date-time. The wall clock of the
// string is kept as is; no time zone conversion happens.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable date %q", ErrInvalidInput, s)
}

// IsSameDay compares the date portions (before "T") of two ISO strings.
// The comparison is textual, so both values must share the same local-time
// convention.
func IsSameDay(a, b string) bool {
	return datePart(a) == datePart(b)
}

func datePart(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
