package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, as stored for deliveries.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts exactly "HH:mm" with a 24-hour clock.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("%w: %q is not HH:mm", ErrInvalidTimeFormat, s)
	}

	hour, ok := twoDigits(s[0], s[1])
	if !ok || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: hour in %q out of range", ErrInvalidTimeFormat, s)
	}
	minute, ok := twoDigits(s[3], s[4])
	if !ok || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: minute in %q out of range", ErrInvalidTimeFormat, s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Date is a calendar day with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// At combines the date with a time of day in loc.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// PrepCalculator derives preparation start instants from delivery times.
type PrepCalculator struct {
	leadTimes LeadTimeTable
	location  *time.Location
}

// NewPrepCalculator builds a calculator over the given schedule. A zero
// table means DefaultLeadTimes and a nil location means UTC.
func NewPrepCalculator(leadTimes LeadTimeTable, location *time.Location) *PrepCalculator {
	if leadTimes.IsZero() {
		leadTimes = DefaultLeadTimes()
	}
	if location == nil {
		location = time.UTC
	}
	return &PrepCalculator{leadTimes: leadTimes, location: location}
}

// LeadTimes returns the table the calculator was built with.
func (c *PrepCalculator) LeadTimes() LeadTimeTable {
	return c.leadTimes
}

// Location returns the zone delivery times are interpreted in.
func (c *PrepCalculator) Location() *time.Location {
	return c.location
}

// PrepStart returns referenceDate@deliveryTime minus the category lead time.
// The result may fall on the previous day.
func (c *PrepCalculator) PrepStart(deliveryTime string, category MenuCategory, referenceDate Date) (time.Time, error) {
	tod, err := ParseTimeOfDay(deliveryTime)
	if err != nil {
		return time.Time{}, err
	}

	lead, err := c.leadTimes.Duration(category)
	if err != nil {
		return time.Time{}, err
	}

	return referenceDate.At(tod, c.location).Add(-lead), nil
}
