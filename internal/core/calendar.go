package core

import (
	"encoding/json"
	"time"
)

// Date is a calendar day with no meaningful time component. All dates are
// normalized to midnight UTC so comparisons are calendar-day comparisons.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps; the
// time-of-day of a timestamp is discarded.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		t, rferr := time.Parse(time.RFC3339, s)
		if rferr != nil {
			return err
		}
		parsed = DateOf(t)
	}
	*d = parsed
	return nil
}

// SameCalendarDay compares year/month/day only, never time-of-day.
func SameCalendarDay(a, b Date) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysBetween returns the signed difference b-a in whole calendar days.
func DaysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddInterval advances a date by one recurrence step. Monthly and yearly
// steps land on the same day-of-month, clamped to the last day when the
// target month is shorter (Jan 31 -> Feb 29 on a leap year). Callers must
// not pass RecurrenceNone: a one-time expense has no next occurrence, so
// the date is returned unchanged.
func AddInterval(d Date, recurrence RecurrenceType, customDays int) Date {
	switch recurrence {
	case RecurrenceWeekly:
		return DateOf(d.AddDate(0, 0, 7))
	case RecurrenceMonthly:
		year, month := d.Year(), time.Month(d.Month())+1
		if month > time.December {
			year, month = year+1, time.January
		}
		day := d.Day()
		if last := daysInMonth(year, month); day > last {
			day = last
		}
		return NewDate(year, int(month), day)
	case RecurrenceYearly:
		year := d.Year() + 1
		day := d.Day()
		if last := daysInMonth(year, time.Month(d.Month())); day > last {
			day = last
		}
		return NewDate(year, d.Month(), day)
	case RecurrenceCustom:
		return DateOf(d.AddDate(0, 0, customDays))
	default:
		return d
	}
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (Date, Date) {
	return NewDate(year, int(month), 1), NewDate(year, int(month), daysInMonth(year, month))
}
