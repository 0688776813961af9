package core

import (
	"testing"
	"time"
)

func TestAddInterval(t *testing.T) {
	tests := []struct {
		name       string
		date       Date
		recurrence RecurrenceType
		customDays int
		want       Date
	}{
		{
			name:       "weekly adds seven days",
			date:       NewDate(2024, 1, 15),
			recurrence: RecurrenceWeekly,
			want:       NewDate(2024, 1, 22),
		},
		{
			name:       "weekly crosses month boundary",
			date:       NewDate(2024, 1, 29),
			recurrence: RecurrenceWeekly,
			want:       NewDate(2024, 2, 5),
		},
		{
			name:       "monthly same day next month",
			date:       NewDate(2024, 1, 15),
			recurrence: RecurrenceMonthly,
			want:       NewDate(2024, 2, 15),
		},
		{
			name:       "monthly clamps Jan 31 to Feb 29 on leap year",
			date:       NewDate(2024, 1, 31),
			recurrence: RecurrenceMonthly,
			want:       NewDate(2024, 2, 29),
		},
		{
			name:       "monthly clamps Jan 31 to Feb 28 off leap year",
			date:       NewDate(2023, 1, 31),
			recurrence: RecurrenceMonthly,
			want:       NewDate(2023, 2, 28),
		},
		{
			name:       "monthly clamped day stays clamped",
			date:       NewDate(2024, 2, 29),
			recurrence: RecurrenceMonthly,
			want:       NewDate(2024, 3, 29),
		},
		{
			name:       "monthly December wraps to January",
			date:       NewDate(2024, 12, 10),
			recurrence: RecurrenceMonthly,
			want:       NewDate(2025, 1, 10),
		},
		{
			name:       "yearly same month and day",
			date:       NewDate(2024, 6, 15),
			recurrence: RecurrenceYearly,
			want:       NewDate(2025, 6, 15),
		},
		{
			name:       "yearly clamps Feb 29 to Feb 28",
			date:       NewDate(2024, 2, 29),
			recurrence: RecurrenceYearly,
			want:       NewDate(2025, 2, 28),
		},
		{
			name:       "custom adds the configured interval",
			date:       NewDate(2024, 1, 15),
			recurrence: RecurrenceCustom,
			customDays: 10,
			want:       NewDate(2024, 1, 25),
		},
		{
			name:       "none returns the date unchanged",
			date:       NewDate(2024, 1, 15),
			recurrence: RecurrenceNone,
			want:       NewDate(2024, 1, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddInterval(tt.date, tt.recurrence, tt.customDays)
			if !got.Equal(tt.want.Time) {
				t.Errorf("AddInterval(%s, %s, %d) = %s, want %s",
					tt.date, tt.recurrence, tt.customDays, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2024, 1, 15), NewDate(2024, 1, 15), 0},
		{"forward", NewDate(2024, 1, 15), NewDate(2024, 1, 20), 5},
		{"backward is negative", NewDate(2024, 1, 20), NewDate(2024, 1, 15), -5},
		{"across leap February", NewDate(2024, 2, 1), NewDate(2024, 3, 1), 29},
		{"across year boundary", NewDate(2023, 12, 30), NewDate(2024, 1, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	if !SameCalendarDay(NewDate(2024, 1, 15), DateOf(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC))) {
		t.Error("dates differing only in time-of-day must compare equal")
	}
	if SameCalendarDay(NewDate(2024, 1, 15), NewDate(2024, 1, 16)) {
		t.Error("different days must not compare equal")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-04-20")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Year() != 2024 || d.Month() != 4 || d.Day() != 20 {
		t.Errorf("ParseDate() = %s", d)
	}
	if _, err := ParseDate("20-04-2024"); err == nil {
		t.Error("ParseDate() expected error for bad layout")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 4, 20)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"2024-04-20"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !SameCalendarDay(d, back) {
		t.Errorf("round trip = %s, want %s", back, d)
	}

	// Full timestamps are accepted and truncated to the day.
	var fromStamp Date
	if err := fromStamp.UnmarshalJSON([]byte(`"2024-04-20T14:30:00Z"`)); err != nil {
		t.Fatalf("UnmarshalJSON(timestamp) error = %v", err)
	}
	if !SameCalendarDay(d, fromStamp) {
		t.Errorf("timestamp truncation = %s, want %s", fromStamp, d)
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	if !start.Equal(NewDate(2024, 2, 1).Time) || !end.Equal(NewDate(2024, 2, 29).Time) {
		t.Errorf("MonthRange(2024, Feb) = %s..%s", start, end)
	}
}
