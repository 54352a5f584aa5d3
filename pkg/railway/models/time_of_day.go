package models

import (
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a clock time with minute precision, stored as minutes since midnight.
// It carries no date; a train's whole journey is assumed to fall on one calendar day.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay accepts "15:04" and "15:04:05". Seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)

	formats := []string{
		"15:04",
		"15:04:05",
	}

	var parseErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			if t.Second() != 0 {
				return 0, fmt.Errorf("time %q has a seconds component", s)
			}
			return NewTimeOfDay(t.Hour(), t.Minute())
		}
		parseErr = err
	}

	return 0, fmt.Errorf("unable to parse time %q: %w", s, parseErr)
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// AddHours moves the clock forward. The result is not wrapped at midnight so that
// arrival times of a late train never compare as early.
func (t TimeOfDay) AddHours(h int) TimeOfDay {
	return t + TimeOfDay(h*60)
}

// SameDay reports whether t still falls before midnight.
func (t TimeOfDay) SameDay() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalJSON writes the time as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", t.String())), nil
}

// UnmarshalJSON reads "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		return fmt.Errorf("time of day is required")
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
