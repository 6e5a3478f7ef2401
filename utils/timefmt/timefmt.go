package timefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	DateLayout    = "2006-01-02"
	MinuteLayout  = "2006-01-02 15:04"
	SecondLayout  = "2006-01-02 15:04:05"
	ClockLayout   = "15:04"
	OrderNoLayout = "20060102150405"
)

var ErrInvalidRange = errors.New("start time must be before end time")

// ParseDate parses a YYYY-MM-DD date in the local zone
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return datatypes.Date(t), nil
}

// ParseDateTime accepts "YYYY-MM-DD HH:MM:SS" and "YYYY-MM-DD HH:MM"
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{SecondLayout, MinuteLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q, expected YYYY-MM-DD HH:MM[:SS]", s)
}

// ParseRange parses both ends and requires start < end
func ParseRange(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDateTime(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDateTime(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}

// NormalizeClock validates "H:MM" / "HH:MM" and returns the zero-padded form
func NormalizeClock(s string) (string, error) {
	// "15" also accepts single-digit hours such as "9:30"
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Format(ClockLayout), nil
}

// SplitWorkTime parses "HH:MM-HH:MM" into normalized start and end clocks
func SplitWorkTime(s string) (string, string, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid work time %q, expected HH:MM-HH:MM", s)
	}
	start, err := NormalizeClock(parts[0])
	if err != nil {
		return "", "", err
	}
	end, err := NormalizeClock(parts[1])
	if err != nil {
		return "", "", err
	}
	if start >= end {
		return "", "", ErrInvalidRange
	}
	return start, end, nil
}

// MonthBounds returns [first day of month, first day of next month)
func MonthBounds(year, month int) (time.Time, time.Time, error) {
	if year < 1970 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid year/month %d-%d", year, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0), nil
}

// FormatDate renders a datatypes.Date as YYYY-MM-DD
func FormatDate(d datatypes.Date) string {
	t := time.Time(d)
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatMinute renders t as "YYYY-MM-DD HH:MM", or "" for the zero time
func FormatMinute(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(MinuteLayout)
}
