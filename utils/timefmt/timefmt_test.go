package timefmt

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"seconds", "2024-03-05 09:30:15", time.Date(2024, 3, 5, 9, 30, 15, 0, time.Local), false},
		{"minutes", "2024-03-05 09:30", time.Date(2024, 3, 5, 9, 30, 0, 0, time.Local), false},
		{"padded", "  2024-03-05 18:00 ", time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local), false},
		{"date only", "2024-03-05", time.Time{}, true},
		{"garbage", "tomorrow", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDateTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if got := FormatDate(d); got != "2024-02-29" {
		t.Errorf("FormatDate = %q, want 2024-02-29", got)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Error("expected error for 2023-02-29")
	}
}

func TestParseRange(t *testing.T) {
	if _, _, err := ParseRange("2024-01-01 10:00", "2024-01-01 12:00"); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if _, _, err := ParseRange("2024-01-01 12:00", "2024-01-01 12:00"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("empty range: got %v, want ErrInvalidRange", err)
	}
	if _, _, err := ParseRange("2024-01-01 13:00", "2024-01-01 12:00"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
	if _, _, err := ParseRange("bad", "2024-01-01 12:00"); err == nil || errors.Is(err, ErrInvalidRange) {
		t.Errorf("bad start: got %v, want parse error", err)
	}
}

func TestSplitWorkTime(t *testing.T) {
	tests := []struct {
		input      string
		start, end string
		wantErr    bool
	}{
		{"09:00-10:00", "09:00", "10:00", false},
		{"9:00-10:30", "09:00", "10:30", false},
		{" 14:00 - 15:00 ", "14:00", "15:00", false},
		{"10:00-09:00", "", "", true},
		{"10:00", "", "", true},
		{"25:00-26:00", "", "", true},
	}

	for _, tt := range tests {
		start, end, err := SplitWorkTime(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitWorkTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("SplitWorkTime(%q) = %q, %q; want %q, %q", tt.input, start, end, tt.start, tt.end)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	start, end, err := MonthBounds(2024, 12)
	if err != nil {
		t.Fatalf("MonthBounds failed: %v", err)
	}
	if start.Month() != time.December || start.Day() != 1 {
		t.Errorf("start = %v", start)
	}
	if end.Year() != 2025 || end.Month() != time.January || end.Day() != 1 {
		t.Errorf("end = %v, want 2025-01-01", end)
	}
	if _, _, err := MonthBounds(2024, 13); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestFormatMinuteZero(t *testing.T) {
	if got := FormatMinute(time.Time{}); got != "" {
		t.Errorf("FormatMinute(zero) = %q, want empty", got)
	}
	if got := FormatMinute(time.Date(2024, 5, 1, 8, 5, 59, 0, time.Local)); got != "2024-05-01 08:05" {
		t.Errorf("FormatMinute = %q", got)
	}
}
