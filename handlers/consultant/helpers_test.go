package consultant

import (
	"strings"
	"testing"
	"time"
)

func TestCrisisList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"null", "null", nil, false},
		{"list", `["self-harm","insomnia"]`, []string{"self-harm", "insomnia"}, false},
		{"comma string", `"self-harm, insomnia"`, []string{"self-harm", "insomnia"}, false},
		{"number", `42`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crisisList([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("crisisList(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("crisisList(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestWorkDayPlan(t *testing.T) {
	plan, err := WorkDay{Year: 2024, Month: 2, Date: 29, WorkSchedules: []string{"09:00-10:00", "14:00-15:30"}}.plan()
	if err != nil {
		t.Fatalf("plan() failed: %v", err)
	}
	day := time.Time(plan.Date)
	if day.Year() != 2024 || day.Month() != time.February || day.Day() != 29 {
		t.Errorf("plan date = %v", day)
	}
	if len(plan.Slots) != 2 || plan.Slots[1].End != "15:30" || plan.Slots[0].Capacity != 5 {
		t.Errorf("unexpected slots: %+v", plan.Slots)
	}

	if _, err := (WorkDay{Year: 2023, Month: 2, Date: 29}).plan(); err == nil {
		t.Error("expected error for 2023-02-29")
	}
	if _, err := (WorkDay{Year: 2024, Month: 3, Date: 1, WorkSchedules: []string{"bad"}}).plan(); err == nil {
		t.Error("expected error for malformed window")
	}

	empty, err := WorkDay{Year: 2024, Month: 3, Date: 1}.plan()
	if err != nil || len(empty.Slots) != 0 {
		t.Errorf("day off: %+v, %v", empty, err)
	}
}

func TestTemplateDownloadNames(t *testing.T) {
	req := TemplateDownloadRequest{
		FileNames: []string{"a.pdf"},
		Filenames: []string{"b.pdf"},
		Files:     []string{"c.pdf"},
	}
	if got := strings.Join(req.names(), ","); got != "a.pdf,b.pdf,c.pdf" {
		t.Errorf("names() = %q", got)
	}
	if got := (TemplateDownloadRequest{}).names(); len(got) != 0 {
		t.Errorf("empty names() = %v", got)
	}
}
