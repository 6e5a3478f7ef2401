package model

import (
	"testing"
	"time"
)

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentPending, AppointmentAccepted, true},
		{AppointmentPending, AppointmentRejected, true},
		{AppointmentPending, AppointmentCompleted, false},
		{AppointmentPending, AppointmentInProgress, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentAccepted, AppointmentCancelled, true},
		{AppointmentInProgress, AppointmentCancelled, true},
		{AppointmentAccepted, AppointmentInProgress, true},
		{AppointmentAccepted, AppointmentCompleted, true},
		{AppointmentAccepted, AppointmentPending, false},
		{AppointmentInProgress, AppointmentCompleted, true},
		{AppointmentInProgress, AppointmentRejected, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentRejected, AppointmentAccepted, false},
		{AppointmentCancelled, AppointmentPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []AppointmentStatus{AppointmentCompleted, AppointmentRejected, AppointmentCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []AppointmentStatus{AppointmentPending, AppointmentAccepted, AppointmentInProgress} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParseAppointmentStatus(t *testing.T) {
	tests := []struct {
		input string
		want  AppointmentStatus
		ok    bool
	}{
		{"已结束", AppointmentCompleted, true},
		{"咨询中", AppointmentAccepted, true},
		{"待接单", AppointmentPending, true},
		{" Pending ", AppointmentPending, true},
		{"in_progress", AppointmentInProgress, true},
		{"done", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAppointmentStatus(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseAppointmentStatus(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestServiceTypeLabels(t *testing.T) {
	for _, st := range []ServiceType{ServiceOnline, ServiceOffline} {
		parsed, ok := ParseServiceType(st.Label())
		if !ok || parsed != st {
			t.Errorf("label %q parsed to %q, %v", st.Label(), parsed, ok)
		}
	}
	if _, ok := ParseServiceType("telepathy"); ok {
		t.Error("unknown service type should not parse")
	}
}

func TestCancellationOverlaps(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2024, 5, 1, hour, 0, 0, 0, time.Local)
	}
	c := Cancellation{CancelStart: at(10), CancelEnd: at(12)}

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"partial overlap", 11, 13, true},
		{"touching end", 12, 13, false},
		{"touching start", 8, 10, false},
		{"contained", 10, 11, true},
		{"containing", 9, 14, true},
		{"disjoint", 14, 15, false},
	}

	for _, tt := range tests {
		if got := c.Overlaps(at(tt.start), at(tt.end)); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseGender(t *testing.T) {
	if g, ok := ParseGender("男"); !ok || g != GenderMale {
		t.Errorf("男 parsed to %q, %v", g, ok)
	}
	if g, ok := ParseGender("Female"); !ok || g != GenderFemale {
		t.Errorf("Female parsed to %q, %v", g, ok)
	}
	if _, ok := ParseGender("x"); ok {
		t.Error("unknown gender should not parse")
	}
}

func TestParseRecordAndVisitStatus(t *testing.T) {
	if s, ok := ParseRecordStatus(""); !ok || s != RecordActive {
		t.Errorf("empty record status parsed to %q, %v", s, ok)
	}
	if s, ok := ParseRecordStatus("已结案"); !ok || s != RecordClosed {
		t.Errorf("已结案 parsed to %q, %v", s, ok)
	}
	if _, ok := ParseRecordStatus("archived"); ok {
		t.Error("unknown record status should not parse")
	}

	if s, ok := ParseVisitStatus("", VisitCompleted); !ok || s != VisitCompleted {
		t.Errorf("empty visit status should fall back, got %q, %v", s, ok)
	}
	if s, ok := ParseVisitStatus("已预约", VisitCompleted); !ok || s != VisitScheduled {
		t.Errorf("已预约 parsed to %q, %v", s, ok)
	}
	if _, ok := ParseVisitStatus("missed", VisitCompleted); ok {
		t.Error("unknown visit status should not parse")
	}
}
