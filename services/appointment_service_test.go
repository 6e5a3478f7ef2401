package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mindbridge/counsel-api/model"
)

func TestApplyTransition(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)

	a := &model.Appointment{Status: model.AppointmentPending}
	if err := ApplyTransition(a, model.AppointmentAccepted, now); err != nil {
		t.Fatalf("pending -> accepted: %v", err)
	}
	if a.AcceptedAt == nil || !a.AcceptedAt.Equal(now) {
		t.Errorf("accepted_at not stamped: %v", a.AcceptedAt)
	}

	if err := ApplyTransition(a, model.AppointmentInProgress, now.Add(time.Hour)); err != nil {
		t.Fatalf("accepted -> in_progress: %v", err)
	}
	if a.StartedAt == nil {
		t.Error("started_at not stamped")
	}

	if err := ApplyTransition(a, model.AppointmentCompleted, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if a.EndedAt == nil || a.Status != model.AppointmentCompleted {
		t.Errorf("completion not applied: status=%s ended_at=%v", a.Status, a.EndedAt)
	}

	err := ApplyTransition(a, model.AppointmentPending, now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> pending: got %v, want ErrInvalidTransition", err)
	}
	if a.Status != model.AppointmentCompleted {
		t.Errorf("status changed on a rejected transition: %s", a.Status)
	}
}

func TestApplyTransitionRejectsUnknownStatus(t *testing.T) {
	a := &model.Appointment{Status: model.AppointmentPending}
	if err := ApplyTransition(a, model.AppointmentStatus("paused"), time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}

func TestGeneratedNumbers(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		no := GenerateOrderNo()
		if !strings.HasPrefix(no, "ORD") || len(no) != 15 {
			t.Fatalf("unexpected order number %q", no)
		}
		if seen[no] {
			t.Fatalf("duplicate order number %q", no)
		}
		seen[no] = true
	}
	if rc := GenerateRecordNo(); !strings.HasPrefix(rc, "RC") || len(rc) != 14 {
		t.Errorf("unexpected record number %q", rc)
	}
}
