package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB connects to TEST_DATABASE_DSN and migrates every table.
// Requires RUN_INTEGRATION_TESTS=true.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func createTestCounselor(t *testing.T, db *gorm.DB) *model.Counselor {
	t.Helper()
	c := &model.Counselor{
		Name:          "Test " + uuid.NewString()[:8],
		Username:      "counselor_" + uuid.NewString(),
		Gender:        model.GenderFemale,
		Organization:  "integration",
		ExpertiseTags: datatypes.JSON("[]"),
		ServeType:     datatypes.JSON("[]"),
		Status:        model.CounselorEnabled,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create counselor: %v", err)
	}
	t.Cleanup(func() { db.Delete(c) })
	return c
}

func TestScheduleSlotUniqueness(t *testing.T) {
	db := openTestDB(t)
	svc := NewScheduleService(db)
	ctx := context.Background()
	c := createTestCounselor(t, db)

	plan := DayPlan{
		Date:  datatypes.Date(time.Date(2030, 1, 7, 0, 0, 0, 0, time.Local)),
		Slots: []SlotSpec{{Start: "09:00", End: "10:00", Available: true}},
	}
	rows, err := svc.AddSlots(ctx, c.ID, plan, "test")
	if err != nil {
		t.Fatalf("first slot: %v", err)
	}
	if rows[0].MaxAppointments != 5 {
		t.Errorf("default capacity = %d, want 5", rows[0].MaxAppointments)
	}

	if _, err := svc.AddSlots(ctx, c.ID, plan, "test"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("duplicate slot: got %v, want ErrSlotTaken", err)
	}

	deleted, created, err := svc.ReplaceAll(ctx, c.ID, []DayPlan{plan}, "test")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if deleted != 1 || created != 1 {
		t.Errorf("replace deleted=%d created=%d, want 1 and 1", deleted, created)
	}
}

func TestAddPlansIsAtomic(t *testing.T) {
	db := openTestDB(t)
	svc := NewScheduleService(db)
	ctx := context.Background()
	first := createTestCounselor(t, db)
	second := createTestCounselor(t, db)

	day := datatypes.Date(time.Date(2030, 1, 8, 0, 0, 0, 0, time.Local))
	slot := []SlotSpec{{Start: "09:00", End: "10:00", Available: true}}
	if _, err := svc.AddSlots(ctx, second.ID, DayPlan{Date: day, Slots: slot}, "test"); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	_, err := svc.AddPlans(ctx, []CounselorPlan{
		{CounselorID: first.ID, Plan: DayPlan{Date: day, Slots: slot}},
		{CounselorID: second.ID, Plan: DayPlan{Date: day, Slots: slot}},
	}, "test")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("clashing batch: got %v, want ErrSlotTaken", err)
	}

	var n int64
	db.Model(&model.Schedule{}).Where("counselor_id = ?", first.ID).Count(&n)
	if n != 0 {
		t.Errorf("first counselor has %d rows after failed batch, want 0", n)
	}
}

func TestVerifyCodeBurnsAfterFailures(t *testing.T) {
	db := openTestDB(t)
	svc := NewVerificationService(db, nil, zap.NewNop(), false)
	ctx := context.Background()

	email := uuid.NewString()[:8] + "@example.com"
	row := &model.VerificationCode{
		Realm:     model.RealmCounselor,
		Email:     email,
		Code:      "123456",
		Purpose:   model.PurposeReset,
		ExpiresAt: time.Now().Add(model.VerificationCodeTTL),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create code: %v", err)
	}
	t.Cleanup(func() { db.Delete(row) })

	for i := 0; i < model.MaxCodeAttempts; i++ {
		if err := svc.VerifyCode(ctx, model.RealmCounselor, email, "000000", model.PurposeReset); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("guess %d: got %v, want ErrInvalidCode", i+1, err)
		}
	}
	if err := svc.VerifyCode(ctx, model.RealmCounselor, email, "123456", model.PurposeReset); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("correct code after %d failures: got %v, want ErrInvalidCode", model.MaxCodeAttempts, err)
	}
}

func TestCancellationConflicts(t *testing.T) {
	db := openTestDB(t)
	svc := NewScheduleService(db)
	ctx := context.Background()
	c := createTestCounselor(t, db)
	other := createTestCounselor(t, db)

	at := func(hour int) time.Time { return time.Date(2030, 2, 1, hour, 0, 0, 0, time.Local) }
	row := &model.Cancellation{CounselorID: c.ID, CancelStart: at(10), CancelEnd: at(12)}
	if err := svc.CreateCancellation(ctx, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	hits, err := svc.Conflicts(ctx, c.ID, at(11), at(13))
	if err != nil || len(hits) != 1 {
		t.Errorf("[11,13) conflicts = %d, %v; want 1", len(hits), err)
	}
	hits, err = svc.Conflicts(ctx, c.ID, at(12), at(13))
	if err != nil || len(hits) != 0 {
		t.Errorf("[12,13) conflicts = %d, %v; want 0", len(hits), err)
	}

	if err := svc.DeleteCancellation(ctx, row.ID, &other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign delete: got %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateCancellation(ctx, row.ID, other.ID, CancellationPatch{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign update: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteCancellation(ctx, row.ID, &c.ID); err != nil {
		t.Errorf("own delete: %v", err)
	}
}

func TestRecordSessionNumbering(t *testing.T) {
	db := openTestDB(t)
	svc := NewRecordService(db, nil, zap.NewNop())
	ctx := context.Background()
	c := createTestCounselor(t, db)

	record := &model.ConsultationRecord{ClientName: "Client " + uuid.NewString()[:6]}
	first := &model.ConsultationSession{InterviewDate: datatypes.Date(time.Now())}
	if err := svc.Create(ctx, c, record, first); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if first.SessionNumber != 1 {
		t.Errorf("first session number = %d, want 1", first.SessionNumber)
	}

	second := &model.ConsultationSession{InterviewDate: datatypes.Date(time.Now())}
	if err := svc.AddSession(ctx, record.ID, second); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if second.SessionNumber != 2 {
		t.Errorf("second session number = %d, want 2", second.SessionNumber)
	}

	other := createTestCounselor(t, db)
	if _, err := svc.Owned(ctx, record.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign record: got %v, want ErrNotFound", err)
	}
	if _, err := svc.OwnedSession(ctx, second.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign session: got %v, want ErrNotFound", err)
	}
	db.Delete(record)
}

func TestAppointmentTransitionOwnership(t *testing.T) {
	db := openTestDB(t)
	svc := NewAppointmentService(db, nil, zap.NewNop())
	ctx := context.Background()
	c := createTestCounselor(t, db)
	other := createTestCounselor(t, db)

	a := &model.Appointment{ClientName: "Order " + uuid.NewString()[:6], ServiceType: model.ServiceOnline}
	record, err := svc.CreateForCounselor(ctx, c, a)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != model.AppointmentPending || a.RecordID == nil || *a.RecordID != record.ID {
		t.Errorf("unexpected appointment after create: %+v", a)
	}

	if _, err := svc.Transition(ctx, a.ID, model.AppointmentAccepted, &other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign transition: got %v, want ErrForbidden", err)
	}
	if _, err := svc.Transition(ctx, a.ID, model.AppointmentCompleted, &c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> completed: got %v, want ErrInvalidTransition", err)
	}
	updated, err := svc.Transition(ctx, a.ID, model.AppointmentAccepted, &c.ID)
	if err != nil {
		t.Fatalf("pending -> accepted: %v", err)
	}
	if updated.AcceptedAt == nil {
		t.Error("accepted_at not stamped")
	}
	db.Delete(a)
	db.Delete(record)
}
