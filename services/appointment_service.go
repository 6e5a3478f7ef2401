package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned for a status change the lifecycle forbids
var ErrInvalidTransition = errors.New("invalid appointment status transition")

// GenerateOrderNo returns a unique appointment number such as ORD3F9A0C12B7DE
func GenerateOrderNo() string {
	return "ORD" + shortID()
}

// GenerateRecordNo returns a unique consultation record number
func GenerateRecordNo() string {
	return "RC" + shortID()
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// ApplyTransition moves a to next and stamps the matching timestamp
func ApplyTransition(a *model.Appointment, next model.AppointmentStatus, now time.Time) error {
	if !next.IsValid() || !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	switch next {
	case model.AppointmentAccepted:
		a.AcceptedAt = &now
	case model.AppointmentInProgress:
		a.StartedAt = &now
	case model.AppointmentCompleted, model.AppointmentRejected, model.AppointmentCancelled:
		a.EndedAt = &now
	}
	return nil
}

// StatusChange is the payload of an appointment.status_changed event
type StatusChange struct {
	AppointmentID uint                    `json:"appointment_id"`
	OrderNo       string                  `json:"order_no"`
	From          model.AppointmentStatus `json:"from"`
	To            model.AppointmentStatus `json:"to"`
	CounselorID   *uint                   `json:"counselor_id"`
}

// AppointmentService owns the appointment lifecycle
type AppointmentService struct {
	db        *gorm.DB
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *AppointmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AppointmentService{db: db, publisher: publisher, logger: logger, now: time.Now}
}

// Create stores a new pending appointment
func (s *AppointmentService) Create(ctx context.Context, a *model.Appointment) error {
	s.prepare(a)
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	events.Emit(s.publisher, s.logger, events.AppointmentCreated, a.OrderNo, a)
	return nil
}

func (s *AppointmentService) prepare(a *model.Appointment) {
	if a.OrderNo == "" {
		a.OrderNo = GenerateOrderNo()
	}
	if a.Status == "" {
		a.Status = model.AppointmentPending
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = s.now()
	}
	if a.Keywords == nil {
		a.Keywords = []byte("[]")
	}
}

// CreateForCounselor stores an appointment for a counselor, attaching it to
// the counselor's record for the same client and opening one if none exists
func (s *AppointmentService) CreateForCounselor(ctx context.Context, counselor *model.Counselor, a *model.Appointment) (*model.ConsultationRecord, error) {
	s.prepare(a)
	a.CounselorID = &counselor.ID
	if a.CreatedBy == "" {
		a.CreatedBy = counselor.Username
	}

	var record model.ConsultationRecord
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("client_name = ? AND counselor_id = ?", a.ClientName, counselor.ID).First(&record).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = model.ConsultationRecord{
				RecordNo:      GenerateRecordNo(),
				CounselorID:   &counselor.ID,
				ClientName:    a.ClientName,
				ClientType:    model.ClientAdult,
				Gender:        a.ClientGender,
				Age:           a.ClientAge,
				Contact:       a.ContactInfo,
				CurrentStatus: model.RecordActive,
				CreatedBy:     counselor.Username,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to create record: %w", err)
			}
			created = true
		case err != nil:
			return err
		}

		a.RecordID = &record.ID
		return tx.Create(a).Error
	})
	if err != nil {
		return nil, err
	}

	if created {
		events.Emit(s.publisher, s.logger, events.RecordCreated, record.RecordNo, &record)
	}
	events.Emit(s.publisher, s.logger, events.AppointmentCreated, a.OrderNo, a)
	return &record, nil
}

// Transition changes the status of appointment id. counselorID, when set,
// must own the appointment.
func (s *AppointmentService) Transition(ctx context.Context, id uint, next model.AppointmentStatus, counselorID *uint) (*model.Appointment, error) {
	var a model.Appointment
	var change StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if counselorID != nil && (a.CounselorID == nil || *a.CounselorID != *counselorID) {
			return ErrForbidden
		}

		from := a.Status
		if err := ApplyTransition(&a, next, s.now()); err != nil {
			return err
		}
		change = StatusChange{AppointmentID: a.ID, OrderNo: a.OrderNo, From: from, To: next, CounselorID: a.CounselorID}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}

	events.Emit(s.publisher, s.logger, events.AppointmentStatusChanged, a.OrderNo, change)
	return &a, nil
}
