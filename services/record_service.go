package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services/events"
	"github.com/mindbridge/counsel-api/services/excel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sessionNumberAttempts bounds retries when two writers pick the same number
const sessionNumberAttempts = 3

// RecordService owns consultation records and their sessions
type RecordService struct {
	db        *gorm.DB
	publisher events.Publisher
	logger    *zap.Logger
}

// NewRecordService creates a new record service
func NewRecordService(db *gorm.DB, publisher events.Publisher, logger *zap.Logger) *RecordService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RecordService{db: db, publisher: publisher, logger: logger}
}

// Owned loads record id if it belongs to counselorID. Missing and foreign
// records both yield ErrNotFound.
func (s *RecordService) Owned(ctx context.Context, id, counselorID uint) (*model.ConsultationRecord, error) {
	var record model.ConsultationRecord
	err := s.db.WithContext(ctx).Where("id = ? AND counselor_id = ?", id, counselorID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Create stores a record for the counselor, with an optional first session
func (s *RecordService) Create(ctx context.Context, counselor *model.Counselor, record *model.ConsultationRecord, first *model.ConsultationSession) error {
	s.prepare(counselor, record)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if first == nil {
			return nil
		}
		first.RecordID = record.ID
		first.SessionNumber = 1
		return tx.Create(first).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	events.Emit(s.publisher, s.logger, events.RecordCreated, record.RecordNo, record)
	return nil
}

func (s *RecordService) prepare(counselor *model.Counselor, record *model.ConsultationRecord) {
	if record.RecordNo == "" {
		record.RecordNo = GenerateRecordNo()
	}
	record.CounselorID = &counselor.ID
	if record.CreatedBy == "" {
		record.CreatedBy = counselor.Username
	}
	if record.ClientType == "" {
		record.ClientType = model.ClientStudent
	}
	if record.CurrentStatus == "" {
		record.CurrentStatus = model.RecordActive
	}
}

// AddSession appends a session to the record with the next session number
func (s *RecordService) AddSession(ctx context.Context, recordID uint, session *model.ConsultationSession) error {
	return s.addSession(s.db.WithContext(ctx), recordID, session)
}

func (s *RecordService) addSession(db *gorm.DB, recordID uint, session *model.ConsultationSession) error {
	session.RecordID = recordID
	if session.VisitStatus == "" {
		session.VisitStatus = model.VisitScheduled
	}
	if session.CrisisStatus == nil {
		session.CrisisStatus = []byte("[]")
	}
	if session.AttachImages == nil {
		session.AttachImages = []byte("[]")
	}

	var err error
	for attempt := 0; attempt < sessionNumberAttempts; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			var last int
			if err := tx.Model(&model.ConsultationSession{}).
				Where("record_id = ?", recordID).
				Select("COALESCE(MAX(session_number), 0)").
				Scan(&last).Error; err != nil {
				return err
			}
			session.SessionNumber = last + 1
			return tx.Create(session).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		session.ID = 0
	}
	if err != nil {
		return fmt.Errorf("failed to add session: %w", err)
	}
	return nil
}

// OwnedSession loads session id if its record belongs to counselorID
func (s *RecordService) OwnedSession(ctx context.Context, id, counselorID uint) (*model.ConsultationSession, error) {
	var session model.ConsultationSession
	err := s.db.WithContext(ctx).
		Joins("JOIN consultation_records ON consultation_records.id = consultation_sessions.record_id").
		Where("consultation_sessions.id = ? AND consultation_records.counselor_id = ?", id, counselorID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Sessions lists a record's sessions in order
func (s *RecordService) Sessions(ctx context.Context, recordID uint) ([]model.ConsultationSession, error) {
	var sessions []model.ConsultationSession
	err := s.db.WithContext(ctx).Where("record_id = ?", recordID).Order("session_number").Find(&sessions).Error
	return sessions, err
}

// Import stores parsed sheet rows for the counselor. A row joins the
// counselor's existing record for the same client, or opens one.
func (s *RecordService) Import(ctx context.Context, counselor *model.Counselor, items []excel.RecordImport, report *excel.ImportReport) {
	for _, item := range items {
		if err := s.importRow(ctx, counselor, item); err != nil {
			s.logger.Warn("record import row failed", zap.Int("row", item.Row), zap.Error(err))
			report.AddError(item.Row, "failed to save record")
			continue
		}
		report.SuccessCount++
	}
}

func (s *RecordService) importRow(ctx context.Context, counselor *model.Counselor, item excel.RecordImport) error {
	record := item.Record
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.StudentNo != "" {
			var student model.Student
			if err := tx.Select("id").Where("student_no = ?", item.StudentNo).First(&student).Error; err == nil {
				record.StudentID = &student.ID
			}
		}

		var existing model.ConsultationRecord
		err := tx.Where("client_name = ? AND counselor_id = ?", record.ClientName, counselor.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.prepare(counselor, &record)
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			record = existing
		}

		if item.Session == nil {
			return nil
		}
		session := *item.Session
		if session.ConsultantName == "" {
			session.ConsultantName = counselor.Name
		}
		if err := s.addSession(tx, record.ID, &session); err != nil {
			return err
		}
		return tx.Model(&model.ConsultationRecord{}).Where("id = ?", record.ID).
			UpdateColumn("interview_count", gorm.Expr("interview_count + 1")).Error
	})
	if err != nil {
		return err
	}

	if created {
		events.Emit(s.publisher, s.logger, events.RecordCreated, record.RecordNo, &record)
	}
	return nil
}
