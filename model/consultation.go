package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ClientType distinguishes student clients from adults
type ClientType string

const (
	ClientStudent ClientType = "student"
	ClientAdult   ClientType = "adult"
)

// RecordStatus is the state of a consultation record
type RecordStatus string

const (
	RecordActive    RecordStatus = "active"
	RecordCompleted RecordStatus = "completed"
	RecordClosed    RecordStatus = "closed"
)

// ConsultationRecord is a counselor's case file for one client
type ConsultationRecord struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	RecordNo         string       `gorm:"type:varchar(40);uniqueIndex;not null" json:"record_no"`
	CounselorID      *uint        `gorm:"index" json:"counselor_id"`
	StudentID        *uint        `gorm:"index" json:"student_id"`
	ClientName       string       `gorm:"type:varchar(50);not null;index" json:"client_name"`
	ClientType       ClientType   `gorm:"type:varchar(10);not null" json:"client_type"`
	Gender           Gender       `gorm:"type:varchar(10)" json:"gender"`
	Age              *int         `json:"age"`
	School           string       `gorm:"type:varchar(100)" json:"school"`
	Grade            string       `gorm:"type:varchar(50)" json:"grade"`
	ClassName        string       `gorm:"type:varchar(50)" json:"class_name"`
	Contact          string       `gorm:"type:varchar(50)" json:"contact"`
	EmergencyContact string       `gorm:"type:varchar(50)" json:"emergency_contact"`
	EmergencyPhone   string       `gorm:"type:varchar(20)" json:"emergency_phone"`
	ReferralSource   string       `gorm:"type:varchar(100)" json:"referral_source"`
	MainComplaint    string       `gorm:"type:text" json:"main_complaint"`
	ConsultationGoal string       `gorm:"type:text" json:"consultation_goal"`
	InterviewCount   int          `gorm:"not null;default:0" json:"interview_count"`
	InterviewType    string       `gorm:"type:varchar(50)" json:"interview_type"`
	CurrentStatus    RecordStatus `gorm:"type:varchar(20);not null;index" json:"current_status"`
	CreatedBy        string       `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	Counselor *Counselor            `gorm:"foreignKey:CounselorID;constraint:OnDelete:SET NULL" json:"-"`
	Student   *Student              `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
	Sessions  []ConsultationSession `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
}

// TableName specifies the table name for ConsultationRecord
func (ConsultationRecord) TableName() string {
	return "consultation_records"
}

// ParseRecordStatus accepts a status value or its display label. An empty
// string is active.
func ParseRecordStatus(s string) (RecordStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active", "进行中":
		return RecordActive, true
	case "completed", "已完成":
		return RecordCompleted, true
	case "closed", "已结案", "已关闭":
		return RecordClosed, true
	}
	return "", false
}

// VisitStatus is the state of a single consultation session
type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitCompleted VisitStatus = "completed"
	VisitCancelled VisitStatus = "cancelled"
)

// IsValid reports whether s is a known visit status
func (s VisitStatus) IsValid() bool {
	return s == VisitScheduled || s == VisitCompleted || s == VisitCancelled
}

// ParseVisitStatus accepts a status value or its display label. fallback is
// returned for an empty string.
func ParseVisitStatus(s string, fallback VisitStatus) (VisitStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback, true
	case "completed", "已完成":
		return VisitCompleted, true
	case "scheduled", "已预约":
		return VisitScheduled, true
	case "cancelled", "已取消":
		return VisitCancelled, true
	}
	return "", false
}

// ConsultationSession is one interview within a ConsultationRecord
type ConsultationSession struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	RecordID               uint           `gorm:"not null;uniqueIndex:idx_record_session,priority:1" json:"record_id"`
	SessionNumber          int            `gorm:"not null;uniqueIndex:idx_record_session,priority:2" json:"session_number"`
	InterviewDate          datatypes.Date `json:"interview_date"`
	InterviewTime          string         `gorm:"type:varchar(20)" json:"interview_time"`
	Duration               *int           `json:"duration"`
	VisitStatus            VisitStatus    `gorm:"type:varchar(20);not null" json:"visit_status"`
	ObjectiveDescription   string         `gorm:"type:text" json:"objective_description"`
	DoctorEvaluation       string         `gorm:"type:text" json:"doctor_evaluation"`
	FollowUpPlan           string         `gorm:"type:text" json:"follow_up_plan"`
	NextVisitPlan          string         `gorm:"type:text" json:"next_visit_plan"`
	CrisisStatus           datatypes.JSON `gorm:"type:jsonb" json:"crisis_status"`
	ConsultantName         string         `gorm:"type:varchar(50)" json:"consultant_name"`
	IsThirdPartyEvaluation bool           `gorm:"not null" json:"is_third_party_evaluation"`
	SignatureImage         string         `gorm:"type:varchar(500)" json:"signature_image"`
	AttachImages           datatypes.JSON `gorm:"type:jsonb" json:"attach_images"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// TableName specifies the table name for ConsultationSession
func (ConsultationSession) TableName() string {
	return "consultation_sessions"
}
