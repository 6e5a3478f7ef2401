package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentPending    AppointmentStatus = "pending"
	AppointmentAccepted   AppointmentStatus = "accepted"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentRejected   AppointmentStatus = "rejected"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:    {AppointmentAccepted, AppointmentInProgress, AppointmentRejected, AppointmentCancelled},
	AppointmentAccepted:   {AppointmentInProgress, AppointmentCompleted, AppointmentCancelled},
	AppointmentInProgress: {AppointmentCompleted, AppointmentCancelled},
}

// IsValid reports whether s is a known status
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentPending, AppointmentAccepted, AppointmentInProgress,
		AppointmentCompleted, AppointmentRejected, AppointmentCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s AppointmentStatus) IsTerminal() bool {
	_, ok := appointmentTransitions[s]
	return !ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceType is the form of counseling requested
type ServiceType string

const (
	ServiceIndividual ServiceType = "individual"
	ServiceGroup      ServiceType = "group"
	ServiceFamily     ServiceType = "family"
	ServiceCrisis     ServiceType = "crisis"
	ServiceOnline     ServiceType = "online"
	ServiceOffline    ServiceType = "offline"
)

// Appointment is a scheduled or requested counseling session (an "order")
type Appointment struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	OrderNo         string            `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_no"`
	StudentID       *uint             `gorm:"index" json:"student_id"`
	RecordID        *uint             `gorm:"index" json:"record_id"`
	CounselorID     *uint             `gorm:"index" json:"counselor_id"`
	ClientName      string            `gorm:"type:varchar(50);not null;index" json:"client_name"`
	ClientGender    Gender            `gorm:"type:varchar(10)" json:"client_gender"`
	ClientAge       *int              `json:"client_age"`
	ContactInfo     string            `gorm:"type:varchar(100)" json:"contact_info"`
	ServiceType     ServiceType       `gorm:"type:varchar(20);not null;index" json:"service_type"`
	Keywords        datatypes.JSON    `gorm:"type:jsonb" json:"keywords"`
	AppointmentDate datatypes.Date    `gorm:"index" json:"appointment_date"`
	TimeSlot        string            `gorm:"type:varchar(20)" json:"time_slot"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	AcceptedAt      *time.Time        `json:"accepted_at"`
	StartedAt       *time.Time        `json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at"`
	CreatedBy       string            `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Counselor *Counselor          `gorm:"foreignKey:CounselorID;constraint:OnDelete:SET NULL" json:"counselor,omitempty"`
	Student   *Student            `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
	Record    *ConsultationRecord `gorm:"foreignKey:RecordID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for Appointment
func (Appointment) TableName() string {
	return "appointments"
}

// Review is client feedback on a finished appointment
type Review struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AppointmentID uint      `gorm:"uniqueIndex;not null" json:"appointment_id"`
	CounselorID   uint      `gorm:"not null;index" json:"counselor_id"`
	ClientName    string    `gorm:"type:varchar(50)" json:"client_name"`
	Rating        int       `gorm:"not null" json:"rating"`
	Content       string    `gorm:"type:text" json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"-"`
	Counselor   Counselor   `gorm:"foreignKey:CounselorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Review
func (Review) TableName() string {
	return "reviews"
}

var statusLabels = map[string]AppointmentStatus{
	"已结束": AppointmentCompleted,
	"咨询中": AppointmentAccepted,
	"进行中": AppointmentInProgress,
	"等待中": AppointmentPending,
	"待接单": AppointmentPending,
	"已拒绝": AppointmentRejected,
	"已取消": AppointmentCancelled,
}

// ParseAppointmentStatus accepts a status value or one of its display labels
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	s = strings.TrimSpace(s)
	if st, ok := statusLabels[s]; ok {
		return st, true
	}
	st := AppointmentStatus(strings.ToLower(s))
	return st, st.IsValid()
}

// ParseServiceType accepts a service type value or the online/offline labels
func ParseServiceType(s string) (ServiceType, bool) {
	switch s = strings.TrimSpace(s); s {
	case "在线咨询":
		return ServiceOnline, true
	case "线下咨询":
		return ServiceOffline, true
	}
	switch st := ServiceType(strings.ToLower(s)); st {
	case ServiceIndividual, ServiceGroup, ServiceFamily, ServiceCrisis, ServiceOnline, ServiceOffline:
		return st, true
	}
	return "", false
}

// Label is the display name of online and offline service types
func (t ServiceType) Label() string {
	switch t {
	case ServiceOnline:
		return "在线咨询"
	case ServiceOffline:
		return "线下咨询"
	}
	return string(t)
}
