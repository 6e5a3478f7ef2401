package model

import (
	"time"

	"gorm.io/datatypes"
)

// Schedule is one availability window a counselor declared for a day.
// A counselor cannot have two windows starting at the same time on the same day.
type Schedule struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CounselorID     uint           `gorm:"not null;uniqueIndex:idx_schedule_slot,priority:1" json:"counselor_id"`
	WorkDate        datatypes.Date `gorm:"not null;uniqueIndex:idx_schedule_slot,priority:2" json:"work_date"`
	StartTime       string         `gorm:"type:varchar(5);not null;uniqueIndex:idx_schedule_slot,priority:3" json:"start_time"`
	EndTime         string         `gorm:"type:varchar(5);not null" json:"end_time"`
	Available       bool           `gorm:"not null" json:"available"`
	MaxAppointments int            `gorm:"not null;default:5" json:"max_appointments"`
	CreatedBy       string         `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Counselor Counselor `gorm:"foreignKey:CounselorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Schedule
func (Schedule) TableName() string {
	return "schedules"
}

// WorkTime renders the window as "HH:MM-HH:MM"
func (s *Schedule) WorkTime() string {
	return s.StartTime + "-" + s.EndTime
}

// AbsenceType classifies why a counselor is unavailable
type AbsenceType string

const (
	AbsenceSickLeave     AbsenceType = "sick_leave"
	AbsencePersonalLeave AbsenceType = "personal_leave"
	AbsenceOther         AbsenceType = "other"
)

// Cancellation marks a time range in which a counselor is unavailable,
// overriding their schedule. The range is half-open: [CancelStart, CancelEnd).
type Cancellation struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CounselorID uint        `gorm:"not null;index" json:"counselor_id"`
	CancelStart time.Time   `gorm:"not null;index" json:"cancel_start"`
	CancelEnd   time.Time   `gorm:"not null;index" json:"cancel_end"`
	Reason      string      `gorm:"type:text" json:"reason"`
	AbsenceType AbsenceType `gorm:"type:varchar(20);not null" json:"absence_type"`
	CreatedBy   string      `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Counselor Counselor `gorm:"foreignKey:CounselorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Cancellation
func (Cancellation) TableName() string {
	return "cancellations"
}

// Overlaps reports whether the cancellation intersects [start, end).
// Ranges that only touch at an endpoint do not overlap.
func (c *Cancellation) Overlaps(start, end time.Time) bool {
	return Overlaps(c.CancelStart, c.CancelEnd, start, end)
}

// Overlaps reports whether half-open ranges [aStart, aEnd) and [bStart, bEnd) intersect
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
