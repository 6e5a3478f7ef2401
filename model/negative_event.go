package model

import (
	"time"

	"gorm.io/datatypes"
)

// NegativeEvent is an adverse incident involving a student.
// Deleting an event only sets Disabled.
type NegativeEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StudentID    *uint          `gorm:"index" json:"student_id"`
	StudentName  string         `gorm:"type:varchar(50);not null;index" json:"student_name"`
	Organization string         `gorm:"type:varchar(100)" json:"organization"`
	Grade        string         `gorm:"type:varchar(50)" json:"grade"`
	ClassName    string         `gorm:"type:varchar(50)" json:"class_name"`
	EventDetails string         `gorm:"type:text;not null" json:"event_details"`
	EventDate    datatypes.Date `gorm:"index" json:"event_date"`
	CreatedBy    string         `gorm:"type:varchar(150)" json:"created_by"`
	Disabled     bool           `gorm:"not null;index" json:"disabled"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for NegativeEvent
func (NegativeEvent) TableName() string {
	return "negative_events"
}
