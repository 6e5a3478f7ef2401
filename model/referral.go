package model

import (
	"time"

	"gorm.io/datatypes"
)

// ReferralUnit is an external organization students can be referred to
type ReferralUnit struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UnitName     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"unit_name"`
	Address      string    `gorm:"type:varchar(255)" json:"address"`
	ContactPhone string    `gorm:"type:varchar(20)" json:"contact_phone"`
	CreatedBy    string    `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for ReferralUnit
func (ReferralUnit) TableName() string {
	return "referral_units"
}

// StudentReferral records a student being directed to a ReferralUnit
type StudentReferral struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	StudentID      *uint          `gorm:"index" json:"student_id"`
	StudentName    string         `gorm:"type:varchar(50);not null;index" json:"student_name"`
	Gender         Gender         `gorm:"type:varchar(10)" json:"gender"`
	School         string         `gorm:"type:varchar(100)" json:"school"`
	Grade          string         `gorm:"type:varchar(50)" json:"grade"`
	ClassName      string         `gorm:"type:varchar(50)" json:"class_name"`
	ReferralUnitID *uint          `gorm:"index" json:"referral_unit_id"`
	ReferralReason string         `gorm:"type:text" json:"referral_reason"`
	ReferralDate   datatypes.Date `gorm:"index" json:"referral_date"`
	ImagePath      string         `gorm:"type:varchar(500)" json:"image_path"`
	CreatedBy      string         `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Student      *Student      `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
	ReferralUnit *ReferralUnit `gorm:"foreignKey:ReferralUnitID;constraint:OnDelete:SET NULL" json:"referral_unit,omitempty"`
}

// TableName specifies the table name for StudentReferral
func (StudentReferral) TableName() string {
	return "student_referrals"
}
