package model

import "time"

// InterviewStatus tracks the progress of an interview assessment
type InterviewStatus string

const (
	InterviewPending    InterviewStatus = "pending"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
)

// IsValid reports whether s is a known interview status
func (s InterviewStatus) IsValid() bool {
	switch s {
	case InterviewPending, InterviewInProgress, InterviewCompleted:
		return true
	}
	return false
}

// InterviewAssessment records interviews held with a student
type InterviewAssessment struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	StudentID        *uint           `gorm:"index" json:"student_id"`
	StudentName      string          `gorm:"type:varchar(50);not null;index" json:"student_name"`
	Organization     string          `gorm:"type:varchar(100)" json:"organization"`
	Grade            string          `gorm:"type:varchar(50)" json:"grade"`
	ClassName        string          `gorm:"type:varchar(50)" json:"class_name"`
	InterviewCount   int             `gorm:"not null;default:1" json:"interview_count"`
	Status           InterviewStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	InterviewType    string          `gorm:"type:varchar(50)" json:"interview_type"`
	DoctorAssessment string          `gorm:"type:text" json:"doctor_assessment"`
	FollowUpPlan     string          `gorm:"type:text" json:"follow_up_plan"`
	CreatedBy        string          `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for InterviewAssessment
func (InterviewAssessment) TableName() string {
	return "interview_assessments"
}
