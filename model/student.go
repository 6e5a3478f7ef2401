package model

import "time"

// Student is a service recipient enrolled at a school
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentNo     string    `gorm:"type:varchar(50);index" json:"student_no"`
	Name          string    `gorm:"type:varchar(50);not null;index" json:"name"`
	Gender        Gender    `gorm:"type:varchar(10)" json:"gender"`
	Age           *int      `json:"age"`
	School        string    `gorm:"type:varchar(100);index" json:"school"`
	Grade         string    `gorm:"type:varchar(50)" json:"grade"`
	ClassName     string    `gorm:"type:varchar(50)" json:"class_name"`
	Contact       string    `gorm:"type:varchar(50)" json:"contact"`
	GuardianName  string    `gorm:"type:varchar(50)" json:"guardian_name"`
	GuardianPhone string    `gorm:"type:varchar(20)" json:"guardian_phone"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedBy     string    `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}
