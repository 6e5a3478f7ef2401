package model

import (
	"time"

	"gorm.io/datatypes"
)

// CounselorStatus is the account state of a counselor
type CounselorStatus string

const (
	CounselorEnabled  CounselorStatus = "enabled"
	CounselorDisabled CounselorStatus = "disabled"
)

// Counselor is staff providing consultations
type Counselor struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(50);not null;index" json:"name"`
	Username      string          `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Gender        Gender          `gorm:"type:varchar(10);not null" json:"gender"`
	Phone         string          `gorm:"type:varchar(20);index" json:"phone"`
	Email         string          `gorm:"type:varchar(254);index" json:"email"`
	PasswordHash  string          `gorm:"type:varchar(255)" json:"-"`
	Organization  string          `gorm:"type:varchar(100);index" json:"organization"`
	Credentials   string          `gorm:"type:text" json:"credentials"`
	ExpertiseTags datatypes.JSON  `gorm:"type:jsonb" json:"expertise_tags"`
	ServeType     datatypes.JSON  `gorm:"type:jsonb" json:"serve_type"`
	Status        CounselorStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Profile *CounselorProfile `gorm:"foreignKey:CounselorID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// TableName specifies the table name for Counselor
func (Counselor) TableName() string {
	return "counselors"
}

// IsEnabled reports whether the counselor may log in
func (c *Counselor) IsEnabled() bool {
	return c.Status == CounselorEnabled
}

// CounselorProfile holds the public-facing details of a counselor
type CounselorProfile struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CounselorID       uint           `gorm:"uniqueIndex;not null" json:"counselor_id"`
	Name              string         `gorm:"type:varchar(50)" json:"name"`
	GraduatedSchool   string         `gorm:"type:varchar(100)" json:"graduated_school"`
	Address           string         `gorm:"type:varchar(255)" json:"address"`
	Organization      string         `gorm:"type:varchar(100)" json:"organization"`
	Profession        string         `gorm:"type:varchar(100)" json:"profession"`
	Expertise         datatypes.JSON `gorm:"type:jsonb" json:"expertise"`
	Introduction      string         `gorm:"type:text" json:"introduction"`
	Experience        string         `gorm:"type:text" json:"experience"`
	Education         string         `gorm:"type:varchar(100)" json:"education"`
	SkilledField      string         `gorm:"type:text" json:"skilled_field"`
	Certifications    string         `gorm:"type:text" json:"certifications"`
	AvatarURL         string         `gorm:"type:varchar(500)" json:"avatar"`
	ConsultationCount int            `gorm:"not null;default:0" json:"consultation_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName specifies the table name for CounselorProfile
func (CounselorProfile) TableName() string {
	return "counselor_profiles"
}

// CounselorAuthToken is an opaque login token issued to a Counselor
type CounselorAuthToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	IsActive  bool       `gorm:"not null;index" json:"is_active"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Owner Counselor `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CounselorAuthToken
func (CounselorAuthToken) TableName() string {
	return "counselor_auth_tokens"
}
