package model

import (
	"strings"
	"time"
)

// CodePurpose is what a verification code may be redeemed for
type CodePurpose string

const (
	PurposeRegister CodePurpose = "register"
	PurposeLogin    CodePurpose = "login"
	PurposeReset    CodePurpose = "reset"
)

// IsValid reports whether p is a known purpose
func (p CodePurpose) IsValid() bool {
	return p == PurposeRegister || p == PurposeLogin || p == PurposeReset
}

const (
	VerificationCodeTTL = 5 * time.Minute
	CaptchaTTL          = 3 * time.Minute
	// MaxCodeAttempts wrong guesses burn a code
	MaxCodeAttempts = 5
)

// VerificationCode is a short numeric code delivered out of band
type VerificationCode struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Realm      Realm       `gorm:"type:varchar(10);not null;index" json:"realm"`
	Email      string      `gorm:"type:varchar(254);index" json:"email"`
	Phone      string      `gorm:"type:varchar(20);index" json:"phone"`
	Code       string      `gorm:"type:varchar(10);not null" json:"-"`
	Purpose    CodePurpose `gorm:"type:varchar(20);not null" json:"purpose"`
	IsVerified bool        `gorm:"not null" json:"is_verified"`
	Failures   int         `gorm:"not null;default:0" json:"-"`
	ExpiresAt  time.Time   `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName specifies the table name for VerificationCode
func (VerificationCode) TableName() string {
	return "verification_codes"
}

// Matches reports whether the code is unused, unexpired, not burned by
// failed guesses and equal to input
func (v *VerificationCode) Matches(input string, now time.Time) bool {
	return v != nil && !v.IsVerified && v.Failures < MaxCodeAttempts &&
		v.Code == input && now.Before(v.ExpiresAt)
}

// Captcha is a one-shot image challenge shown on the admin login form
type Captcha struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Text      string    `gorm:"type:varchar(10);not null" json:"-"`
	IsUsed    bool      `gorm:"not null" json:"is_used"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Captcha
func (Captcha) TableName() string {
	return "captchas"
}

// Matches reports whether the captcha is unused, unexpired and equal to
// input ignoring case
func (c *Captcha) Matches(input string, now time.Time) bool {
	return c != nil && !c.IsUsed && now.Before(c.ExpiresAt) && strings.EqualFold(c.Text, strings.TrimSpace(input))
}
