package model

import "time"

// AdminUser is a staff account of the administrative console
type AdminUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"user_name"`
	Gender       Gender    `gorm:"type:varchar(10);not null" json:"gender"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for AdminUser
func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminAuthToken is an opaque login token issued to an AdminUser
type AdminAuthToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	IsActive  bool       `gorm:"not null;index" json:"is_active"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Owner AdminUser `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AdminAuthToken
func (AdminAuthToken) TableName() string {
	return "admin_auth_tokens"
}
