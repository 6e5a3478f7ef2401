package model

import "time"

// AdminAuditLog is the audit trail of mutating admin actions
type AdminAuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`
	Action      string    `gorm:"type:varchar(100);not null" json:"action"` // e.g. "counselor_delete"
	Resource    string    `gorm:"type:varchar(100)" json:"resource"`        // e.g. "counselors"
	ResourceID  uint      `json:"resource_id"`
	NewValue    string    `gorm:"type:jsonb" json:"new_value"`
	StatusCode  int       `json:"status_code"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent   string    `gorm:"type:text" json:"user_agent"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Admin AdminUser `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
