package model

import "time"

// Notification is an announcement published to clients
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content"`
	IsPublished bool       `gorm:"not null;index" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedBy   string     `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// SetPublished toggles publication and stamps the first publish time
func (n *Notification) SetPublished(published bool) {
	n.IsPublished = published
	if published && n.PublishedAt == nil {
		now := time.Now()
		n.PublishedAt = &now
	}
}
