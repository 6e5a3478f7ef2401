package model

import "time"

// File modules group uploads by the feature that owns them
const (
	ModuleScheduleUpload    = "schedule_upload"
	ModuleInterviewUpload   = "interview_upload"
	ModuleRecordUpload      = "record_upload"
	ModuleTemplate          = "template"
	ModuleSessionAttachment = "session_attachment"
	ModuleAvatar            = "avatar"
	ModuleReferralImage     = "referral_image"
)

// StoredFile is the metadata of an object held by the file store
type StoredFile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"file_name"`
	StorageKey    string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"-"`
	FileSize      int64     `gorm:"not null" json:"file_size"`
	ContentType   string    `gorm:"type:varchar(100)" json:"content_type"`
	Module        string    `gorm:"type:varchar(50);not null;index" json:"module"`
	AssociatedID  *uint     `gorm:"index" json:"associated_id"`
	UploaderRealm Realm     `gorm:"type:varchar(10);not null" json:"uploader_realm"`
	UploaderID    uint      `gorm:"not null;index" json:"uploader_id"`
	PageCount     int       `json:"page_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for StoredFile
func (StoredFile) TableName() string {
	return "stored_files"
}
