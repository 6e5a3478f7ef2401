package model

import (
	"time"

	"gorm.io/datatypes"
)

// Category groups educational articles
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CategoryName string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"category_name"`
	SortOrder    int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedBy    string    `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// ArticleType is the kind of media an article carries
type ArticleType string

const (
	ArticleText     ArticleType = "article"
	ArticleVideo    ArticleType = "video"
	ArticleResource ArticleType = "resource"
)

// PublishStatus applies to publishable content
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
)

// Article is an educational content item
type Article struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CategoryID   uint          `gorm:"not null;index" json:"category_id"`
	Title        string        `gorm:"type:varchar(200);not null;index" json:"title"`
	Content      string        `gorm:"type:text" json:"content"`
	ContentType  ArticleType   `gorm:"type:varchar(20);not null" json:"type"`
	VideoURL     string        `gorm:"type:varchar(500)" json:"video"`
	ResourceURL  string        `gorm:"type:varchar(500)" json:"resource"`
	ReadCount    int           `gorm:"not null;default:0" json:"read_count"`
	LikeCount    int           `gorm:"not null;default:0" json:"like_count"`
	CollectCount int           `gorm:"not null;default:0" json:"collect_count"`
	Status       PublishStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedBy    string        `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// TableName specifies the table name for Article
func (Article) TableName() string {
	return "articles"
}

// Banner is a carousel of pictures shown in a client module
type Banner struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ModuleName    string         `gorm:"type:varchar(100);not null" json:"module_name"`
	Pictures      datatypes.JSON `gorm:"type:jsonb" json:"pictures"`
	CarouselCount int            `gorm:"not null;default:0" json:"carousel_count"`
	CreatedBy     string         `gorm:"type:varchar(150)" json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Banner
func (Banner) TableName() string {
	return "banners"
}
