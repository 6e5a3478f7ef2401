package content

import (
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// ContentHandler serves categories, articles and banners
type ContentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewContentHandler creates a new content handler
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}
