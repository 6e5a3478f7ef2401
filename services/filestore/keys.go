package filestore

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxBaseRunes = 80

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// SanitizeName strips path elements and characters that are unsafe in keys
func SanitizeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// GenerateKey generates a unique key for file storage:
// <prefix>/<yyyy>/<mm>/<unix>_<uuid8>_<name>
func GenerateKey(prefix, filename string) string {
	now := time.Now()
	name := SanitizeName(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	// cut on a rune boundary; a split multibyte name is invalid UTF-8
	if r := []rune(base); len(r) > maxBaseRunes {
		base = string(r[:maxBaseRunes])
	}

	return fmt.Sprintf("%s/%s/%d_%s_%s%s",
		strings.Trim(prefix, "/"),
		now.Format("2006/01"),
		now.Unix(),
		uuid.NewString()[:8],
		base,
		strings.ToLower(ext),
	)
}

// GetContentType returns the content type for a filename
func GetContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
