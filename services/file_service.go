package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services/filestore"
	"github.com/mindbridge/counsel-api/utils/pdfvalidation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxUploadSize caps every upload handled by FileService
const MaxUploadSize = 20 << 20

var (
	ErrFileTooLarge       = errors.New("file exceeds the 20MB upload limit")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrFileNotInStore     = errors.New("stored file not found")
	templateExtensions    = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx"}
	spreadsheetExtensions = []string{".xlsx"}
	imageExtensions       = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// Upload describes who uploads a file and what it belongs to
type Upload struct {
	Module       string
	AssociatedID *uint
	Realm        model.Realm
	UploaderID   uint
}

// FileService stores uploads in the FileStore and their metadata in the database
type FileService struct {
	db     *gorm.DB
	store  filestore.FileStore
	logger *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(db *gorm.DB, store filestore.FileStore, logger *zap.Logger) *FileService {
	return &FileService{db: db, store: store, logger: logger}
}

// Store returns the underlying file store
func (s *FileService) Store() filestore.FileStore {
	return s.store
}

func hasExtension(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// IsSpreadsheet reports whether name is an xlsx workbook
func IsSpreadsheet(name string) bool { return hasExtension(name, spreadsheetExtensions) }

// IsImage reports whether name has an image extension
func IsImage(name string) bool { return hasExtension(name, imageExtensions) }

// ReadUpload reads a multipart file into memory, enforcing MaxUploadSize
func ReadUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(content) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	return content, nil
}

// Save writes content to the store and records it
func (s *FileService) Save(ctx context.Context, filename string, content []byte, up Upload) (*model.StoredFile, error) {
	key := filestore.GenerateKey(up.Module, filename)
	contentType := filestore.GetContentType(filename)

	size, err := s.store.Put(ctx, key, bytes.NewReader(content), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &model.StoredFile{
		FileName:      filestore.SanitizeName(filename),
		StorageKey:    key,
		FileSize:      size,
		ContentType:   contentType,
		Module:        up.Module,
		AssociatedID:  up.AssociatedID,
		UploaderRealm: up.Realm,
		UploaderID:    up.UploaderID,
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		// keep storage and metadata in step
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return file, nil
}

// SaveTemplate validates a template document and stores it. PDFs are checked
// for a readable page structure.
func (s *FileService) SaveTemplate(ctx context.Context, filename string, content []byte, up Upload) (*model.StoredFile, error) {
	if !hasExtension(filename, templateExtensions) {
		return nil, ErrUnsupportedFile
	}

	pages := 0
	if pdfvalidation.IsPDF(filename) {
		result, err := pdfvalidation.Check(content, pdfvalidation.TemplateLimits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
		}
		pages = result.PageCount
	}

	up.Module = model.ModuleTemplate
	file, err := s.Save(ctx, filename, content, up)
	if err != nil {
		return nil, err
	}
	if pages > 0 {
		file.PageCount = pages
		if err := s.db.WithContext(ctx).Model(file).Update("page_count", pages).Error; err != nil {
			return nil, err
		}
	}
	return file, nil
}

// Find loads file metadata
func (s *FileService) Find(ctx context.Context, id uint) (*model.StoredFile, error) {
	var file model.StoredFile
	if err := s.db.WithContext(ctx).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotInStore
		}
		return nil, err
	}
	return &file, nil
}

// Open streams the content of a stored file
func (s *FileService) Open(ctx context.Context, file *model.StoredFile) (io.ReadCloser, error) {
	rc, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, ErrFileNotInStore
		}
		return nil, err
	}
	return rc, nil
}

// Delete removes the object and its metadata
func (s *FileService) Delete(ctx context.Context, file *model.StoredFile) error {
	if err := s.store.Delete(ctx, file.StorageKey); err != nil && !errors.Is(err, filestore.ErrNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Delete(file).Error
}

// Bundle writes the given files into a zip archive
func (s *FileService) Bundle(ctx context.Context, w io.Writer, files []model.StoredFile) error {
	entries := make([]filestore.BundleEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, filestore.BundleEntry{Name: f.FileName, Key: f.StorageKey})
	}
	return filestore.WriteZip(ctx, s.store, w, entries)
}
