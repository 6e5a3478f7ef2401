package consultant

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TemplateListRequest struct {
	PageRequest
	Name string `json:"name"`
}

// TemplateDownloadRequest selects templates by id or by file name. The
// name list is accepted under any of its historical keys.
type TemplateDownloadRequest struct {
	IDs       []uint   `json:"ids"`
	FileNames []string `json:"fileNames"`
	Filenames []string `json:"filenames"`
	Files     []string `json:"files"`
}

func (r TemplateDownloadRequest) names() []string {
	names := append([]string{}, r.FileNames...)
	names = append(names, r.Filenames...)
	return append(names, r.Files...)
}

func (h *Handler) ownTemplates(c *fiber.Ctx) *gorm.DB {
	return h.DB.Model(&model.StoredFile{}).
		Where("module = ? AND uploader_realm = ? AND uploader_id = ?", model.ModuleTemplate, model.RealmCounselor, counselor(c).ID)
}

// ListTemplates handles POST /api/consultant/templates/list
func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	var req TemplateListRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	query := queryHelper.Contains(h.ownTemplates(c), "file_name", req.Name)
	page := req.page()
	var files []model.StoredFile
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &files)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch templates")
	}
	return response.Paginated(c, files, page.Meta(total))
}

// UploadTemplate handles POST /api/consultant/templates/upload (multipart "file")
func (h *Handler) UploadTemplate(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	content, err := services.ReadUpload(fh)
	if err != nil {
		return h.uploadError(c, err)
	}

	me := counselor(c)
	file, err := h.Files.SaveTemplate(c.UserContext(), fh.Filename, content, services.Upload{
		Realm:      model.RealmCounselor,
		UploaderID: me.ID,
	})
	if err != nil {
		return h.uploadError(c, err)
	}
	return response.Created(c, file)
}

// DownloadTemplates handles POST /api/consultant/templates/download. A single
// match is streamed as is; several are bundled into a zip.
func (h *Handler) DownloadTemplates(c *fiber.Ctx) error {
	var req TemplateDownloadRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	names := req.names()
	if len(req.IDs) == 0 && len(names) == 0 {
		return response.BadRequest(c, "No template selected")
	}

	query := h.ownTemplates(c)
	switch {
	case len(req.IDs) > 0 && len(names) > 0:
		query = query.Where("id IN ? OR file_name IN ?", req.IDs, names)
	case len(req.IDs) > 0:
		query = query.Where("id IN ?", req.IDs)
	default:
		query = query.Where("file_name IN ?", names)
	}

	var files []model.StoredFile
	if err := query.Order("created_at").Find(&files).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch templates")
	}
	if len(files) == 0 {
		return response.NotFound(c, "Template not found")
	}

	ctx := c.UserContext()
	if len(files) == 1 {
		rc, err := h.Files.Open(ctx, &files[0])
		if err != nil {
			return h.fileError(c, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return response.InternalServerError(c, "Failed to read template")
		}
		if files[0].ContentType != "" {
			c.Set(fiber.HeaderContentType, files[0].ContentType)
		}
		c.Attachment(files[0].FileName)
		return c.Send(content)
	}

	var buf bytes.Buffer
	if err := h.Files.Bundle(ctx, &buf, files); err != nil {
		return h.fileError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Attachment(fmt.Sprintf("templates_%s.zip", time.Now().Format("20060102150405")))
	return c.Send(buf.Bytes())
}

func (h *Handler) fileError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrFileNotInStore) {
		return response.NotFound(c, "File not found")
	}
	h.Logger.Error("failed to read stored file", zap.Error(err))
	return response.InternalServerError(c, "Failed to read file")
}
