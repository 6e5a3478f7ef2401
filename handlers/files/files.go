package files

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/response"
	"go.uber.org/zap"
)

// FileHandler serves stored files to holders of a signed ticket
type FileHandler struct {
	files   *services.FileService
	tickets *auth.TicketManager
	logger  *zap.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *services.FileService, tickets *auth.TicketManager, logger *zap.Logger) *FileHandler {
	return &FileHandler{files: files, tickets: tickets, logger: logger}
}

// Download handles GET /api/files/:ticket
func (h *FileHandler) Download(c *fiber.Ctx) error {
	claims, err := h.tickets.Parse(c.Params("ticket"))
	if err != nil {
		if errors.Is(err, auth.ErrExpiredTicket) {
			return response.Unauthorized(c, "Link has expired")
		}
		return response.Unauthorized(c, "Invalid link")
	}

	file, err := h.files.Find(c.UserContext(), claims.FileID)
	if err != nil {
		if errors.Is(err, services.ErrFileNotInStore) {
			return response.NotFound(c, "File not found")
		}
		return response.InternalServerError(c, "Failed to fetch file")
	}

	rc, err := h.files.Open(c.UserContext(), file)
	if err != nil {
		if errors.Is(err, services.ErrFileNotInStore) {
			return response.NotFound(c, "File not found")
		}
		h.logger.Error("failed to open stored file", zap.Uint("file_id", file.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to read file")
	}

	h.logger.Debug("file download",
		zap.Uint("file_id", file.ID),
		zap.String("realm", claims.Realm),
		zap.Uint("user_id", claims.UserID))

	if file.ContentType != "" {
		c.Set(fiber.HeaderContentType, file.ContentType)
	}
	c.Attachment(file.FileName)
	// fasthttp closes rc once the body is written
	return c.SendStream(rc, int(file.FileSize))
}
