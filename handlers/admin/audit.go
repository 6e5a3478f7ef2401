package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"gorm.io/gorm"
)

// AuditHandler exposes the admin audit trail
type AuditHandler struct {
	db *gorm.DB
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

// ListAuditLogs retrieves admin audit logs with pagination
// GET /api/admin/audit-logs
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.AdminAuditLog{}).Preload("Admin")
	query = queryHelper.Equals(query, "action", c.Query("action"))
	query = queryHelper.Equals(query, "resource", c.Query("resource"))
	query, err := queryHelper.EqualsUint(query, "admin_id", c.Query("admin_id"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	query, err = queryHelper.DateRange(query, "created_at", c.Query("date_start"), c.Query("date_end"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var logs []model.AdminAuditLog
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &logs)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, page.Meta(total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /api/admin/audit-logs/:id
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	logID, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var log model.AdminAuditLog
	if err := h.db.Preload("Admin").First(&log, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.Success(c, log)
}
