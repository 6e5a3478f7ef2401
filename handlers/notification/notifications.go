package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// Flag decodes a JSON boolean or the strings "true"/"false"
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flag(strings.EqualFold(strings.TrimSpace(s), "true") || s == "1")
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return errors.New("is_published must be a boolean")
	}
	*f = Flag(b)
	return nil
}

type NotificationRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content     *string `json:"content"`
	IsPublished *Flag   `json:"is_published"`
}

func (r *NotificationRequest) apply(n *model.Notification) {
	if r.Title != nil {
		n.Title = validation.SanitizeString(*r.Title)
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	if r.IsPublished != nil {
		n.SetPublished(bool(*r.IsPublished))
	}
}

// ListNotifications handles GET /api/admin/notifications
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Notification{})
	query = queryHelper.Contains(query, "title", c.Query("title"))
	switch c.Query("is_published") {
	case "true", "1":
		query = query.Where("is_published = ?", true)
	case "false", "0":
		query = query.Where("is_published = ?", false)
	}

	var notifications []model.Notification
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &notifications)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	return response.Paginated(c, notifications, page.Meta(total))
}

// GetNotification handles GET /api/admin/notifications/:id
func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	var n model.Notification
	if err := h.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to fetch notification")
	}

	return response.Success(c, n)
}

// CreateNotification handles POST /api/admin/notifications
func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var req NotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Title == nil || *req.Title == "" {
		return response.BadRequest(c, "title is required")
	}

	n := model.Notification{CreatedBy: middleware.ActorName(c)}
	req.apply(&n)

	if err := h.db.Create(&n).Error; err != nil {
		return response.InternalServerError(c, "Failed to create notification")
	}

	return response.Created(c, n)
}

// UpdateNotification handles PUT /api/admin/notifications/:id
func (h *NotificationHandler) UpdateNotification(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	var req NotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var n model.Notification
	if err := h.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to fetch notification")
	}

	req.apply(&n)
	if err := h.db.Save(&n).Error; err != nil {
		return response.InternalServerError(c, "Failed to update notification")
	}

	return response.Success(c, n)
}

// DeleteNotification handles DELETE /api/admin/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	result := h.db.Delete(&model.Notification{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete notification")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Notification not found")
	}

	return response.SuccessWithMessage(c, "Notification deleted successfully", nil)
}
