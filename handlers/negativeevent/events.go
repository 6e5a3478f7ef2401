package negativeevent

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// EventHandler handles negative event requests. Deleted events stay in the
// table with disabled=true and drop out of lists.
type EventHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewEventHandler creates a new negative event handler
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// EventRequest is the body of POST and PUT. On PUT absent fields are kept.
type EventRequest struct {
	StudentID    *uint   `json:"student_id"`
	StudentName  *string `json:"student_name" validate:"omitempty,min=1,max=50"`
	Organization *string `json:"organization" validate:"omitempty,max=100"`
	Grade        *string `json:"grade" validate:"omitempty,max=50"`
	ClassName    *string `json:"class_name" validate:"omitempty,max=50"`
	EventDetails *string `json:"event_details"`
	EventDate    *string `json:"event_date"`
}

func (r *EventRequest) apply(e *model.NegativeEvent) error {
	if r.EventDate != nil {
		d, err := timefmt.ParseDate(*r.EventDate)
		if err != nil {
			return err
		}
		e.EventDate = d
	}
	if r.StudentID != nil {
		e.StudentID = r.StudentID
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeString(*src)
		}
	}
	set(&e.StudentName, r.StudentName)
	set(&e.Organization, r.Organization)
	set(&e.Grade, r.Grade)
	set(&e.ClassName, r.ClassName)
	if r.EventDetails != nil {
		e.EventDetails = *r.EventDetails
	}
	return nil
}

func (h *EventHandler) find(c *fiber.Ctx) (*model.NegativeEvent, error) {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return nil, response.BadRequest(c, "Invalid event ID")
	}
	var event model.NegativeEvent
	if err := h.db.Where("disabled = ?", false).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NotFound(c, "Negative event not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch negative event")
	}
	return &event, nil
}

// ListEvents handles GET /api/admin/negative-events
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.NegativeEvent{}).Where("disabled = ?", false)
	query = queryHelper.Contains(query, "student_name", c.Query("student_name", c.Query("name")))
	query = queryHelper.Contains(query, "organization", c.Query("organization"))
	query = queryHelper.Equals(query, "grade", c.Query("grade"))
	query = queryHelper.Equals(query, "class_name", c.Query("class_name"))
	query, err := queryHelper.DateRange(query, "event_date", c.Query("date_start"), c.Query("date_end"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var events []model.NegativeEvent
	total, err := queryHelper.Paginate(query, page, "event_date DESC, created_at DESC", &events)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch negative events")
	}

	return response.Paginated(c, events, page.Meta(total))
}

// GetEvent handles GET /api/admin/negative-events/:id
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.find(c)
	if event == nil {
		return err
	}
	return response.Success(c, event)
}

// CreateEvent handles POST /api/admin/negative-events
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.StudentName == nil || *req.StudentName == "" || req.EventDetails == nil || *req.EventDetails == "" {
		return response.BadRequest(c, "student_name and event_details are required")
	}

	event := model.NegativeEvent{CreatedBy: middleware.ActorName(c)}
	if err := req.apply(&event); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Create(&event).Error; err != nil {
		return response.InternalServerError(c, "Failed to create negative event")
	}

	return response.Created(c, event)
}

// UpdateEvent handles PUT /api/admin/negative-events/:id
func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	event, err := h.find(c)
	if event == nil {
		return err
	}
	if err := req.apply(event); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.db.Save(event).Error; err != nil {
		return response.InternalServerError(c, "Failed to update negative event")
	}

	return response.Success(c, event)
}

// DeleteEvent handles DELETE /api/admin/negative-events/:id
func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	event, err := h.find(c)
	if event == nil {
		return err
	}

	if err := h.db.Model(event).Update("disabled", true).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete negative event")
	}

	return response.SuccessWithMessage(c, "Negative event deleted successfully", nil)
}
