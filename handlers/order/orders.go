package order

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderHandler is the admin view of appointments
type OrderHandler struct {
	db           *gorm.DB
	appointments *services.AppointmentService
	validator    *validation.Validator
	logger       *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, appointments *services.AppointmentService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		db:           db,
		appointments: appointments,
		validator:    validation.NewValidator(),
		logger:       logger,
	}
}

type CreateOrderRequest struct {
	StudentID       *uint    `json:"student_id"`
	CounselorID     *uint    `json:"counselor_id"`
	ClientName      string   `json:"client_name" validate:"required,min=1,max=50"`
	ClientGender    string   `json:"client_gender"`
	ClientAge       *int     `json:"client_age" validate:"omitempty,min=1,max=120"`
	ContactInfo     string   `json:"contact_info" validate:"max=100"`
	ServiceType     string   `json:"service_type" validate:"required"`
	Keywords        []string `json:"keywords"`
	AppointmentDate string   `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	TimeSlot        string   `json:"time_slot" validate:"max=20"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListOrders handles GET /api/admin/orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Appointment{}).Preload("Counselor")
	query = queryHelper.Contains(query, "client_name", c.Query("client_name", c.Query("name")))
	query = queryHelper.Equals(query, "order_no", c.Query("order_no"))
	if s := c.Query("status"); s != "" {
		status, ok := model.ParseAppointmentStatus(s)
		if !ok {
			return response.BadRequest(c, "Invalid status filter")
		}
		query = query.Where("status = ?", status)
	}
	if t := c.Query("service_type"); t != "" {
		st, ok := model.ParseServiceType(t)
		if !ok {
			return response.BadRequest(c, "Invalid service_type filter")
		}
		query = query.Where("service_type = ?", st)
	}
	query, err := queryHelper.EqualsUint(query, "counselor_id", c.Query("counselor_id"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	query, err = queryHelper.DateRange(query, "appointment_date", c.Query("date_start"), c.Query("date_end"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var orders []model.Appointment
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &orders)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch orders")
	}

	return response.Paginated(c, orders, page.Meta(total))
}

// GetOrder handles GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order ID")
	}

	var a model.Appointment
	if err := h.db.Preload("Counselor").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Order not found")
		}
		return response.InternalServerError(c, "Failed to fetch order")
	}

	return response.Success(c, a)
}

// CreateOrder handles POST /api/admin/orders. New orders start pending.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	serviceType, ok := model.ParseServiceType(req.ServiceType)
	if !ok {
		return response.BadRequest(c, "Invalid service_type")
	}
	date, err := timefmt.ParseDate(req.AppointmentDate)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	a := model.Appointment{
		StudentID:       req.StudentID,
		CounselorID:     req.CounselorID,
		ClientName:      validation.SanitizeString(req.ClientName),
		ClientAge:       req.ClientAge,
		ContactInfo:     validation.SanitizeString(req.ContactInfo),
		ServiceType:     serviceType,
		AppointmentDate: date,
		TimeSlot:        req.TimeSlot,
		CreatedBy:       middleware.ActorName(c),
	}
	if req.ClientGender != "" {
		g, ok := model.ParseGender(req.ClientGender)
		if !ok {
			return response.BadRequest(c, "client_gender must be male or female")
		}
		a.ClientGender = g
	}
	if req.Keywords != nil {
		raw, _ := json.Marshal(req.Keywords)
		a.Keywords = raw
	}
	if a.CounselorID != nil {
		var n int64
		if err := h.db.Model(&model.Counselor{}).Where("id = ?", *a.CounselorID).Count(&n).Error; err != nil || n == 0 {
			return response.BadRequest(c, "Counselor not found")
		}
	}

	if err := h.appointments.Create(c.UserContext(), &a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Order number already exists")
		}
		h.logger.Error("create order", zap.Error(err))
		return response.InternalServerError(c, "Failed to create order")
	}

	return response.Created(c, a)
}

// UpdateStatus handles PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order ID")
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	next, ok := model.ParseAppointmentStatus(req.Status)
	if !ok {
		return response.BadRequest(c, "Invalid status")
	}

	a, err := h.appointments.Transition(c.UserContext(), id, next, nil)
	if err != nil {
		return StatusError(c, err)
	}

	return response.Success(c, a)
}

// StatusError maps appointment service errors to responses
func StatusError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "Order belongs to another counselor")
	case errors.Is(err, services.ErrInvalidTransition):
		return response.BadRequest(c, err.Error())
	}
	return response.InternalServerError(c, "Failed to update order status")
}
