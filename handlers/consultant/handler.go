package consultant

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/report"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sendCodeCooldown is the minimum gap between two codes to one address
const sendCodeCooldown = time.Minute

// Deps are the collaborators of the consultant endpoints
type Deps struct {
	DB           *gorm.DB
	Tokens       auth.TokenStore
	Verification *services.VerificationService
	BruteForce   *middleware.BruteForceProtection
	Appointments *services.AppointmentService
	Records      *services.RecordService
	Schedules    *services.ScheduleService
	Files        *services.FileService
	Stats        *database.StatsStore
	Reports      *report.Generator
	Tickets      *auth.TicketManager
	Logger       *zap.Logger
}

// Handler serves /api/consultant. Every route is a POST carrying user_id and
// token in its body, except the sign-in family.
type Handler struct {
	Deps
	validator *validation.Validator
}

// NewHandler creates a new consultant handler
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{Deps: deps, validator: validation.NewValidator()}
}

// PageRequest is embedded by list bodies
type PageRequest struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

func (p PageRequest) page() queryHelper.Page {
	return queryHelper.NewPage(p.Page, p.PageSize)
}

// IDRequest is the body of endpoints acting on one row
type IDRequest struct {
	ID uint `json:"id" form:"id" validate:"required"`
}

// counselor returns the authenticated counselor. The guard guarantees it
// on every protected route.
func counselor(c *fiber.Ctx) *model.Counselor {
	co, _ := middleware.CurrentCounselor(c)
	return co
}

// bind parses and validates the body into req. When ok is false the error
// response has been written and err is what the handler should return.
func (h *Handler) bind(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return false, response.ValidationError(c, err)
	}
	return true, nil
}
