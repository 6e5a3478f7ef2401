package schedule

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"go.uber.org/zap"
)

type CancellationRequest struct {
	CounselorID uint   `json:"counselor_id"`
	Name        string `json:"name"`
	StartTime   string `json:"start_time" validate:"required,timestamp"`
	EndTime     string `json:"end_time" validate:"required,timestamp"`
	Reason      string `json:"reason"`
	AbsenceType string `json:"absence_type" validate:"omitempty,oneof=sick_leave personal_leave other"`
}

type BulkCancellationRequest struct {
	Data []struct {
		Name      string `json:"name" validate:"required"`
		StartTime string `json:"start_time" validate:"required,timestamp"`
		EndTime   string `json:"end_time" validate:"required,timestamp"`
	} `json:"data" validate:"required,dive"`
}

type ConflictRequest struct {
	CounselorID uint   `json:"counselor_id"`
	Name        string `json:"name"`
	StartTime   string `json:"start_time" validate:"required,timestamp"`
	EndTime     string `json:"end_time" validate:"required,timestamp"`
}

func (h *ScheduleHandler) counselorID(c *fiber.Ctx, id uint, name string) (uint, error) {
	if id != 0 {
		return id, nil
	}
	if name == "" {
		return 0, errors.New("counselor_id or name is required")
	}
	found, err := h.schedules.CounselorByName(c.UserContext(), name)
	if err != nil {
		return 0, errors.New("counselor not found")
	}
	return found, nil
}

// ListCancellations handles GET /api/admin/cancellations?year=
func (h *ScheduleHandler) ListCancellations(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Query("year", strconv.Itoa(time.Now().Year())))
	if err != nil || year < 1970 {
		return response.BadRequest(c, "Invalid year")
	}

	groups, err := h.schedules.CancellationsByYear(c.UserContext(), year)
	if err != nil {
		h.logger.Error("list cancellations", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch cancellations")
	}

	return response.Success(c, groups)
}

// CreateCancellation handles POST /api/admin/cancellations
func (h *ScheduleHandler) CreateCancellation(c *fiber.Ctx) error {
	var req CancellationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	counselorID, err := h.counselorID(c, req.CounselorID, req.Name)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	start, end, err := timefmt.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	cancellation := model.Cancellation{
		CounselorID: counselorID,
		CancelStart: start,
		CancelEnd:   end,
		Reason:      req.Reason,
		AbsenceType: model.AbsenceType(req.AbsenceType),
		CreatedBy:   middleware.ActorName(c),
	}
	if err := h.schedules.CreateCancellation(c.UserContext(), &cancellation); err != nil {
		return response.InternalServerError(c, "Failed to create cancellation")
	}

	return response.Created(c, cancellation)
}

// UpsertCancellations handles PUT /api/admin/cancellations. Entries whose
// counselor name is unknown are skipped and reported back.
func (h *ScheduleHandler) UpsertCancellations(c *fiber.Ctx) error {
	var req BulkCancellationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	items := make([]services.NamedCancellation, 0, len(req.Data))
	for _, d := range req.Data {
		start, end, err := timefmt.ParseRange(d.StartTime, d.EndTime)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		items = append(items, services.NamedCancellation{Name: d.Name, Start: start, End: end})
	}

	created, skipped, err := h.schedules.UpsertByName(c.UserContext(), items, middleware.ActorName(c))
	if err != nil {
		h.logger.Error("upsert cancellations", zap.Error(err))
		return response.InternalServerError(c, "Failed to save cancellations")
	}
	if skipped == nil {
		skipped = []string{}
	}

	return response.Success(c, fiber.Map{
		"created": created,
		"skipped": skipped,
	})
}

// DeleteCancellation handles DELETE /api/admin/cancellations/:id
func (h *ScheduleHandler) DeleteCancellation(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid cancellation ID")
	}

	if err := h.schedules.DeleteCancellation(c.UserContext(), id, nil); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Cancellation not found")
		}
		return response.InternalServerError(c, "Failed to delete cancellation")
	}

	return response.SuccessWithMessage(c, "Cancellation deleted successfully", nil)
}

// Conflicts handles POST /api/admin/cancellations/conflicts
func (h *ScheduleHandler) Conflicts(c *fiber.Ctx) error {
	var req ConflictRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	counselorID, err := h.counselorID(c, req.CounselorID, req.Name)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	start, end, err := timefmt.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	rows, err := h.schedules.Conflicts(c.UserContext(), counselorID, start, end)
	if err != nil {
		return response.InternalServerError(c, "Failed to check conflicts")
	}

	return response.Success(c, fiber.Map{
		"has_conflict": len(rows) > 0,
		"conflicts":    services.Ranges(rows),
	})
}
