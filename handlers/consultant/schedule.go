package consultant

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/excel"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type MonthRequest struct {
	Year  int `json:"year" validate:"required,min=1970"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// WorkDay is one day of a full schedule overwrite
type WorkDay struct {
	Year          int      `json:"year" validate:"required,min=1970"`
	Month         int      `json:"month" validate:"required,min=1,max=12"`
	Date          int      `json:"date" validate:"required,min=1,max=31"`
	WorkSchedules []string `json:"work_schedules"`
}

type WorkUpdateRequest struct {
	Schedules []WorkDay `json:"schedules" validate:"dive"`
}

type StopListRequest struct {
	PageRequest
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type StopRequest struct {
	ID        uint   `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

// StopView is a cancellation in the organization list
type StopView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
	Editable  bool   `json:"editable"`
}

// WorkSchedule handles POST /api/consultant/schedule/work
func (h *Handler) WorkSchedule(c *fiber.Ctx) error {
	var req MonthRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c).ID
	days, err := h.Schedules.MonthView(c.UserContext(), req.Year, req.Month, &me)
	if err != nil {
		h.Logger.Error("consultant month view", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch schedules")
	}
	return response.Success(c, days)
}

func (d WorkDay) plan() (services.DayPlan, error) {
	day := time.Date(d.Year, time.Month(d.Month), d.Date, 0, 0, 0, 0, time.Local)
	if day.Day() != d.Date {
		return services.DayPlan{}, errors.New("invalid date")
	}
	plan := services.DayPlan{Date: datatypes.Date(day)}
	for _, w := range d.WorkSchedules {
		start, end, err := timefmt.SplitWorkTime(w)
		if err != nil {
			return services.DayPlan{}, err
		}
		plan.Slots = append(plan.Slots, services.SlotSpec{Start: start, End: end, Capacity: excel.DefaultSlotCapacity, Available: true})
	}
	return plan, nil
}

// UpdateWorkSchedule handles POST /api/consultant/schedule/work/update. The
// counselor's schedule is replaced as a whole.
func (h *Handler) UpdateWorkSchedule(c *fiber.Ctx) error {
	var req WorkUpdateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	plans := make([]services.DayPlan, 0, len(req.Schedules))
	for _, d := range req.Schedules {
		plan, err := d.plan()
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		plans = append(plans, plan)
	}

	me := counselor(c)
	deleted, created, err := h.Schedules.ReplaceAll(c.UserContext(), me.ID, plans, me.Username)
	if err != nil {
		if errors.Is(err, services.ErrSlotTaken) {
			return response.BadRequest(c, err.Error())
		}
		h.Logger.Error("replace schedule", zap.Uint("counselor_id", me.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to update schedules")
	}
	return response.Success(c, fiber.Map{"deleted_count": deleted, "created_count": created})
}

// UploadSchedule handles POST /api/consultant/schedule/upload. Every row is
// booked for the signed-in counselor.
func (h *Handler) UploadSchedule(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	if !services.IsSpreadsheet(fh.Filename) {
		return response.BadRequest(c, "Only .xlsx files are supported")
	}
	content, err := services.ReadUpload(fh)
	if err != nil {
		return h.uploadError(c, err)
	}

	rows, report, err := excel.ParseScheduleSheet(bytes.NewReader(content))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	me := counselor(c)
	h.Schedules.ImportRows(c.UserContext(), rows, me.ID, nil, me.Username, report)

	if _, err := h.Files.Save(c.UserContext(), fh.Filename, content, services.Upload{
		Module:     model.ModuleScheduleUpload,
		Realm:      model.RealmCounselor,
		UploaderID: me.ID,
	}); err != nil {
		h.Logger.Warn("failed to keep schedule upload", zap.String("file", fh.Filename), zap.Error(err))
	}
	return response.Success(c, report)
}

// ListStops handles POST /api/consultant/schedule/stop. The list covers every
// counselor of the caller's organization.
func (h *Handler) ListStops(c *fiber.Ctx) error {
	var req StopListRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c)
	query := h.DB.Model(&model.Cancellation{}).
		Joins("JOIN counselors ON counselors.id = cancellations.counselor_id").
		Where("counselors.organization = ?", me.Organization)
	query = queryHelper.Contains(query, "counselors.name", req.Name)
	if req.StartTime != "" {
		from, err := timefmt.ParseDateTime(req.StartTime)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		query = query.Where("cancellations.cancel_end > ?", from)
	}
	if req.EndTime != "" {
		to, err := timefmt.ParseDateTime(req.EndTime)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		query = query.Where("cancellations.cancel_start < ?", to)
	}

	page := req.page()
	var rows []model.Cancellation
	total, err := queryHelper.Paginate(query.Preload("Counselor"), page, "cancellations.cancel_start DESC", &rows)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch cancellations")
	}

	views := make([]StopView, 0, len(rows))
	for _, r := range rows {
		views = append(views, StopView{
			ID:        r.ID,
			Name:      r.Counselor.Name,
			StartTime: timefmt.FormatMinute(r.CancelStart),
			EndTime:   timefmt.FormatMinute(r.CancelEnd),
			Reason:    r.Reason,
			Editable:  r.CounselorID == me.ID,
		})
	}
	return response.Paginated(c, views, page.Meta(total))
}

// CreateStop handles POST /api/consultant/schedule/stop/create
func (h *Handler) CreateStop(c *fiber.Ctx) error {
	var req StopRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	start, end, err := timefmt.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	me := counselor(c)
	row := &model.Cancellation{
		CounselorID: me.ID,
		CancelStart: start,
		CancelEnd:   end,
		Reason:      validation.SanitizeString(req.Reason),
		CreatedBy:   me.Username,
	}
	if err := h.Schedules.CreateCancellation(c.UserContext(), row); err != nil {
		return h.stopError(c, err)
	}
	return response.Created(c, services.Ranges([]model.Cancellation{*row})[0])
}

// UpdateStop handles POST /api/consultant/schedule/stop/update
func (h *Handler) UpdateStop(c *fiber.Ctx) error {
	var req StopRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	if req.ID == 0 {
		return response.BadRequest(c, "id is required")
	}

	var patch services.CancellationPatch
	if req.StartTime != "" {
		t, err := timefmt.ParseDateTime(req.StartTime)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		patch.Start = &t
	}
	if req.EndTime != "" {
		t, err := timefmt.ParseDateTime(req.EndTime)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		patch.End = &t
	}
	if req.Reason != "" {
		reason := validation.SanitizeString(req.Reason)
		patch.Reason = &reason
	}

	row, err := h.Schedules.UpdateCancellation(c.UserContext(), req.ID, counselor(c).ID, patch)
	if err != nil {
		return h.stopError(c, err)
	}
	return response.Success(c, services.Ranges([]model.Cancellation{*row})[0])
}

// DeleteStop handles POST /api/consultant/schedule/stop/delete
func (h *Handler) DeleteStop(c *fiber.Ctx) error {
	var req IDRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c).ID
	if err := h.Schedules.DeleteCancellation(c.UserContext(), req.ID, &me); err != nil {
		return h.stopError(c, err)
	}
	return response.SuccessWithMessage(c, "Cancellation deleted successfully", nil)
}

// StopConflict handles POST /api/consultant/schedule/stop/conflict
func (h *Handler) StopConflict(c *fiber.Ctx) error {
	var req StopRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	start, end, err := timefmt.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	rows, err := h.Schedules.Conflicts(c.UserContext(), counselor(c).ID, start, end)
	if err != nil {
		return h.stopError(c, err)
	}
	if req.ID != 0 {
		kept := rows[:0]
		for _, r := range rows {
			if r.ID != req.ID {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return response.Success(c, fiber.Map{"has_conflict": len(rows) > 0, "conflicts": services.Ranges(rows)})
}

func (h *Handler) stopError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Cancellation not found")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, timefmt.ErrInvalidRange):
		return response.BadRequest(c, err.Error())
	}
	h.Logger.Error("cancellation failed", zap.Error(err))
	return response.InternalServerError(c, "Failed to save cancellation")
}
