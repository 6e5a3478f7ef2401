package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/excel"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ScheduleHandler is the admin view of counselor schedules and cancellations
type ScheduleHandler struct {
	schedules *services.ScheduleService
	files     *services.FileService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedules *services.ScheduleService, files *services.FileService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		files:     files,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// SlotEntry names a counselor and the windows to open. work_time is either
// "HH:MM-HH:MM" or a start clock paired with stop_work_time.
type SlotEntry struct {
	Name            string   `json:"name"`
	CounselorID     uint     `json:"counselor_id"`
	WorkTime        string   `json:"work_time"`
	StopWorkTime    string   `json:"stop_work_time"`
	WorkTimes       []string `json:"work_times"`
	MaxAppointments int      `json:"max_appointments" validate:"min=0,max=100"`
}

// SlotEntries decodes from a list of entries or from a single entry object
type SlotEntries []SlotEntry

func (s *SlotEntries) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one SlotEntry
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*s = SlotEntries{one}
		return nil
	}
	var list []SlotEntry
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

// CreateScheduleRequest adds windows for one calendar day
type CreateScheduleRequest struct {
	Year      int         `json:"year" validate:"required,min=1970"`
	Month     int         `json:"month" validate:"required,min=1,max=12"`
	Date      int         `json:"date" validate:"required,min=1,max=31"`
	Schedules SlotEntries `json:"schedules" validate:"required,min=1,dive"`
}

func (e SlotEntry) slots() ([]services.SlotSpec, error) {
	var windows []string
	switch {
	case len(e.WorkTimes) > 0:
		windows = e.WorkTimes
	case e.StopWorkTime != "":
		windows = []string{e.WorkTime + "-" + e.StopWorkTime}
	case e.WorkTime != "":
		windows = strings.Split(e.WorkTime, ",")
	default:
		return nil, errors.New("work_time is required")
	}

	specs := make([]services.SlotSpec, 0, len(windows))
	for _, w := range windows {
		start, end, err := timefmt.SplitWorkTime(strings.TrimSpace(w))
		if err != nil {
			return nil, err
		}
		specs = append(specs, services.SlotSpec{Start: start, End: end, Capacity: e.MaxAppointments, Available: true})
	}
	return specs, nil
}

// MonthView handles GET /api/admin/schedules?year=&month=
func (h *ScheduleHandler) MonthView(c *fiber.Ctx) error {
	now := time.Now()
	year, err := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	if err != nil {
		return response.BadRequest(c, "Invalid year")
	}
	month, err := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		return response.BadRequest(c, "Invalid month")
	}
	if _, _, err := timefmt.MonthBounds(year, month); err != nil {
		return response.BadRequest(c, err.Error())
	}
	var counselorID *uint
	if v := c.Query("counselor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid counselor_id")
		}
		cid := uint(id)
		counselorID = &cid
	}

	days, err := h.schedules.MonthView(c.UserContext(), year, month, counselorID)
	if err != nil {
		h.logger.Error("schedule month view", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch schedules")
	}

	return response.Success(c, days)
}

// CreateSchedules handles POST /api/admin/schedules
func (h *ScheduleHandler) CreateSchedules(c *fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	day := time.Date(req.Year, time.Month(req.Month), req.Date, 0, 0, 0, 0, time.Local)
	if day.Day() != req.Date {
		return response.BadRequest(c, "Invalid date")
	}

	ctx := c.UserContext()
	plans := make([]services.CounselorPlan, 0, len(req.Schedules))
	for _, entry := range req.Schedules {
		counselorID := entry.CounselorID
		if counselorID == 0 {
			id, err := h.schedules.CounselorByName(ctx, strings.TrimSpace(entry.Name))
			if err != nil {
				return response.BadRequest(c, fmt.Sprintf("Counselor %q not found", entry.Name))
			}
			counselorID = id
		}
		specs, err := entry.slots()
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		plans = append(plans, services.CounselorPlan{
			CounselorID: counselorID,
			Plan:        services.DayPlan{Date: datatypes.Date(day), Slots: specs},
		})
	}

	// one transaction for the whole request; a clash saves nothing
	created, err := h.schedules.AddPlans(ctx, plans, middleware.ActorName(c))
	if err != nil {
		if errors.Is(err, services.ErrSlotTaken) {
			return response.BadRequest(c, err.Error())
		}
		h.logger.Error("create schedules", zap.Error(err))
		return response.InternalServerError(c, "Failed to create schedules")
	}

	return response.Created(c, created)
}

// DeleteSchedule handles DELETE /api/admin/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid schedule ID")
	}

	if err := h.schedules.DeleteSlot(c.UserContext(), id, nil); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Schedule not found")
		}
		return response.InternalServerError(c, "Failed to delete schedule")
	}

	return response.SuccessWithMessage(c, "Schedule deleted successfully", nil)
}

// UploadSchedules handles POST /api/admin/schedules/upload. Rows name their
// counselor in the counselor column.
func (h *ScheduleHandler) UploadSchedules(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	if !services.IsSpreadsheet(fh.Filename) {
		return response.BadRequest(c, "Only .xlsx files are supported")
	}
	content, err := services.ReadUpload(fh)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	rows, report, err := excel.ParseScheduleSheet(bytes.NewReader(content))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	ctx := c.UserContext()
	h.schedules.ImportRows(ctx, rows, 0, h.schedules.CounselorByName, middleware.ActorName(c), report)

	if _, err := h.files.Save(ctx, fh.Filename, content, services.Upload{
		Module:     model.ModuleScheduleUpload,
		Realm:      model.RealmAdmin,
		UploaderID: middleware.UserID(c),
	}); err != nil {
		h.logger.Warn("failed to keep uploaded sheet", zap.Error(err))
	}

	return response.SuccessWithMessage(c, fmt.Sprintf("Imported %d schedule rows", report.SuccessCount), report)
}
