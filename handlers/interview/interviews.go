package interview

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/excel"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InterviewHandler handles interview assessment requests
type InterviewHandler struct {
	db        *gorm.DB
	files     *services.FileService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(db *gorm.DB, files *services.FileService, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		db:        db,
		files:     files,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// InterviewRequest is the body of POST and PUT. On PUT absent fields are kept.
type InterviewRequest struct {
	StudentID        *uint   `json:"student_id"`
	StudentName      *string `json:"student_name" validate:"omitempty,min=1,max=50"`
	Organization     *string `json:"organization" validate:"omitempty,max=100"`
	Grade            *string `json:"grade" validate:"omitempty,max=50"`
	ClassName        *string `json:"class_name" validate:"omitempty,max=50"`
	InterviewCount   *int    `json:"interview_count" validate:"omitempty,gte=1"`
	Status           *string `json:"status"`
	InterviewType    *string `json:"interview_type" validate:"omitempty,max=50"`
	DoctorAssessment *string `json:"doctor_assessment"`
	FollowUpPlan     *string `json:"follow_up_plan"`
}

func (r *InterviewRequest) apply(m *model.InterviewAssessment) error {
	if r.Status != nil {
		s := model.InterviewStatus(*r.Status)
		if !s.IsValid() {
			return errors.New("status must be one of pending, in_progress, completed")
		}
		m.Status = s
	}
	if r.StudentID != nil {
		m.StudentID = r.StudentID
	}
	if r.InterviewCount != nil {
		m.InterviewCount = *r.InterviewCount
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeString(*src)
		}
	}
	set(&m.StudentName, r.StudentName)
	set(&m.Organization, r.Organization)
	set(&m.Grade, r.Grade)
	set(&m.ClassName, r.ClassName)
	set(&m.InterviewType, r.InterviewType)
	set(&m.DoctorAssessment, r.DoctorAssessment)
	set(&m.FollowUpPlan, r.FollowUpPlan)
	return nil
}

func (h *InterviewHandler) filtered(c *fiber.Ctx) *gorm.DB {
	query := h.db.Model(&model.InterviewAssessment{})
	query = queryHelper.Contains(query, "student_name", c.Query("std_name", c.Query("student_name")))
	query = queryHelper.Contains(query, "organization", c.Query("std_school", c.Query("organization")))
	query = queryHelper.Equals(query, "grade", c.Query("std_grade", c.Query("grade")))
	query = queryHelper.Equals(query, "class_name", c.Query("std_class", c.Query("class_name")))
	query = queryHelper.Equals(query, "status", c.Query("interview_status", c.Query("status")))
	query = queryHelper.Equals(query, "interview_type", c.Query("interview_type"))
	return query
}

// ListInterviews handles GET /api/admin/interviews
func (h *InterviewHandler) ListInterviews(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	var items []model.InterviewAssessment
	total, err := queryHelper.Paginate(h.filtered(c), page, "created_at DESC", &items)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch interviews")
	}

	return response.Paginated(c, items, page.Meta(total))
}

// GetInterview handles GET /api/admin/interviews/:id
func (h *InterviewHandler) GetInterview(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid interview ID")
	}

	var item model.InterviewAssessment
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Interview not found")
		}
		return response.InternalServerError(c, "Failed to fetch interview")
	}

	return response.Success(c, item)
}

// CreateInterview handles POST /api/admin/interviews
func (h *InterviewHandler) CreateInterview(c *fiber.Ctx) error {
	var req InterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.StudentName == nil || *req.StudentName == "" {
		return response.BadRequest(c, "student_name is required")
	}

	item := model.InterviewAssessment{
		InterviewCount: 1,
		Status:         model.InterviewPending,
		CreatedBy:      middleware.ActorName(c),
	}
	if err := req.apply(&item); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to create interview")
	}

	return response.Created(c, item)
}

// UpdateInterview handles PUT /api/admin/interviews/:id
func (h *InterviewHandler) UpdateInterview(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid interview ID")
	}

	var req InterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var item model.InterviewAssessment
	if err := h.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Interview not found")
		}
		return response.InternalServerError(c, "Failed to fetch interview")
	}

	if err := req.apply(&item); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.db.Save(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to update interview")
	}

	return response.Success(c, item)
}

// DeleteInterview handles DELETE /api/admin/interviews/:id
func (h *InterviewHandler) DeleteInterview(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid interview ID")
	}

	result := h.db.Delete(&model.InterviewAssessment{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete interview")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Interview not found")
	}

	return response.SuccessWithMessage(c, "Interview deleted successfully", nil)
}

// UploadInterviews handles POST /api/admin/interviews/upload
func (h *InterviewHandler) UploadInterviews(c *fiber.Ctx) error {
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

	items, report, err := excel.ParseInterviewSheet(bytes.NewReader(content))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	actor := middleware.ActorName(c)
	for i := range items {
		items[i].CreatedBy = actor
	}
	if len(items) > 0 {
		if err := h.db.CreateInBatches(&items, 100).Error; err != nil {
			h.logger.Error("interview import failed", zap.Error(err))
			return response.InternalServerError(c, "Failed to import interviews")
		}
	}
	report.SuccessCount = len(items)

	if _, err := h.files.Save(c.UserContext(), fh.Filename, content, services.Upload{
		Module:     model.ModuleInterviewUpload,
		Realm:      model.RealmAdmin,
		UploaderID: middleware.UserID(c),
	}); err != nil {
		// the rows are in; losing the source file only costs traceability
		h.logger.Warn("failed to keep uploaded sheet", zap.Error(err))
	}

	return response.SuccessWithMessage(c, fmt.Sprintf("Imported %d interviews", report.SuccessCount), report)
}

// ExportInterviews handles GET /api/admin/interviews/export
func (h *InterviewHandler) ExportInterviews(c *fiber.Ctx) error {
	var items []model.InterviewAssessment
	if err := h.filtered(c).Order("created_at DESC").Find(&items).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch interviews")
	}

	var buf bytes.Buffer
	if err := excel.ExportInterviews(&buf, items); err != nil {
		h.logger.Error("interview export failed", zap.Error(err))
		return response.InternalServerError(c, "Failed to export interviews")
	}

	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Attachment(fmt.Sprintf("interviews_%s.xlsx", time.Now().Format("20060102_150405")))
	return c.Send(buf.Bytes())
}

// DownloadTemplate handles GET /api/admin/interviews/template
func (h *InterviewHandler) DownloadTemplate(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := excel.WriteTemplate(&buf, excel.TemplateInterview); err != nil {
		return response.InternalServerError(c, "Failed to build template")
	}
	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Attachment("interview_template.xlsx")
	return c.Send(buf.Bytes())
}
