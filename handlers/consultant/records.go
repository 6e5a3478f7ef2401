package consultant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	"gorm.io/gorm"
)

type RecordListRequest struct {
	PageRequest
	Name            string `json:"std_name"`
	Grade           string `json:"std_grade"`
	Class           string `json:"std_class"`
	School          string `json:"std_school"`
	InterviewCount  *int   `json:"interview_count"`
	InterviewStatus string `json:"interview_status"`
}

type RecordCreateRequest struct {
	Name             string `json:"std_name" validate:"required,max=50"`
	Grade            string `json:"std_grade" validate:"max=50"`
	Class            string `json:"std_class" validate:"max=50"`
	School           string `json:"std_school" validate:"max=100"`
	InterviewCount   int    `json:"interview_count" validate:"min=0"`
	InterviewType    string `json:"interview_type" validate:"max=50"`
	InterviewStatus  string `json:"interview_status"`
	DoctorEvaluation string `json:"doctor_evaluation"`
	FollowUpPlan     string `json:"follow_up_plan"`
}

// RecordView is a record row of the consultant list
type RecordView struct {
	ID              uint   `json:"id"`
	RecordNo        string `json:"record_no"`
	Name            string `json:"std_name"`
	Grade           string `json:"std_grade"`
	Class           string `json:"std_class"`
	School          string `json:"std_school"`
	InterviewCount  int    `json:"interview_count"`
	InterviewType   string `json:"interview_type"`
	InterviewStatus string `json:"interview_status"`
	CreatedAt       string `json:"created_at"`
}

var recordStatusLabels = map[model.RecordStatus]string{
	model.RecordActive:    "进行中",
	model.RecordCompleted: "已完成",
	model.RecordClosed:    "已关闭",
}

func newRecordView(r model.ConsultationRecord) RecordView {
	return RecordView{
		ID:              r.ID,
		RecordNo:        r.RecordNo,
		Name:            r.ClientName,
		Grade:           r.Grade,
		Class:           r.ClassName,
		School:          r.School,
		InterviewCount:  r.InterviewCount,
		InterviewType:   r.InterviewType,
		InterviewStatus: recordStatusLabels[r.CurrentStatus],
		CreatedAt:       timefmt.FormatMinute(r.CreatedAt),
	}
}

// EmergencyContact groups the emergency fields of a profile
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// RecordProfile is the client summary shown above a record's sessions
type RecordProfile struct {
	Name             string                      `json:"name"`
	ID               uint                        `json:"id"`
	Gender           string                      `json:"gender"`
	Age              *int                        `json:"age"`
	Contact          string                      `json:"contact"`
	EmergencyContact EmergencyContact            `json:"emergencyContact"`
	Referral         string                      `json:"referral"`
	Complaint        string                      `json:"complaint"`
	Goal             string                      `json:"goal"`
	Sessions         []model.ConsultationSession `json:"sessions"`
}

// ListRecords handles POST /api/consultant/records/list
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	var req RecordListRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	query := h.DB.Model(&model.ConsultationRecord{}).Where("counselor_id = ?", counselor(c).ID)
	query = queryHelper.Contains(query, "client_name", req.Name)
	query = queryHelper.Contains(query, "grade", req.Grade)
	query = queryHelper.Contains(query, "class_name", req.Class)
	query = queryHelper.Contains(query, "school", req.School)
	if req.InterviewCount != nil {
		query = query.Where("interview_count = ?", *req.InterviewCount)
	}
	if req.InterviewStatus != "" {
		status, ok := model.ParseRecordStatus(req.InterviewStatus)
		if !ok {
			return response.BadRequest(c, "Invalid interview_status")
		}
		query = query.Where("current_status = ?", status)
	}

	page := req.page()
	var records []model.ConsultationRecord
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &records)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch records")
	}

	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, newRecordView(r))
	}
	return response.Paginated(c, views, page.Meta(total))
}

// CreateRecord handles POST /api/consultant/records/create. A first session
// is opened when an evaluation or follow-up plan is given.
func (h *Handler) CreateRecord(c *fiber.Ctx) error {
	var req RecordCreateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	status := model.RecordCompleted
	if strings.TrimSpace(req.InterviewStatus) == "" || strings.TrimSpace(req.InterviewStatus) == "进行中" {
		status = model.RecordActive
	} else if parsed, ok := model.ParseRecordStatus(req.InterviewStatus); ok {
		status = parsed
	}

	me := counselor(c)
	record := &model.ConsultationRecord{
		ClientName:     validation.SanitizeString(req.Name),
		ClientType:     model.ClientStudent,
		Grade:          validation.SanitizeString(req.Grade),
		ClassName:      validation.SanitizeString(req.Class),
		School:         validation.SanitizeString(req.School),
		InterviewCount: req.InterviewCount,
		InterviewType:  validation.SanitizeString(req.InterviewType),
		CurrentStatus:  status,
	}

	var first *model.ConsultationSession
	if req.DoctorEvaluation != "" || req.FollowUpPlan != "" {
		first = &model.ConsultationSession{
			InterviewDate:    datatypes.Date(time.Now()),
			VisitStatus:      model.VisitCompleted,
			DoctorEvaluation: validation.SanitizeString(req.DoctorEvaluation),
			FollowUpPlan:     validation.SanitizeString(req.FollowUpPlan),
			ConsultantName:   me.Name,
			CrisisStatus:     datatypes.JSON("[]"),
			AttachImages:     datatypes.JSON("[]"),
		}
	}

	if err := h.Records.Create(c.UserContext(), me, record, first); err != nil {
		h.Logger.Error("failed to create record", zap.Uint("counselor_id", me.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to create record")
	}
	return response.Created(c, newRecordView(*record))
}

// DeleteRecord handles POST /api/consultant/records/delete
func (h *Handler) DeleteRecord(c *fiber.Ctx) error {
	var req IDRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	record, err := h.Records.Owned(c.UserContext(), req.ID, counselor(c).ID)
	if err != nil {
		return h.recordError(c, err)
	}
	if err := h.DB.Delete(record).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete record")
	}
	return response.SuccessWithMessage(c, "Record deleted successfully", nil)
}

// RecordProfile handles POST /api/consultant/records/profile
func (h *Handler) RecordProfile(c *fiber.Ctx) error {
	var req IDRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	record, err := h.Records.Owned(c.UserContext(), req.ID, counselor(c).ID)
	if err != nil {
		return h.recordError(c, err)
	}
	sessions, err := h.Records.Sessions(c.UserContext(), record.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	return response.Success(c, RecordProfile{
		Name:    record.ClientName,
		ID:      record.ID,
		Gender:  string(record.Gender),
		Age:     record.Age,
		Contact: record.Contact,
		EmergencyContact: EmergencyContact{
			Name:  record.EmergencyContact,
			Phone: record.EmergencyPhone,
		},
		Referral:  record.ReferralSource,
		Complaint: record.MainComplaint,
		Goal:      record.ConsultationGoal,
		Sessions:  sessions,
	})
}

// RecordReport handles POST /api/consultant/records/report and returns the
// record with its sessions as a PDF attachment
func (h *Handler) RecordReport(c *fiber.Ctx) error {
	var req IDRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	me := counselor(c)
	record, err := h.Records.Owned(c.UserContext(), req.ID, me.ID)
	if err != nil {
		return h.recordError(c, err)
	}
	if record.Sessions, err = h.Records.Sessions(c.UserContext(), record.ID); err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	var buf bytes.Buffer
	if err := h.Reports.RecordPDF(&buf, record, me.Name, time.Now()); err != nil {
		h.Logger.Error("failed to render record report", zap.Uint("record_id", record.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to generate report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(fmt.Sprintf("record_%s.pdf", record.RecordNo))
	return c.Send(buf.Bytes())
}

// UploadRecords handles POST /api/consultant/records/upload (multipart "file")
func (h *Handler) UploadRecords(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	if !services.IsSpreadsheet(fh.Filename) {
		return response.BadRequest(c, "Only .xlsx files are supported")
	}
	content, err := services.ReadUpload(fh)
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to read upload")
	}

	items, report, err := excel.ParseRecordSheet(bytes.NewReader(content))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	me := counselor(c)
	h.Records.Import(c.UserContext(), me, items, report)

	if _, err := h.Files.Save(c.UserContext(), fh.Filename, content, services.Upload{
		Module:     model.ModuleRecordUpload,
		Realm:      model.RealmCounselor,
		UploaderID: me.ID,
	}); err != nil {
		h.Logger.Warn("failed to keep record upload", zap.String("file", fh.Filename), zap.Error(err))
	}
	return response.Success(c, report)
}

// SessionRequest is the multipart or JSON body of sessions create/update.
// signatureImage and attachImages may be uploaded files or existing URLs.
type SessionRequest struct {
	ID                     uint            `json:"id" form:"id"`
	RecordID               uint            `json:"record_id" form:"record_id"`
	Date                   string          `json:"date" form:"date"`
	Time                   string          `json:"time" form:"time"`
	Duration               *int            `json:"duration" form:"duration"`
	VisitStatus            string          `json:"visitStatus" form:"visitStatus"`
	Description            *string         `json:"description" form:"description"`
	DoctorEvaluation       *string         `json:"doctorEvaluation" form:"doctorEvaluation"`
	FollowUpPlan           *string         `json:"followUpPlan" form:"followUpPlan"`
	NextVisitPlan          *string         `json:"nextVisitPlan" form:"nextVisitPlan"`
	CrisisStatus           json.RawMessage `json:"crisisStatus" form:"-"`
	ConsultantName         *string         `json:"consultantName" form:"consultantName"`
	IsThirdPartyEvaluation *bool           `json:"isThirdPartyEvaluation" form:"isThirdPartyEvaluation"`
	SignatureImage         string          `json:"signatureImage" form:"-"`
	AttachImages           []string        `json:"attachImages" form:"-"`
}

// crisisList accepts a JSON list or a comma separated string
func crisisList(raw []byte) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("crisisStatus must be a list or a comma separated string")
	}
	return excel.SplitList(s), nil
}

func (r *SessionRequest) apply(s *model.ConsultationSession) error {
	if r.Date != "" {
		d, err := timefmt.ParseDate(r.Date)
		if err != nil {
			return err
		}
		s.InterviewDate = d
	}
	if r.Time != "" {
		s.InterviewTime = validation.SanitizeString(r.Time)
	}
	if r.Duration != nil {
		if *r.Duration < 0 {
			return errors.New("duration must not be negative")
		}
		s.Duration = r.Duration
	}
	if r.VisitStatus != "" {
		status, ok := model.ParseVisitStatus(r.VisitStatus, s.VisitStatus)
		if !ok {
			return fmt.Errorf("unknown visitStatus %q", r.VisitStatus)
		}
		s.VisitStatus = status
	}
	if r.Description != nil {
		s.ObjectiveDescription = validation.SanitizeString(*r.Description)
	}
	if r.DoctorEvaluation != nil {
		s.DoctorEvaluation = validation.SanitizeString(*r.DoctorEvaluation)
	}
	if r.FollowUpPlan != nil {
		s.FollowUpPlan = validation.SanitizeString(*r.FollowUpPlan)
	}
	if r.NextVisitPlan != nil {
		s.NextVisitPlan = validation.SanitizeString(*r.NextVisitPlan)
	}
	if r.ConsultantName != nil {
		s.ConsultantName = validation.SanitizeString(*r.ConsultantName)
	}
	if r.IsThirdPartyEvaluation != nil {
		s.IsThirdPartyEvaluation = *r.IsThirdPartyEvaluation
	}
	crisis, err := crisisList(r.CrisisStatus)
	if err != nil {
		return err
	}
	if crisis != nil {
		encoded, _ := json.Marshal(crisis)
		s.CrisisStatus = datatypes.JSON(encoded)
	}
	return nil
}

// bindSession reads a session body. Multipart bodies carry images as files,
// crisisStatus as a comma string and attachImages as repeated fields.
func (h *Handler) bindSession(c *fiber.Ctx, req *SessionRequest) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return true, nil
	}
	if v := form.Value["crisisStatus"]; len(v) > 0 {
		encoded, _ := json.Marshal(strings.Join(v, ","))
		req.CrisisStatus = encoded
	}
	if v := form.Value["signatureImage"]; len(v) > 0 {
		req.SignatureImage = v[0]
	}
	req.AttachImages = append(req.AttachImages, form.Value["attachImages"]...)
	return true, nil
}

// sessionImages stores uploaded signature and attachment files and merges
// their URLs with any URLs sent as text
func (h *Handler) sessionImages(c *fiber.Ctx, req *SessionRequest, s *model.ConsultationSession) error {
	me := counselor(c)
	save := func(field string) ([]string, error) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil
		}
		var urls []string
		for _, fh := range form.File[field] {
			if !services.IsImage(fh.Filename) {
				return nil, services.ErrUnsupportedFile
			}
			content, err := services.ReadUpload(fh)
			if err != nil {
				return nil, err
			}
			file, err := h.Files.Save(c.UserContext(), fh.Filename, content, services.Upload{
				Module:       model.ModuleSessionAttachment,
				AssociatedID: &s.RecordID,
				Realm:        model.RealmCounselor,
				UploaderID:   me.ID,
			})
			if err != nil {
				return nil, err
			}
			urls = append(urls, h.Files.Store().URL(file.StorageKey))
		}
		return urls, nil
	}

	signature, err := save("signatureImage")
	if err != nil {
		return err
	}
	switch {
	case len(signature) > 0:
		s.SignatureImage = signature[0]
	case req.SignatureImage != "":
		s.SignatureImage = req.SignatureImage
	}

	attached, err := save("attachImages")
	if err != nil {
		return err
	}
	if urls := append(req.AttachImages, attached...); len(urls) > 0 {
		encoded, _ := json.Marshal(urls)
		s.AttachImages = datatypes.JSON(encoded)
	}
	return nil
}

// CreateSession handles POST /api/consultant/records/sessions/create
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req SessionRequest
	if ok, err := h.bindSession(c, &req); !ok {
		return err
	}
	if req.RecordID == 0 {
		return response.BadRequest(c, "record_id is required")
	}
	if req.Date == "" {
		return response.BadRequest(c, "date is required")
	}

	me := counselor(c)
	record, err := h.Records.Owned(c.UserContext(), req.RecordID, me.ID)
	if err != nil {
		return h.recordError(c, err)
	}

	session := model.ConsultationSession{
		RecordID:       record.ID,
		VisitStatus:    model.VisitScheduled,
		ConsultantName: me.Name,
	}
	if err := req.apply(&session); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.sessionImages(c, &req, &session); err != nil {
		return h.uploadError(c, err)
	}

	if err := h.Records.AddSession(c.UserContext(), record.ID, &session); err != nil {
		h.Logger.Error("failed to add session", zap.Uint("record_id", record.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to create session")
	}
	h.DB.Model(record).UpdateColumn("interview_count", gorm.Expr("interview_count + 1"))
	return response.Created(c, session)
}

// UpdateSession handles POST /api/consultant/records/sessions/update
func (h *Handler) UpdateSession(c *fiber.Ctx) error {
	var req SessionRequest
	if ok, err := h.bindSession(c, &req); !ok {
		return err
	}
	if req.ID == 0 {
		return response.BadRequest(c, "id is required")
	}

	session, err := h.Records.OwnedSession(c.UserContext(), req.ID, counselor(c).ID)
	if err != nil {
		return h.recordError(c, err)
	}
	if err := req.apply(session); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.sessionImages(c, &req, session); err != nil {
		return h.uploadError(c, err)
	}

	if err := h.DB.Save(session).Error; err != nil {
		return response.InternalServerError(c, "Failed to update session")
	}
	return response.Success(c, session)
}

func (h *Handler) recordError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return response.NotFound(c, "Record not found")
	}
	h.Logger.Error("record lookup failed", zap.Error(err))
	return response.InternalServerError(c, "Failed to fetch record")
}

func (h *Handler) uploadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrUnsupportedFile) || errors.Is(err, services.ErrFileTooLarge) {
		return response.BadRequest(c, err.Error())
	}
	h.Logger.Error("failed to store upload", zap.Error(err))
	return response.InternalServerError(c, "Failed to store upload")
}
