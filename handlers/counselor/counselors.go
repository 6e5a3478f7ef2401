package counselor

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/auth"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CounselorHandler is the admin view of counselor accounts
type CounselorHandler struct {
	db        *gorm.DB
	tokens    auth.TokenStore
	validator *validation.Validator
	logger    *zap.Logger
}

// NewCounselorHandler creates a new counselor handler. tokens is the
// counselor token store, used to sign a counselor out when disabled.
func NewCounselorHandler(db *gorm.DB, tokens auth.TokenStore, logger *zap.Logger) *CounselorHandler {
	return &CounselorHandler{
		db:        db,
		tokens:    tokens,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// CounselorRequest is the body of POST and PUT. skills is stored as the
// counselor's expertise tags.
type CounselorRequest struct {
	Name         *string   `json:"name" validate:"omitempty,min=1,max=50"`
	Gender       *string   `json:"gender"`
	Phone        *string   `json:"phone" validate:"omitempty,max=20"`
	Email        *string   `json:"email" validate:"omitempty,email,max=254"`
	Password     *string   `json:"password" validate:"omitempty,min=6,max=72"`
	Organization *string   `json:"organization" validate:"omitempty,max=100"`
	Credentials  *string   `json:"credentials"`
	Skills       *[]string `json:"skills"`
	ServeType    *[]string `json:"serve_type"`
	Status       *string   `json:"status" validate:"omitempty,oneof=enabled disabled"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=enabled disabled"`
}

func jsonList(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	return datatypes.JSON(raw), err
}

func (r *CounselorRequest) apply(co *model.Counselor) error {
	if r.Gender != nil {
		g, ok := model.ParseGender(*r.Gender)
		if !ok {
			return errors.New("gender must be male or female")
		}
		co.Gender = g
	}
	if r.Password != nil {
		hash, err := auth.HashPassword(*r.Password)
		if err != nil {
			return err
		}
		co.PasswordHash = hash
	}
	if r.Skills != nil {
		tags, err := jsonList(*r.Skills)
		if err != nil {
			return err
		}
		co.ExpertiseTags = tags
	}
	if r.ServeType != nil {
		serve, err := jsonList(*r.ServeType)
		if err != nil {
			return err
		}
		co.ServeType = serve
	}
	if r.Status != nil {
		co.Status = model.CounselorStatus(*r.Status)
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeString(*src)
		}
	}
	set(&co.Name, r.Name)
	set(&co.Phone, r.Phone)
	set(&co.Email, r.Email)
	set(&co.Organization, r.Organization)
	if r.Credentials != nil {
		co.Credentials = *r.Credentials
	}
	return nil
}

// ListCounselors handles GET /api/admin/counselors
func (h *CounselorHandler) ListCounselors(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Counselor{}).Preload("Profile")
	query = queryHelper.Contains(query, "name", c.Query("name"))
	query = queryHelper.Contains(query, "organization", c.Query("organization"))
	query = queryHelper.Equals(query, "phone", c.Query("phone"))
	query = queryHelper.Equals(query, "status", c.Query("status"))

	var counselors []model.Counselor
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &counselors)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch counselors")
	}

	return response.Paginated(c, counselors, page.Meta(total))
}

// GetCounselor handles GET /api/admin/counselors/:id
func (h *CounselorHandler) GetCounselor(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid counselor ID")
	}

	var co model.Counselor
	if err := h.db.Preload("Profile").First(&co, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Counselor not found")
		}
		return response.InternalServerError(c, "Failed to fetch counselor")
	}

	return response.Success(c, co)
}

// CreateCounselor handles POST /api/admin/counselors. The username is
// generated; counselors sign in by email or phone.
func (h *CounselorHandler) CreateCounselor(c *fiber.Ctx) error {
	var req CounselorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Name == nil || *req.Name == "" {
		return response.BadRequest(c, "name is required")
	}
	if req.Gender == nil {
		return response.BadRequest(c, "gender is required")
	}

	co := model.Counselor{
		Username: auth.GenerateUsername("counselor"),
		Status:   model.CounselorEnabled,
	}
	if err := req.apply(&co); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if co.ExpertiseTags == nil {
		co.ExpertiseTags, _ = jsonList(nil)
	}
	if co.ServeType == nil {
		co.ServeType, _ = jsonList(nil)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&co).Error; err != nil {
			return err
		}
		profile := model.CounselorProfile{
			CounselorID:  co.ID,
			Name:         co.Name,
			Organization: co.Organization,
			Expertise:    co.ExpertiseTags,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		co.Profile = &profile
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Counselor already exists")
		}
		h.logger.Error("create counselor", zap.Error(err))
		return response.InternalServerError(c, "Failed to create counselor")
	}

	return response.Created(c, co)
}

// UpdateCounselor handles PUT /api/admin/counselors/:id
func (h *CounselorHandler) UpdateCounselor(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid counselor ID")
	}

	var req CounselorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var co model.Counselor
	if err := h.db.First(&co, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Counselor not found")
		}
		return response.InternalServerError(c, "Failed to fetch counselor")
	}

	wasEnabled := co.IsEnabled()
	if err := req.apply(&co); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Save(&co).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Counselor already exists")
		}
		return response.InternalServerError(c, "Failed to update counselor")
	}
	if wasEnabled && !co.IsEnabled() {
		h.revoke(c, co.ID)
	}

	return response.Success(c, co)
}

// UpdateStatus handles PATCH /api/admin/counselors/:id/status
func (h *CounselorHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid counselor ID")
	}

	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result := h.db.Model(&model.Counselor{}).Where("id = ?", id).Update("status", req.Status)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to update counselor status")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Counselor not found")
	}
	if model.CounselorStatus(req.Status) == model.CounselorDisabled {
		h.revoke(c, id)
	}

	return response.SuccessWithMessage(c, "Counselor status updated", fiber.Map{
		"id":     id,
		"status": req.Status,
	})
}

func (h *CounselorHandler) revoke(c *fiber.Ctx, id uint) {
	if err := h.tokens.RevokeAll(c.UserContext(), id); err != nil {
		h.logger.Warn("revoke counselor tokens", zap.Uint("counselor_id", id), zap.Error(err))
	}
}

// DeleteCounselor handles DELETE /api/admin/counselors/:id
func (h *CounselorHandler) DeleteCounselor(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid counselor ID")
	}

	result := h.db.Delete(&model.Counselor{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete counselor")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Counselor not found")
	}

	return response.SuccessWithMessage(c, "Counselor deleted successfully", nil)
}
