package referral

import (
	"errors"
	"strings"

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

// ReferralHandler handles referral units and student referrals
type ReferralHandler struct {
	db        *gorm.DB
	files     *services.FileService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(db *gorm.DB, files *services.FileService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		db:        db,
		files:     files,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// ReferralRequest is the body of POST and PUT. The unit may be given by id
// or by unit_name. A multipart "image" file replaces image_path.
type ReferralRequest struct {
	StudentID      *uint   `json:"student_id" form:"student_id"`
	StudentName    *string `json:"student_name" form:"student_name" validate:"omitempty,min=1,max=50"`
	Gender         *string `json:"gender" form:"gender"`
	School         *string `json:"school" form:"school" validate:"omitempty,max=100"`
	Grade          *string `json:"grade" form:"grade" validate:"omitempty,max=50"`
	ClassName      *string `json:"class_name" form:"class_name" validate:"omitempty,max=50"`
	ReferralUnitID *uint   `json:"referral_unit_id" form:"referral_unit_id"`
	UnitName       *string `json:"unit_name" form:"unit_name"`
	ReferralReason *string `json:"referral_reason" form:"referral_reason"`
	ReferralDate   *string `json:"referral_date" form:"referral_date"`
	ImagePath      *string `json:"image_path" form:"image_path"`
}

func (h *ReferralHandler) apply(c *fiber.Ctx, r *ReferralRequest, ref *model.StudentReferral) error {
	if r.Gender != nil {
		g, ok := model.ParseGender(*r.Gender)
		if !ok && *r.Gender != "" {
			return errors.New("gender must be male or female")
		}
		ref.Gender = g
	}
	if r.ReferralDate != nil {
		d, err := timefmt.ParseDate(*r.ReferralDate)
		if err != nil {
			return err
		}
		ref.ReferralDate = d
	}
	if r.StudentID != nil {
		ref.StudentID = r.StudentID
	}

	switch {
	case r.ReferralUnitID != nil:
		var unit model.ReferralUnit
		if err := h.db.WithContext(c.UserContext()).First(&unit, *r.ReferralUnitID).Error; err != nil {
			return errors.New("referral unit not found")
		}
		ref.ReferralUnitID = &unit.ID
	case r.UnitName != nil && strings.TrimSpace(*r.UnitName) != "":
		var unit model.ReferralUnit
		if err := h.db.WithContext(c.UserContext()).Where("unit_name = ?", strings.TrimSpace(*r.UnitName)).First(&unit).Error; err != nil {
			return errors.New("referral unit not found")
		}
		ref.ReferralUnitID = &unit.ID
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeString(*src)
		}
	}
	set(&ref.StudentName, r.StudentName)
	set(&ref.School, r.School)
	set(&ref.Grade, r.Grade)
	set(&ref.ClassName, r.ClassName)
	set(&ref.ImagePath, r.ImagePath)
	if r.ReferralReason != nil {
		ref.ReferralReason = *r.ReferralReason
	}
	return nil
}

// attachImage stores a multipart "image" file, if any, and points ImagePath at it
func (h *ReferralHandler) attachImage(c *fiber.Ctx, ref *model.StudentReferral) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	if !services.IsImage(fh.Filename) {
		return errors.New("image must be a jpg, png, gif or webp file")
	}
	content, err := services.ReadUpload(fh)
	if err != nil {
		return err
	}
	file, err := h.files.Save(c.UserContext(), fh.Filename, content, services.Upload{
		Module:       model.ModuleReferralImage,
		AssociatedID: nilIfZero(ref.ID),
		Realm:        model.RealmAdmin,
		UploaderID:   middleware.UserID(c),
	})
	if err != nil {
		return err
	}
	ref.ImagePath = h.files.Store().URL(file.StorageKey)
	return nil
}

func nilIfZero(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// ListReferrals handles GET /api/admin/referrals
func (h *ReferralHandler) ListReferrals(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.StudentReferral{}).Preload("ReferralUnit")
	query = queryHelper.Contains(query, "student_name", c.Query("student_name", c.Query("name")))
	query = queryHelper.Contains(query, "school", c.Query("school"))
	query = queryHelper.Equals(query, "grade", c.Query("grade"))
	query, err := queryHelper.EqualsUint(query, "referral_unit_id", c.Query("referral_unit_id"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	query, err = queryHelper.DateRange(query, "referral_date", c.Query("date_start"), c.Query("date_end"))
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var referrals []model.StudentReferral
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &referrals)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch referrals")
	}

	return response.Paginated(c, referrals, page.Meta(total))
}

// GetReferral handles GET /api/admin/referrals/:id
func (h *ReferralHandler) GetReferral(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral ID")
	}

	var ref model.StudentReferral
	if err := h.db.Preload("ReferralUnit").First(&ref, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Referral not found")
		}
		return response.InternalServerError(c, "Failed to fetch referral")
	}

	return response.Success(c, ref)
}

// CreateReferral handles POST /api/admin/referrals
func (h *ReferralHandler) CreateReferral(c *fiber.Ctx) error {
	var req ReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.StudentName == nil || *req.StudentName == "" {
		return response.BadRequest(c, "student_name is required")
	}

	ref := model.StudentReferral{CreatedBy: middleware.ActorName(c)}
	if err := h.apply(c, &req, &ref); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.attachImage(c, &ref); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Create(&ref).Error; err != nil {
		return response.InternalServerError(c, "Failed to create referral")
	}

	return response.Created(c, ref)
}

// UpdateReferral handles PUT /api/admin/referrals/:id
func (h *ReferralHandler) UpdateReferral(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral ID")
	}

	var req ReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var ref model.StudentReferral
	if err := h.db.First(&ref, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Referral not found")
		}
		return response.InternalServerError(c, "Failed to fetch referral")
	}

	if err := h.apply(c, &req, &ref); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.attachImage(c, &ref); err != nil {
		return response.BadRequest(c, err.Error())
	}
	// Save would write the preloaded association back
	ref.ReferralUnit = nil
	if err := h.db.Save(&ref).Error; err != nil {
		return response.InternalServerError(c, "Failed to update referral")
	}

	return response.Success(c, ref)
}

// DeleteReferral handles DELETE /api/admin/referrals/:id
func (h *ReferralHandler) DeleteReferral(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral ID")
	}

	result := h.db.Delete(&model.StudentReferral{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete referral")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Referral not found")
	}

	return response.SuccessWithMessage(c, "Referral deleted successfully", nil)
}
