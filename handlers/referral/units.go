package referral

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// UnitRequest is the body of POST and PUT for referral units
type UnitRequest struct {
	UnitName     *string `json:"unit_name" validate:"omitempty,min=1,max=100"`
	Address      *string `json:"address" validate:"omitempty,max=255"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=20"`
}

func (r *UnitRequest) apply(u *model.ReferralUnit) {
	if r.UnitName != nil {
		u.UnitName = validation.SanitizeString(*r.UnitName)
	}
	if r.Address != nil {
		u.Address = validation.SanitizeString(*r.Address)
	}
	if r.ContactPhone != nil {
		u.ContactPhone = validation.SanitizeString(*r.ContactPhone)
	}
}

// ListUnits handles GET /api/admin/referral-units
func (h *ReferralHandler) ListUnits(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.ReferralUnit{})
	query = queryHelper.Contains(query, "unit_name", c.Query("unit_name", c.Query("name")))

	var units []model.ReferralUnit
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &units)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch referral units")
	}

	return response.Paginated(c, units, page.Meta(total))
}

// UnitNames handles GET /api/admin/referral-units/names
func (h *ReferralHandler) UnitNames(c *fiber.Ctx) error {
	var names []string
	if err := h.db.Model(&model.ReferralUnit{}).Order("unit_name").Pluck("unit_name", &names).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch referral unit names")
	}
	return response.Success(c, names)
}

// GetUnit handles GET /api/admin/referral-units/:id
func (h *ReferralHandler) GetUnit(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral unit ID")
	}

	var unit model.ReferralUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Referral unit not found")
		}
		return response.InternalServerError(c, "Failed to fetch referral unit")
	}

	return response.Success(c, unit)
}

// CreateUnit handles POST /api/admin/referral-units
func (h *ReferralHandler) CreateUnit(c *fiber.Ctx) error {
	var req UnitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.UnitName == nil || *req.UnitName == "" {
		return response.BadRequest(c, "unit_name is required")
	}

	unit := model.ReferralUnit{CreatedBy: middleware.ActorName(c)}
	req.apply(&unit)

	if err := h.db.Create(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Referral unit with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create referral unit")
	}

	return response.Created(c, unit)
}

// UpdateUnit handles PUT /api/admin/referral-units/:id
func (h *ReferralHandler) UpdateUnit(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral unit ID")
	}

	var req UnitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var unit model.ReferralUnit
	if err := h.db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Referral unit not found")
		}
		return response.InternalServerError(c, "Failed to fetch referral unit")
	}

	req.apply(&unit)
	if unit.UnitName == "" {
		return response.BadRequest(c, "unit_name cannot be empty")
	}
	if err := h.db.Save(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Referral unit with this name already exists")
		}
		return response.InternalServerError(c, "Failed to update referral unit")
	}

	return response.Success(c, unit)
}

// DeleteUnit handles DELETE /api/admin/referral-units/:id. Referrals to the
// unit keep their row with referral_unit_id cleared.
func (h *ReferralHandler) DeleteUnit(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid referral unit ID")
	}

	result := h.db.Delete(&model.ReferralUnit{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete referral unit")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Referral unit not found")
	}

	return response.SuccessWithMessage(c, "Referral unit deleted successfully", nil)
}
