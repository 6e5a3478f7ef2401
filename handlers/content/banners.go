package content

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BannerRequest struct {
	ModuleName *string  `json:"module_name" validate:"omitempty,min=1,max=100"`
	Pictures   []string `json:"pictures" validate:"omitempty,dive,max=500"`
}

// setPictures stores the list and keeps carousel_count in step with it
func setPictures(b *model.Banner, pictures []string) error {
	if pictures == nil {
		pictures = []string{}
	}
	raw, err := json.Marshal(pictures)
	if err != nil {
		return err
	}
	b.Pictures = datatypes.JSON(raw)
	b.CarouselCount = len(pictures)
	return nil
}

// ListBanners handles GET /api/admin/banners
func (h *ContentHandler) ListBanners(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Banner{})
	query = queryHelper.Contains(query, "module_name", c.Query("module_name"))

	var banners []model.Banner
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &banners)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch banners")
	}

	return response.Paginated(c, banners, page.Meta(total))
}

// GetBanner handles GET /api/admin/banners/:id
func (h *ContentHandler) GetBanner(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid banner ID")
	}

	var banner model.Banner
	if err := h.db.First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Banner not found")
		}
		return response.InternalServerError(c, "Failed to fetch banner")
	}

	return response.Success(c, banner)
}

// CreateBanner handles POST /api/admin/banners
func (h *ContentHandler) CreateBanner(c *fiber.Ctx) error {
	var req BannerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.ModuleName == nil || *req.ModuleName == "" {
		return response.BadRequest(c, "module_name is required")
	}

	banner := model.Banner{
		ModuleName: validation.SanitizeString(*req.ModuleName),
		CreatedBy:  middleware.ActorName(c),
	}
	if err := setPictures(&banner, req.Pictures); err != nil {
		return response.BadRequest(c, "Invalid pictures")
	}

	if err := h.db.Create(&banner).Error; err != nil {
		return response.InternalServerError(c, "Failed to create banner")
	}

	return response.Created(c, banner)
}

// UpdateBanner handles PUT /api/admin/banners/:id
func (h *ContentHandler) UpdateBanner(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid banner ID")
	}

	var req BannerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var banner model.Banner
	if err := h.db.First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Banner not found")
		}
		return response.InternalServerError(c, "Failed to fetch banner")
	}

	if req.ModuleName != nil {
		banner.ModuleName = validation.SanitizeString(*req.ModuleName)
	}
	if req.Pictures != nil {
		if err := setPictures(&banner, req.Pictures); err != nil {
			return response.BadRequest(c, "Invalid pictures")
		}
	}

	if err := h.db.Save(&banner).Error; err != nil {
		return response.InternalServerError(c, "Failed to update banner")
	}

	return response.Success(c, banner)
}

// DeleteBanner handles DELETE /api/admin/banners/:id
func (h *ContentHandler) DeleteBanner(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid banner ID")
	}

	result := h.db.Delete(&model.Banner{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete banner")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Banner not found")
	}

	return response.SuccessWithMessage(c, "Banner deleted successfully", nil)
}
