package content

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

const categoryOrder = "sort_order ASC, created_at ASC"

type CategoryRequest struct {
	CategoryName *string `json:"category_name" validate:"omitempty,min=1,max=100"`
	SortOrder    *int    `json:"sort_order" validate:"omitempty,min=0"`
}

// ListCategories handles GET /api/admin/categories
func (h *ContentHandler) ListCategories(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Category{})
	query = queryHelper.Contains(query, "category_name", c.Query("category_name", c.Query("name")))

	var categories []model.Category
	total, err := queryHelper.Paginate(query, page, categoryOrder, &categories)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch categories")
	}

	return response.Paginated(c, categories, page.Meta(total))
}

// CategoryNames handles GET /api/admin/categories/names
func (h *ContentHandler) CategoryNames(c *fiber.Ctx) error {
	var names []string
	if err := h.db.Model(&model.Category{}).Order(categoryOrder).Pluck("category_name", &names).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch category names")
	}
	return response.Success(c, names)
}

// GetCategory handles GET /api/admin/categories/:id
func (h *ContentHandler) GetCategory(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	return response.Success(c, category)
}

// CreateCategory handles POST /api/admin/categories
func (h *ContentHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.CategoryName == nil || *req.CategoryName == "" {
		return response.BadRequest(c, "category_name is required")
	}

	category := model.Category{
		CategoryName: validation.SanitizeString(*req.CategoryName),
		CreatedBy:    middleware.ActorName(c),
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Category with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}

// UpdateCategory handles PUT /api/admin/categories/:id
func (h *ContentHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	if req.CategoryName != nil {
		category.CategoryName = validation.SanitizeString(*req.CategoryName)
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	if err := h.db.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Category with this name already exists")
		}
		return response.InternalServerError(c, "Failed to update category")
	}

	return response.Success(c, category)
}

// DeleteCategory handles DELETE /api/admin/categories/:id. Its articles go with it.
func (h *ContentHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	result := h.db.Delete(&model.Category{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete category")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Category not found")
	}

	return response.SuccessWithMessage(c, "Category deleted successfully", nil)
}
