package content

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	contentsvc "github.com/mindbridge/counsel-api/services/content"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// ArticleRequest is the body of POST and PUT. The category is named, not
// referenced by id.
type ArticleRequest struct {
	CategoryName *string `json:"category_name"`
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content      *string `json:"content"`
	Type         *string `json:"type" validate:"omitempty,oneof=article video resource"`
	Video        *string `json:"video" validate:"omitempty,max=500"`
	Resource     *string `json:"resource" validate:"omitempty,max=500"`
	Status       *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// ArticleView is an article as listed, with its category name and a
// plain-text summary of the HTML body
type ArticleView struct {
	model.Article
	CategoryName string `json:"category_name"`
	Summary      string `json:"summary"`
	Cover        string `json:"cover,omitempty"`
}

func newArticleView(a model.Article) ArticleView {
	view := ArticleView{Article: a, Summary: contentsvc.Summary(a.Content, contentsvc.DefaultSummaryLength)}
	// the first inline image doubles as the list thumbnail
	if images := contentsvc.ImageSources(a.Content); len(images) > 0 {
		view.Cover = images[0]
	}
	if a.Category != nil {
		view.CategoryName = a.Category.CategoryName
	}
	view.Article.Category = nil
	return view
}

func (h *ContentHandler) resolveCategory(c *fiber.Ctx, name string) (*model.Category, error) {
	var category model.Category
	err := h.db.WithContext(c.UserContext()).Where("category_name = ?", strings.TrimSpace(name)).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *ArticleRequest) apply(a *model.Article) {
	if r.Title != nil {
		a.Title = validation.SanitizeString(*r.Title)
	}
	if r.Content != nil {
		a.Content = *r.Content
	}
	if r.Type != nil {
		a.ContentType = model.ArticleType(*r.Type)
	}
	if r.Video != nil {
		a.VideoURL = strings.TrimSpace(*r.Video)
	}
	if r.Resource != nil {
		a.ResourceURL = strings.TrimSpace(*r.Resource)
	}
	if r.Status != nil {
		a.Status = model.PublishStatus(*r.Status)
	}
}

// ListArticles handles GET /api/admin/articles
func (h *ContentHandler) ListArticles(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Article{}).Preload("Category")
	query = queryHelper.Contains(query, "title", c.Query("title"))
	query = queryHelper.Equals(query, "status", c.Query("status"))
	query = queryHelper.Equals(query, "content_type", c.Query("type"))
	if name := c.Query("category_name"); name != "" {
		query = query.Where("category_id IN (?)",
			h.db.Model(&model.Category{}).Select("id").Where("category_name = ?", name))
	}

	var articles []model.Article
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &articles)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch articles")
	}

	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, newArticleView(a))
	}

	return response.Paginated(c, views, page.Meta(total))
}

// GetArticle handles GET /api/admin/articles/:id and counts the read
func (h *ContentHandler) GetArticle(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid article ID")
	}

	result := h.db.Model(&model.Article{}).Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + ?", 1))
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to fetch article")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Article not found")
	}

	var article model.Article
	if err := h.db.Preload("Category").First(&article, id).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch article")
	}

	return response.Success(c, newArticleView(article))
}

// CreateArticle handles POST /api/admin/articles
func (h *ContentHandler) CreateArticle(c *fiber.Ctx) error {
	var req ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.CategoryName == nil || strings.TrimSpace(*req.CategoryName) == "" {
		return response.BadRequest(c, "category_name is required")
	}
	if req.Title == nil || *req.Title == "" {
		return response.BadRequest(c, "title is required")
	}

	category, err := h.resolveCategory(c, *req.CategoryName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.BadRequest(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	article := model.Article{
		CategoryID:  category.ID,
		ContentType: model.ArticleText,
		Status:      model.StatusDraft,
		CreatedBy:   middleware.ActorName(c),
	}
	req.apply(&article)

	if err := h.db.Create(&article).Error; err != nil {
		return response.InternalServerError(c, "Failed to create article")
	}

	article.Category = category
	return response.Created(c, newArticleView(article))
}

// UpdateArticle handles PUT /api/admin/articles/:id
func (h *ContentHandler) UpdateArticle(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid article ID")
	}

	var req ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var article model.Article
	if err := h.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Article not found")
		}
		return response.InternalServerError(c, "Failed to fetch article")
	}

	if req.CategoryName != nil {
		category, err := h.resolveCategory(c, *req.CategoryName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.BadRequest(c, "Category not found")
			}
			return response.InternalServerError(c, "Failed to fetch category")
		}
		article.CategoryID = category.ID
	}
	req.apply(&article)

	if err := h.db.Save(&article).Error; err != nil {
		return response.InternalServerError(c, "Failed to update article")
	}

	if err := h.db.Preload("Category").First(&article, id).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch article")
	}
	return response.Success(c, newArticleView(article))
}

// DeleteArticle handles DELETE /api/admin/articles/:id
func (h *ContentHandler) DeleteArticle(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid article ID")
	}

	result := h.db.Delete(&model.Article{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete article")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Article not found")
	}

	return response.SuccessWithMessage(c, "Article deleted successfully", nil)
}
