package queryHelper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"gorm.io/gorm"
)

// Page is a normalized page request. Page starts at 1.
type Page struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Size
}

// NewPage clamps raw values into a valid page request
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = response.DefaultPageSize
	}
	if size > response.MaxPageSize {
		size = response.MaxPageSize
	}
	return Page{Page: page, Size: size}
}

// PageFromQuery reads page and page_size from the query string.
// pageSize and limit are accepted as aliases of page_size.
func PageFromQuery(c *fiber.Ctx) Page {
	size := c.QueryInt("page_size", 0)
	if size == 0 {
		size = c.QueryInt("pageSize", 0)
	}
	if size == 0 {
		size = c.QueryInt("limit", 0)
	}
	return NewPage(c.QueryInt("page", 1), size)
}

// Meta builds the response pagination block for a page and total
func (p Page) Meta(total int64) response.PaginationMeta {
	return response.CalculatePagination(p.Page, p.Size, total)
}

// Contains adds a case-insensitive substring filter when value is non-empty
func Contains(db *gorm.DB, column, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return db
	}
	return db.Where(fmt.Sprintf("%s ILIKE ?", column), "%"+value+"%")
}

// Equals adds an equality filter when value is non-empty
func Equals(db *gorm.DB, column, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return db
	}
	return db.Where(fmt.Sprintf("%s = ?", column), value)
}

// EqualsUint adds an equality filter when value parses as a positive id
func EqualsUint(db *gorm.DB, column, value string) (*gorm.DB, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return db, nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", column, value)
	}
	return db.Where(fmt.Sprintf("%s = ?", column), id), nil
}

// DateRange bounds a date column by inclusive YYYY-MM-DD limits. Empty
// limits are ignored.
func DateRange(db *gorm.DB, column, start, end string) (*gorm.DB, error) {
	if start = strings.TrimSpace(start); start != "" {
		d, err := timefmt.ParseDate(start)
		if err != nil {
			return nil, err
		}
		db = db.Where(fmt.Sprintf("%s >= ?", column), d)
	}
	if end = strings.TrimSpace(end); end != "" {
		d, err := timefmt.ParseDate(end)
		if err != nil {
			return nil, err
		}
		db = db.Where(fmt.Sprintf("%s <= ?", column), d)
	}
	return db, nil
}

// Paginate counts the filtered rows and loads one ordered page into dest
func Paginate(db *gorm.DB, page Page, order string, dest interface{}) (int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Order(order).Limit(page.Size).Offset(page.Offset()).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ParamID parses a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}
