package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/utils/validation"
)

// Error codes carried in ErrorDetail.Code
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

// fallbacks are used when a handler passes an empty message
var fallbacks = map[int]string{
	fiber.StatusUnauthorized:        "Unauthorized access",
	fiber.StatusForbidden:           "Access forbidden",
	fiber.StatusNotFound:            "Resource not found",
	fiber.StatusTooManyRequests:     "Too many requests",
	fiber.StatusInternalServerError: "Internal server error",
}

// Response is the envelope of every JSON answer
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request. RequestID matches the access log.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResponse is the envelope of list endpoints. Total repeats
// Pagination.Total for clients that only read the top level.
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Total      int64          `json:"total"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Message: message, Data: data})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

func fail(c *fiber.Ctx, status int, code, message string, detail *ErrorDetail) error {
	if message == "" {
		message = fallbacks[status]
	}
	if detail == nil {
		detail = &ErrorDetail{}
	}
	detail.Code = code
	detail.Message = message
	if id, ok := c.Locals("requestid").(string); ok {
		detail.RequestID = id
	}
	return c.Status(status).JSON(Response{Success: false, Message: message, Error: detail})
}

// Error returns an error response with an arbitrary status and code
func Error(c *fiber.Ctx, status int, message, code string) error {
	return fail(c, status, code, message, nil)
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, CodeBadRequest, message, nil)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusForbidden, CodeForbidden, message, nil)
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusConflict, CodeConflict, message, nil)
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusTooManyRequests, CodeTooManyRequests, message, nil)
}

// ValidationError returns a 422 with one message per offending field
func ValidationError(c *fiber.Ctx, err error) error {
	return fail(c, fiber.StatusUnprocessableEntity, CodeValidation, "Validation failed", &ErrorDetail{
		Details: err.Error(),
		Fields:  validation.FormatValidationErrors(err),
	})
}

// InternalServerError returns a 500. message must not carry error text.
func InternalServerError(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusInternalServerError, CodeInternal, message, nil)
}

// Paginated returns a paginated response
func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Total:      pagination.Total,
		Data:       data,
		Pagination: pagination,
	})
}

// Page size bounds shared by every list endpoint
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CalculatePagination clamps page and limit and derives the page count
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
	}
}
