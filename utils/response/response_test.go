package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func decode(t *testing.T, app *fiber.App, path string) (int, Response) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", body, err)
	}
	return resp.StatusCode, out
}

func TestErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/missing", func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		return NotFound(c, "")
	})
	app.Get("/bad", func(c *fiber.Ctx) error { return BadRequest(c, "name is required") })
	app.Get("/invalid", func(c *fiber.Ctx) error { return ValidationError(c, errors.New("boom")) })

	status, body := decode(t, app, "/missing")
	if status != fiber.StatusNotFound || body.Success {
		t.Errorf("status=%d success=%v", status, body.Success)
	}
	if body.Error == nil || body.Error.Code != CodeNotFound || body.Message != "Resource not found" || body.Error.RequestID != "req-1" {
		t.Errorf("unexpected envelope: %+v %+v", body, body.Error)
	}

	status, body = decode(t, app, "/bad")
	if status != fiber.StatusBadRequest || body.Error.Message != "name is required" {
		t.Errorf("status=%d error=%+v", status, body.Error)
	}

	status, body = decode(t, app, "/invalid")
	if status != fiber.StatusUnprocessableEntity || body.Error.Code != CodeValidation || body.Error.Details != "boom" {
		t.Errorf("status=%d error=%+v", status, body.Error)
	}
}

func TestCalculatePagination(t *testing.T) {
	tests := []struct {
		page, limit int
		total       int64
		want        PaginationMeta
	}{
		{1, 10, 0, PaginationMeta{CurrentPage: 1, PerPage: 10, Total: 0, TotalPages: 0}},
		{1, 10, 10, PaginationMeta{CurrentPage: 1, PerPage: 10, Total: 10, TotalPages: 1}},
		{2, 10, 11, PaginationMeta{CurrentPage: 2, PerPage: 10, Total: 11, TotalPages: 2}},
		{0, 0, 25, PaginationMeta{CurrentPage: 1, PerPage: DefaultPageSize, Total: 25, TotalPages: 3}},
		{1, 500, 250, PaginationMeta{CurrentPage: 1, PerPage: MaxPageSize, Total: 250, TotalPages: 3}},
	}
	for _, tt := range tests {
		if got := CalculatePagination(tt.page, tt.limit, tt.total); got != tt.want {
			t.Errorf("CalculatePagination(%d, %d, %d) = %+v, want %+v", tt.page, tt.limit, tt.total, got, tt.want)
		}
	}
}
