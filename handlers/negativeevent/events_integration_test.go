package negativeevent

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Requires RUN_INTEGRATION_TESTS=true and TEST_DATABASE_DSN
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestDeleteEventDisablesRow(t *testing.T) {
	db := openTestDB(t)
	h := NewEventHandler(db)
	app := fiber.New()
	app.Post("/events", h.CreateEvent)
	app.Get("/events/:id", h.GetEvent)
	app.Delete("/events/:id", h.DeleteEvent)

	do := func(method, path, body string) (int, []byte) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		var raw json.RawMessage
		_ = json.NewDecoder(resp.Body).Decode(&raw)
		return resp.StatusCode, raw
	}

	name := "Student " + uuid.NewString()[:6]
	status, raw := do(fiber.MethodPost, "/events",
		fmt.Sprintf(`{"student_name":%q,"event_details":"fight in class","event_date":"2030-03-01"}`, name))
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, body %s", status, raw)
	}
	var created struct {
		Data model.NegativeEvent `json:"data"`
	}
	if err := json.Unmarshal(raw, &created); err != nil || created.Data.ID == 0 {
		t.Fatalf("decode create: %v (%s)", err, raw)
	}
	id := created.Data.ID
	t.Cleanup(func() { db.Delete(&model.NegativeEvent{}, id) })

	path := fmt.Sprintf("/events/%d", id)
	if status, raw := do(fiber.MethodDelete, path, ""); status != fiber.StatusOK {
		t.Fatalf("delete status = %d, body %s", status, raw)
	}

	var row model.NegativeEvent
	if err := db.First(&row, id).Error; err != nil {
		t.Fatalf("row gone after delete: %v", err)
	}
	if !row.Disabled {
		t.Error("disabled = false after delete")
	}

	if status, _ := do(fiber.MethodGet, path, ""); status != fiber.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
	if status, _ := do(fiber.MethodDelete, path, ""); status != fiber.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}
