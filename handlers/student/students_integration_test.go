package student

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

type studentEnvelope struct {
	Success bool          `json:"success"`
	Data    model.Student `json:"data"`
}

func decodeStudent(t *testing.T, app *fiber.App, method, path, body string, wantStatus int) model.Student {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	var env studentEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success {
		t.Fatalf("%s %s: success = false", method, path)
	}
	return env.Data
}

func TestCreateThenGetStudent(t *testing.T) {
	db := openTestDB(t)
	h := NewStudentHandler(db)
	app := fiber.New()
	app.Post("/students", h.CreateStudent)
	app.Get("/students/:id", h.GetStudent)

	no := "S" + uuid.NewString()[:8]
	body := fmt.Sprintf(`{"student_no":%q,"name":"Li Hua","gender":"female","age":16,
		"school":"No.1 Middle School","grade":"10","class_name":"3",
		"contact":"13800000000","guardian_name":"Li Ming","guardian_phone":"13900000000","notes":"first visit"}`, no)

	created := decodeStudent(t, app, fiber.MethodPost, "/students", body, fiber.StatusCreated)
	t.Cleanup(func() { db.Delete(&model.Student{}, created.ID) })
	if created.ID == 0 {
		t.Fatal("created student has no id")
	}

	got := decodeStudent(t, app, fiber.MethodGet, fmt.Sprintf("/students/%d", created.ID), "", fiber.StatusOK)

	checks := []struct {
		field     string
		got, want string
	}{
		{"student_no", got.StudentNo, no},
		{"name", got.Name, "Li Hua"},
		{"gender", string(got.Gender), string(model.GenderFemale)},
		{"school", got.School, "No.1 Middle School"},
		{"grade", got.Grade, "10"},
		{"class_name", got.ClassName, "3"},
		{"contact", got.Contact, "13800000000"},
		{"guardian_name", got.GuardianName, "Li Ming"},
		{"guardian_phone", got.GuardianPhone, "13900000000"},
		{"notes", got.Notes, "first visit"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if got.Age == nil || *got.Age != 16 {
		t.Errorf("age = %v, want 16", got.Age)
	}
}
