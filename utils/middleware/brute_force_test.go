package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestLockFor(t *testing.T) {
	tests := []struct {
		attempts int64
		want     time.Duration
	}{
		{1, 0},
		{4, 0},
		{5, 2 * time.Minute},
		{9, 2 * time.Minute},
		{10, time.Hour},
		{30, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := lockFor(tt.attempts); got != tt.want {
			t.Errorf("lockFor(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestNilProtectionIsDisabled(t *testing.T) {
	var b *BruteForceProtection
	if NewBruteForceProtection(nil) != nil {
		t.Fatal("nil store should disable protection")
	}
	if !b.AllowSend(context.Background(), "k", time.Minute) {
		t.Error("disabled protection should always allow sends")
	}

	app := fiber.New()
	app.Post("/login", b.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		if err := b.RecordFailedAttempt(c); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}
