package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/auth"
)

type memoryTokens map[string]*auth.TokenRecord

func (m memoryTokens) Find(_ context.Context, token string) (*auth.TokenRecord, error) {
	rec, ok := m[token]
	if !ok {
		return nil, auth.ErrTokenNotFound
	}
	return rec, nil
}

func (m memoryTokens) Issue(_ context.Context, ownerID uint) (*auth.TokenRecord, error) {
	rec := &auth.TokenRecord{Token: "issued", OwnerID: ownerID, IsActive: true}
	m[rec.Token] = rec
	return rec, nil
}

func (m memoryTokens) Revoke(_ context.Context, token string) error {
	delete(m, token)
	return nil
}

func (m memoryTokens) RevokeAll(_ context.Context, ownerID uint) error {
	for k, rec := range m {
		if rec.OwnerID == ownerID {
			delete(m, k)
		}
	}
	return nil
}

func (m memoryTokens) PurgeExpired(_ context.Context) (int64, error) { return 0, nil }

func newGuardApp(t *testing.T) *fiber.App {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	store := memoryTokens{
		"good":     {Token: "good", OwnerID: 1, IsActive: true},
		"inactive": {Token: "inactive", OwnerID: 1, IsActive: false},
		"expired":  {Token: "expired", OwnerID: 1, IsActive: true, ExpiresAt: &past},
		"orphan":   {Token: "orphan", OwnerID: 9, IsActive: true},
	}
	guard := NewTokenGuard(GuardConfig{
		Store:     store,
		LocalsKey: LocalsCounselor,
		Load: func(_ context.Context, ownerID uint) (interface{}, error) {
			if ownerID != 1 {
				return nil, ErrPrincipalNotFound
			}
			return &model.Counselor{ID: 1, Username: "counselor_one"}, nil
		},
	})

	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		return c.SendString(ActorName(c))
	}
	app.Get("/header", guard.Header(), whoami)
	app.Post("/body", guard.Body(), whoami)
	return app
}

func TestHeaderGuard(t *testing.T) {
	app := newGuardApp(t)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"token scheme", "Token good", fiber.StatusOK},
		{"bearer scheme", "Bearer good", fiber.StatusOK},
		{"bare token", "good", fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"unknown", "Token nope", fiber.StatusUnauthorized},
		{"inactive", "Token inactive", fiber.StatusUnauthorized},
		{"expired", "Token expired", fiber.StatusUnauthorized},
		{"owner gone", "Token orphan", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/header", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != "counselor_one" {
					t.Errorf("actor = %q, want counselor_one", body)
				}
			}
		})
	}
}

func TestBodyGuard(t *testing.T) {
	app := newGuardApp(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"json", fiber.MIMEApplicationJSON, `{"user_id": 1, "token": "good"}`, fiber.StatusOK},
		{"json camel id", fiber.MIMEApplicationJSON, `{"userId": "1", "token": "good"}`, fiber.StatusOK},
		{"form", fiber.MIMEApplicationForm, "user_id=1&token=good", fiber.StatusOK},
		{"bare id", fiber.MIMEApplicationJSON, `{"id": 1, "token": "good"}`, fiber.StatusOK},
		{"bare id form", fiber.MIMEApplicationForm, "id=1&token=good", fiber.StatusOK},
		{"user_id wins over id", fiber.MIMEApplicationJSON, `{"user_id": 1, "id": 99, "token": "good"}`, fiber.StatusOK},
		{"bare id mismatch", fiber.MIMEApplicationJSON, `{"id": 2, "token": "good"}`, fiber.StatusUnauthorized},
		{"id mismatch", fiber.MIMEApplicationJSON, `{"user_id": 2, "token": "good"}`, fiber.StatusUnauthorized},
		{"missing token", fiber.MIMEApplicationJSON, `{"user_id": 1}`, fiber.StatusUnauthorized},
		{"fractional id", fiber.MIMEApplicationJSON, `{"user_id": 1.5, "token": "good"}`, fiber.StatusUnauthorized},
		{"malformed json", fiber.MIMEApplicationJSON, `{"user_id":`, fiber.StatusUnauthorized},
		{"expired", fiber.MIMEApplicationJSON, `{"user_id": 1, "token": "expired"}`, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/body", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestTokenRecordValid(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)

	if !(auth.TokenRecord{IsActive: true}).Valid(now) {
		t.Error("active token without expiry should be valid")
	}
	if !(auth.TokenRecord{IsActive: true, ExpiresAt: &later}).Valid(now) {
		t.Error("unexpired token should be valid")
	}
	if (auth.TokenRecord{IsActive: true, ExpiresAt: &earlier}).Valid(now) {
		t.Error("expired token should be invalid")
	}
	if (auth.TokenRecord{IsActive: false}).Valid(now) {
		t.Error("inactive token should be invalid")
	}
}
