package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTicketRoundTrip(t *testing.T) {
	m := NewTicketManager(TicketConfig{Secret: "test-secret", Issuer: "counsel-api"})

	ticket, expiresAt, err := m.Issue(42, "counselor", 7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiry %v is not in the future", expiresAt)
	}

	claims, err := m.Parse(ticket)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.FileID != 42 || claims.Realm != "counselor" || claims.UserID != 7 {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTicketRejected(t *testing.T) {
	m := NewTicketManager(TicketConfig{Secret: "test-secret", Issuer: "counsel-api"})
	other := NewTicketManager(TicketConfig{Secret: "other-secret", Issuer: "counsel-api"})
	expired := &TicketManager{config: TicketConfig{Secret: "test-secret", Issuer: "counsel-api", Expiry: -time.Minute}}

	foreign, _, err := other.Issue(1, "admin", 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(foreign); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("foreign secret: got %v, want ErrInvalidTicket", err)
	}

	if _, err := m.Parse("not-a-ticket"); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("garbage: got %v, want ErrInvalidTicket", err)
	}

	old, _, err := expired.Issue(1, "admin", 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(old); !errors.Is(err, ErrExpiredTicket) {
		t.Errorf("expired: got %v, want ErrExpiredTicket", err)
	}
}

func TestTicketDefaultExpiry(t *testing.T) {
	if got := NewTicketManager(TicketConfig{Expiry: -time.Minute}).config.Expiry; got != 10*time.Minute {
		t.Errorf("expiry = %v, want 10m", got)
	}
}

func TestPasswordHash(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) || !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password: got %v, want ErrPasswordTooShort", err)
	}
	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("long password: got %v, want ErrPasswordTooLong", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Errorf("matching password rejected: %v", err)
	}
	if err := VerifyPassword(hash, "wrong horse"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("wrong password: got %v, want ErrPasswordMismatch", err)
	}
	if err := VerifyPassword("", "correct horse"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("no hash: got %v, want ErrNoPassword", err)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash reported as needing rehash")
	}
	if !NeedsRehash("not a hash") {
		t.Error("garbage hash should need rehash")
	}
}

func TestCodes(t *testing.T) {
	code, err := NumericCode(VerificationCodeLength)
	if err != nil {
		t.Fatalf("NumericCode failed: %v", err)
	}
	if len(code) != VerificationCodeLength {
		t.Errorf("len(code) = %d, want %d", len(code), VerificationCodeLength)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Errorf("non-digit %q in %q", r, code)
		}
	}

	captcha, err := CaptchaText(CaptchaLength)
	if err != nil {
		t.Fatalf("CaptchaText failed: %v", err)
	}
	for _, r := range captcha {
		if r == '0' || r == 'O' || r == '1' || r == 'I' {
			t.Errorf("ambiguous character %q in %q", r, captcha)
		}
	}

	if _, err := NumericCode(0); err == nil {
		t.Error("expected error for zero length")
	}
}
