package model

import (
	"testing"
	"time"
)

func TestVerificationCodeMatches(t *testing.T) {
	now := time.Now()
	fresh := func() *VerificationCode {
		return &VerificationCode{Code: "123456", ExpiresAt: now.Add(time.Minute)}
	}

	tests := []struct {
		name  string
		code  *VerificationCode
		input string
		want  bool
	}{
		{"match", fresh(), "123456", true},
		{"wrong", fresh(), "654321", false},
		{"used", func() *VerificationCode { v := fresh(); v.IsVerified = true; return v }(), "123456", false},
		{"expired", func() *VerificationCode { v := fresh(); v.ExpiresAt = now.Add(-time.Second); return v }(), "123456", false},
		{"one failure left", func() *VerificationCode { v := fresh(); v.Failures = MaxCodeAttempts - 1; return v }(), "123456", true},
		{"burned", func() *VerificationCode { v := fresh(); v.Failures = MaxCodeAttempts; return v }(), "123456", false},
		{"nil", nil, "123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Matches(tt.input, now); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
