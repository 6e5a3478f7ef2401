package validation

import "testing"

type stopRequest struct {
	StartTime string `json:"start_time" validate:"required,timestamp"`
	Clock     string `json:"clock" validate:"omitempty,clock"`
	Kind      string `json:"kind" validate:"omitempty,oneof=sick_leave personal_leave other"`
}

func TestCustomTags(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		req       stopRequest
		wantField string
	}{
		{"valid", stopRequest{StartTime: "2024-01-01 09:00", Clock: "9:30", Kind: "other"}, ""},
		{"seconds", stopRequest{StartTime: "2024-01-01 09:00:30"}, ""},
		{"missing", stopRequest{}, "start_time"},
		{"date only", stopRequest{StartTime: "2024-01-01"}, "start_time"},
		{"bad clock", stopRequest{StartTime: "2024-01-01 09:00", Clock: "25:00"}, "clock"},
		{"bad kind", stopRequest{StartTime: "2024-01-01 09:00", Kind: "holiday"}, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}
			fields := FormatValidationErrors(err)
			if _, ok := fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want key %s", fields, tt.wantField)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  a\x00b \n"); got != "ab" {
		t.Errorf("SanitizeString = %q, want %q", got, "ab")
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("counselor@school.edu.cn") {
		t.Error("valid email rejected")
	}
	if ValidateEmail("not-an-email") {
		t.Error("invalid email accepted")
	}
}
