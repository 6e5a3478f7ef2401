package notification

import (
	"encoding/json"
	"testing"
)

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{`{"is_published": true}`, true, false},
		{`{"is_published": false}`, false, false},
		{`{"is_published": "true"}`, true, false},
		{`{"is_published": "TRUE"}`, true, false},
		{`{"is_published": "false"}`, false, false},
		{`{"is_published": "yes"}`, false, false},
		{`{"is_published": 3}`, false, true},
	}

	for _, tt := range tests {
		var req NotificationRequest
		err := json.Unmarshal([]byte(tt.input), &req)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.input, err)
		}
		if req.IsPublished == nil || bool(*req.IsPublished) != tt.want {
			t.Errorf("%s: got %v, want %v", tt.input, req.IsPublished, tt.want)
		}
	}
}
