package config

import (
	"errors"
	"testing"
)

func TestGetTicketSecret(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		want    string
		wantErr error
	}{
		{"production without secret", "production", "", "", ErrMissingTicketSecret},
		{"production with secret", "production", "s3cret", "s3cret", nil},
		{"development falls back", "development", "", "dev-ticket-secret", nil},
		{"development keeps secret", "development", "mine", "mine", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", tt.env)
			t.Setenv("TICKET_SECRET", tt.secret)

			env, err := Get()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if env.TICKET_SECRET != tt.want {
				t.Errorf("TICKET_SECRET = %q, want %q", env.TICKET_SECRET, tt.want)
			}
		})
	}
}
