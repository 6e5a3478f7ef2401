package database

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSeederRunLogsThroughInjectedLogger(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	core, logs := observer.New(zapcore.InfoLevel)
	// the admin seed returns before touching the database when unconfigured
	seeder := NewSeeder(nil, zap.New(core))

	if err := seeder.Run([]string{"admin"}); err != nil {
		t.Fatalf("Run(admin) failed: %v", err)
	}

	want := []string{"seeding database", "ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin user", "seeding completed"}
	entries := logs.AllUntimed()
	if len(entries) != len(want) {
		t.Fatalf("got %d log entries, want %d: %v", len(entries), len(want), entries)
	}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("skip entry level = %v, want warn", entries[1].Level)
	}
}

func TestSeederRunUnknownStep(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	seeder := NewSeeder(nil, zap.New(core))

	if err := seeder.Run([]string{"admin", "bogus"}); err == nil {
		t.Fatal("expected error for unknown seed")
	}
	if logs.Len() != 0 {
		t.Errorf("unknown seed should fail before logging, got %d entries", logs.Len())
	}
}

func TestStepNames(t *testing.T) {
	names := NewSeeder(nil, zap.NewNop()).StepNames()
	want := []string{"admin", "counselors", "students", "referral-units", "categories", "schedules"}
	if len(names) != len(want) {
		t.Fatalf("StepNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, names[i], want[i])
		}
	}
}
