package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

// Requires RUN_INTEGRATION_TESTS=true and a migrated TEST_DATABASE_DSN
func openStats(t *testing.T) *StatsStore {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	stats := NewStatsStore(db)
	t.Cleanup(func() { stats.Close() })
	return stats
}

func TestStatsQueriesOnEmptyCounselor(t *testing.T) {
	stats := openStats(t)
	ctx := context.Background()
	// no counselor has this id, so every aggregate is zero
	const nobody = 1 << 30

	if err := stats.HealthCheck(); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}

	tx, err := stats.TodayTransactions(ctx, nobody, time.Now())
	if err != nil {
		t.Fatalf("TodayTransactions failed: %v", err)
	}
	if tx.Count != 0 || tx.Amount != 0 {
		t.Errorf("transactions = %+v, want zero", tx)
	}

	split, err := stats.CategoryData(ctx, nobody)
	if err != nil {
		t.Fatalf("CategoryData failed: %v", err)
	}
	if split.Online != 0 || split.Offline != 0 {
		t.Errorf("category split = %+v, want zero", split)
	}

	yearly, err := stats.YearlyConsultations(ctx, nobody, time.Now().Year())
	if err != nil {
		t.Fatalf("YearlyConsultations failed: %v", err)
	}
	if yearly.Total != 0 {
		t.Errorf("yearly total = %d, want 0", yearly.Total)
	}

	ages, err := stats.AgeData(ctx, nobody)
	if err != nil {
		t.Fatalf("AgeData failed: %v", err)
	}
	if len(ages.Labels) != len(AgeBuckets) {
		t.Errorf("age labels = %v", ages.Labels)
	}

	if _, err := stats.RefreshConsultationCounts(ctx); err != nil {
		t.Errorf("RefreshConsultationCounts failed: %v", err)
	}
}
