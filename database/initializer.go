package database

import (
	"fmt"

	"go.uber.org/zap"
)

// tableCheck is a CHECK constraint AutoMigrate cannot express
type tableCheck struct {
	table string
	name  string
	expr  string
}

var tableChecks = []tableCheck{
	{"cancellations", "chk_cancellations_range", "cancel_end > cancel_start"},
	{"schedules", "chk_schedules_window", "end_time > start_time"},
	{"schedules", "chk_schedules_max_appointments", "max_appointments >= 0"},
	{"interview_assessments", "chk_interviews_count", "interview_count >= 1"},
	{"reviews", "chk_reviews_rating", "rating BETWEEN 1 AND 5"},
	{"banners", "chk_banners_carousel", "carousel_count >= 0"},
}

// ApplyConstraints adds the CHECK constraints idempotently
func (s *GORMStore) ApplyConstraints() error {
	for _, chk := range tableChecks {
		query := fmt.Sprintf(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
				ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
			END IF;
		END $$;
		`, chk.name, chk.table, chk.name, chk.expr)

		if err := s.db.Exec(query).Error; err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	s.log.Info("check constraints applied", zap.Int("count", len(tableChecks)))
	return nil
}
