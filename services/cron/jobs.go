package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mindbridge/counsel-api/model"
)

const (
	cronLogRetention  = 30 * 24 * time.Hour
	auditLogRetention = 180 * 24 * time.Hour
)

// PurgeTokens deletes inactive and expired auth tokens of every realm
func (m *CronManager) PurgeTokens(ctx context.Context) (string, error) {
	var total int64
	for _, store := range m.jobs.Tokens {
		n, err := store.PurgeExpired(ctx)
		if err != nil {
			return "", err
		}
		total += n
	}
	return fmt.Sprintf("removed %d tokens", total), nil
}

// PurgeVerifications deletes redeemed or expired codes and captchas
func (m *CronManager) PurgeVerifications(ctx context.Context) (string, error) {
	if m.jobs.Verifications == nil {
		return "skipped", nil
	}
	n, err := m.jobs.Verifications.PurgeExpired(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("removed %d codes and captchas", n), nil
}

// RefreshConsultationCounts recomputes each counselor's completed consultations
func (m *CronManager) RefreshConsultationCounts(ctx context.Context) (string, error) {
	if m.jobs.Counts == nil {
		return "skipped", nil
	}
	n, err := m.jobs.Counts.RefreshConsultationCounts(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %d profiles", n), nil
}

// CleanupOldData removes job and audit logs past retention
func (m *CronManager) CleanupOldData(ctx context.Context) (string, error) {
	now := time.Now()

	jobs := m.db.WithContext(ctx).
		Where("created_at < ?", now.Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if jobs.Error != nil {
		return "", fmt.Errorf("failed to clean cron logs: %w", jobs.Error)
	}

	audits := m.db.WithContext(ctx).
		Where("created_at < ?", now.Add(-auditLogRetention)).
		Delete(&model.AdminAuditLog{})
	if audits.Error != nil {
		return "", fmt.Errorf("failed to clean audit logs: %w", audits.Error)
	}

	return fmt.Sprintf("removed %d cron logs, %d audit logs", jobs.RowsAffected, audits.RowsAffected), nil
}
