package cron

import (
	"context"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Purger removes rows that can no longer be used
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CountRefresher recomputes denormalized consultation counters
type CountRefresher interface {
	RefreshConsultationCounts(ctx context.Context) (int64, error)
}

// Jobs are the collaborators the scheduled jobs act on. Nil entries are skipped.
type Jobs struct {
	Tokens        []Purger
	Verifications Purger
	Counts        CountRefresher
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	jobs   Jobs
	logger *zap.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, jobs Jobs, logger *zap.Logger) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:   c,
		db:     db,
		jobs:   jobs,
		logger: logger.Named("cron"),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.logger.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()
	m.logger.Info("cron jobs started")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	m.logger.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	schedule := []struct {
		spec string
		name string
		run  func(context.Context) (string, error)
	}{
		// every 10 minutes
		{"0 */10 * * * *", "purge_verifications", m.PurgeVerifications},
		{"0 5 * * * *", "purge_tokens", m.PurgeTokens},
		{"0 0 3 * * *", "refresh_consultation_counts", m.RefreshConsultationCounts},
		{"0 0 2 * * *", "cleanup_old_data", m.CleanupOldData},
	}

	for _, job := range schedule {
		job := job
		if _, err := m.cron.AddFunc(job.spec, func() { m.run(job.name, job.run) }); err != nil {
			return err
		}
	}

	m.logger.Info("all cron jobs registered", zap.Int("count", len(schedule)))
	return nil
}

// run executes one job and records it in cron_job_logs
func (m *CronManager) run(jobName string, fn func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entry := m.logJobStart(jobName)
	message, err := fn(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.logger.Info("job started", zap.String("job", jobName))

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		m.logger.Warn("failed to record job start", zap.String("job", jobName), zap.Error(err))
	}
	return entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	m.logger.Info("job completed", zap.String("job", entry.JobName), zap.String("result", message))
	m.finish(entry, "completed", message, "")
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	m.logger.Error("job failed", zap.String("job", entry.JobName), zap.Error(err))
	m.finish(entry, "failed", "", err.Error())
}

func (m *CronManager) finish(entry *model.CronJobLog, status, message, errMsg string) {
	if entry.ID == 0 {
		return
	}
	now := time.Now()
	m.db.Model(entry).Updates(map[string]interface{}{
		"status":       status,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"message":      message,
		"error_msg":    errMsg,
	})
}
