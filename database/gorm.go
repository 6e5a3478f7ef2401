package database

import (
	"fmt"
	"time"

	"github.com/mindbridge/counsel-api/config"
	"github.com/mindbridge/counsel-api/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(log *zap.Logger) (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(getEnv.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
		// unique violations come back as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL", zap.Error(err))
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", zap.String("host", getEnv.DB_HOST), zap.String("database", getEnv.DB_NAME))

	return &GORMStore{db: db, log: log}, nil
}

// Models lists every table owned by the service, parents first
func Models() []interface{} {
	return []interface{}{
		// Principals and tokens
		&model.AdminUser{},
		&model.AdminAuthToken{},
		&model.Counselor{},
		&model.CounselorProfile{},
		&model.CounselorAuthToken{},
		&model.VerificationCode{},
		&model.Captcha{},

		// Students and case tracking
		&model.Student{},
		&model.InterviewAssessment{},
		&model.NegativeEvent{},
		&model.ReferralUnit{},
		&model.StudentReferral{},

		// Consultations
		&model.ConsultationRecord{},
		&model.ConsultationSession{},
		&model.Appointment{},
		&model.Review{},
		&model.Schedule{},
		&model.Cancellation{},

		// Content
		&model.Category{},
		&model.Article{},
		&model.Notification{},
		&model.Banner{},

		// Files and operations
		&model.StoredFile{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate", zap.Int("models", len(Models())))

	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := s.ApplyConstraints(); err != nil {
		return fmt.Errorf("failed to apply constraints: %w", err)
	}

	s.log.Info("AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing PostgreSQL connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in repositories/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
