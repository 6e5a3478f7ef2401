package database

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns *gorm.DB for GORMStore
	GetDB() interface{}
}

// StatsStore runs the hand-written reporting queries over lib/pq
type StatsStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

// StartStats opens the reporting connection
func StartStats(dsn string, log *zap.Logger) (*StatsStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Error("unable to open reporting connection", zap.Error(err))
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	log.Info("reporting connection ready")
	return &StatsStore{db: db, log: log}, nil
}

// NewStatsStore wraps an existing sqlx handle and logs nowhere
func NewStatsStore(db *sqlx.DB) *StatsStore {
	return &StatsStore{db: db, log: zap.NewNop()}
}

func (s *StatsStore) Close() error {
	s.log.Info("closing reporting connection")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *StatsStore) HealthCheck() error {
	return s.db.Ping()
}
