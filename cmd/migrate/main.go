// Command migrate creates or updates every table and CHECK constraint,
// then verifies the connection.
package main

import (
	"fmt"
	"os"

	"github.com/mindbridge/counsel-api/config"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/utils/logger"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: .env file not found, using system environment variables")
	}
	log := logger.New(os.Getenv("GO_ENV"))
	defer log.Sync()

	store, err := database.StartGORM(log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := store.HealthCheck(); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}

	log.Info("migration finished", zap.Int("tables", len(database.Models())))
}
