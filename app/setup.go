package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindbridge/counsel-api/api"
	"github.com/mindbridge/counsel-api/config"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/router"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/cron"
	"github.com/mindbridge/counsel-api/services/events"
	"github.com/mindbridge/counsel-api/services/filestore"
	"github.com/mindbridge/counsel-api/services/report"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/cache"
	"github.com/mindbridge/counsel-api/utils/logger"
	"github.com/mindbridge/counsel-api/utils/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const staticPrefix = "/static"

// newFileStore picks the storage backend named by STORAGE_DRIVER
func newFileStore(env *config.EnviornmentVariable) (filestore.FileStore, error) {
	if env.STORAGE_DRIVER == "s3" {
		return filestore.NewS3Store(filestore.S3Config{
			AccessKey: env.S3_ACCESS_KEY,
			SecretKey: env.S3_SECRET_KEY,
			Bucket:    env.S3_BUCKET,
			Region:    env.S3_REGION,
			Endpoint:  env.S3_ENDPOINT,
			PublicURL: env.S3_PUBLIC_BASE_URL,
		})
	}
	return filestore.NewLocalStore(env.STORAGE_LOCAL_DIR, staticPrefix)
}

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log := logger.New(getEnv.GO_ENV)
	defer log.Sync()

	// Initialize GORM database connection
	store, err := database.StartGORM(log)
	if err != nil {
		log.Error("check whether Postgres is running", zap.Error(err))
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Error("failed to initialize database tables", zap.Error(err))
		return err
	}
	db := store.GetDB().(*gorm.DB)

	stats, err := database.StartStats(getEnv.DSN(), log)
	if err != nil {
		return err
	}
	defer stats.Close()

	// Brute force protection and send cooldowns need Redis; without it they are skipped
	var bruteForce *middleware.BruteForceProtection
	if redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL); err != nil {
		log.Warn("failed to connect to Redis, brute force protection is disabled", zap.Error(err))
	} else {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	tokenTTL := time.Duration(getEnv.TOKEN_TTL_HOURS) * time.Hour
	adminTokens := auth.NewGormTokenStore(db, "admin_auth_tokens", tokenTTL)
	counselorTokens := auth.NewGormTokenStore(db, "counselor_auth_tokens", tokenTTL)

	email := services.NewEmailService(services.EmailConfig{
		Host:     getEnv.SMTP_HOST,
		Port:     getEnv.SMTP_PORT,
		Username: getEnv.SMTP_USER,
		Password: getEnv.SMTP_PASS,
		From:     getEnv.EMAIL_FROM,
	}, log)
	verification := services.NewVerificationService(db, email, log, !getEnv.IsProduction())

	publisher := events.NewPublisher(getEnv.KAFKA_BROKERS, getEnv.KAFKA_TOPIC_PREFIX, log)
	defer publisher.Close()

	fileStore, err := newFileStore(getEnv)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(db, cron.Jobs{
			Tokens:        []cron.Purger{adminTokens, counselorTokens},
			Verifications: verification,
			Counts:        stats,
		}, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", zap.Error(err))
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
		Logger:            log,
	})

	if local, ok := fileStore.(*filestore.LocalStore); ok {
		app.Static(staticPrefix, local.Root())
	}

	router.SetupRoutes(app, store, router.Services{
		AdminTokens:     adminTokens,
		CounselorTokens: counselorTokens,
		Verification:    verification,
		BruteForce:      bruteForce,
		Appointments:    services.NewAppointmentService(db, publisher, log),
		Records:         services.NewRecordService(db, publisher, log),
		Schedules:       services.NewScheduleService(db),
		Files:           services.NewFileService(db, fileStore, log),
		Stats:           stats,
		Reports:         report.NewGenerator(getEnv.REPORT_FONT_PATH),
		Tickets: auth.NewTicketManager(auth.TicketConfig{
			Secret: getEnv.TICKET_SECRET,
			Issuer: getEnv.TICKET_ISSUER,
		}),
		Logger: log,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	return server.Run()
}
