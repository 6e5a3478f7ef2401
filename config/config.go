package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Login tokens
	TOKEN_TTL_HOURS int
	// Download tickets
	TICKET_SECRET string
	TICKET_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// SMTP Configuration
	SMTP_HOST  string
	SMTP_PORT  int
	SMTP_USER  string
	SMTP_PASS  string
	EMAIL_FROM string
	// Kafka Configuration
	KAFKA_BROKERS      []string
	KAFKA_TOPIC_PREFIX string
	// File storage
	STORAGE_DRIVER     string
	STORAGE_LOCAL_DIR  string
	S3_BUCKET          string
	S3_REGION          string
	S3_ENDPOINT        string
	S3_ACCESS_KEY      string
	S3_SECRET_KEY      string
	S3_PUBLIC_BASE_URL string
	// Reports
	REPORT_FONT_PATH string
	// HTTP
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
	// Seed admin
	ADMIN_EMAIL    string
	ADMIN_PASSWORD string
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// DSN returns the PostgreSQL connection string shared by GORM and sqlx
func (e *EnviornmentVariable) DSN() string {
	sslMode := e.DB_SSL_MODE
	if sslMode == "" {
		sslMode = "disable"
	}
	return "host=" + e.DB_HOST +
		" user=" + e.DB_USER_NAME +
		" password=" + e.DB_PASSWORD +
		" dbname=" + e.DB_NAME +
		" port=" + e.DB_PORT +
		" sslmode=" + sslMode +
		" TimeZone=UTC"
}

// ErrMissingTicketSecret is returned in production when TICKET_SECRET is empty
var ErrMissingTicketSecret = errors.New("TICKET_SECRET environment variable is not set")

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	tokenTTL, err := strconv.Atoi(os.Getenv("TOKEN_TTL_HOURS"))
	if err != nil || tokenTTL <= 0 {
		tokenTTL = 168
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587
	}

	var brokers []string
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// Tokens
		TOKEN_TTL_HOURS: tokenTTL,
		TICKET_SECRET:   os.Getenv("TICKET_SECRET"),
		TICKET_ISSUER:   getEnvOrDefault("TICKET_ISSUER", "counsel-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// SMTP
		SMTP_HOST:  getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTP_PORT:  smtpPort,
		SMTP_USER:  os.Getenv("SMTP_USER"),
		SMTP_PASS:  os.Getenv("SMTP_PASS"),
		EMAIL_FROM: os.Getenv("EMAIL_FROM"),
		// Kafka
		KAFKA_BROKERS:      brokers,
		KAFKA_TOPIC_PREFIX: getEnvOrDefault("KAFKA_TOPIC_PREFIX", "counsel"),
		// Storage
		STORAGE_DRIVER:     getEnvOrDefault("STORAGE_DRIVER", "local"),
		STORAGE_LOCAL_DIR:  getEnvOrDefault("STORAGE_LOCAL_DIR", "static"),
		S3_BUCKET:          os.Getenv("S3_BUCKET"),
		S3_REGION:          getEnvOrDefault("S3_REGION", "us-east-1"),
		S3_ENDPOINT:        os.Getenv("S3_ENDPOINT"),
		S3_ACCESS_KEY:      os.Getenv("S3_ACCESS_KEY"),
		S3_SECRET_KEY:      os.Getenv("S3_SECRET_KEY"),
		S3_PUBLIC_BASE_URL: os.Getenv("S3_PUBLIC_BASE_URL"),
		// Reports
		REPORT_FONT_PATH: os.Getenv("REPORT_FONT_PATH"),
		// HTTP
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "*"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false",
		// Seed
		ADMIN_EMAIL:    os.Getenv("ADMIN_EMAIL"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
	}

	if envVariables.TICKET_SECRET == "" {
		if envVariables.IsProduction() {
			return nil, ErrMissingTicketSecret
		}
		envVariables.TICKET_SECRET = "dev-ticket-secret"
	}

	return envVariables, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
