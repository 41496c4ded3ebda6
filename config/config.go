package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBLogLevel string

	PublicDir     string
	UploadDir     string
	MaxUploadSize int64 // bytes
	PublicBaseURL string

	EmailSender     string
	EmailSenderName string
	SendGridAPIKey  string

	QRSigningSecret string

	SchedulerEnabled bool
	SchedulerSpec    string

	CORSAllowOrigins string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ninma"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBLogLevel: strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),

		PublicDir:     getEnv("PUBLIC_DIR", "./public"),
		UploadDir:     getEnv("UPLOAD_DIR", "./public/uploads/submissions"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_MB", 10)) * 1024 * 1024,
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		EmailSender:     getEnv("EMAIL_SENDER", "no-reply@ninma.local"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "NINMA Eventos"),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),

		QRSigningSecret: getEnv("QR_SIGNING_SECRET", ""),

		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerSpec:    getEnv("SCHEDULER_SPEC", "*/15 * * * *"),

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.QRSigningSecret == "" {
		log.Println("Warning: QR_SIGNING_SECRET is empty. Check-in QR codes will not be signed.")
	}
	if AppConfig.SendGridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY is empty. Emails will only be logged.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
