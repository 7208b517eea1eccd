package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ResubmitBlockAll            = "block_all"
	ResubmitAllowAfterRejection = "allow_after_rejection"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity tokens
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Redis backs the token revocation list; empty keeps it in memory.
	RedisURL string

	// Registration policy
	EmailDomain           string
	ResubmitPolicy        string
	CleanupVerifyAttempts int
	DefaultLanguage       string

	// Jobs
	OrphanSweepSchedule string
	LogRetentionDays    int

	// Admin
	AdminEmails string

	// Server
	Environment string
	Port        string
	CORSOrigins string
	SentryDSN   string
}

// LoadDotEnv loads a .env file when not running in production. A missing file
// is not an error.
func LoadDotEnv() {
	if os.Getenv("ENVIRONMENT") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "kku_registration"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h"), time.Hour),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		RedisURL: getEnv("REDIS_URL", ""),

		EmailDomain:           getEnv("EMAIL_DOMAIN", "@kku.edu.sa"),
		ResubmitPolicy:        parsePolicy(getEnv("RESUBMIT_POLICY", ResubmitBlockAll)),
		CleanupVerifyAttempts: parseInt(getEnv("CLEANUP_VERIFY_ATTEMPTS", "1"), 1),
		DefaultLanguage:       getEnv("DEFAULT_LANGUAGE", "ar"),

		OrphanSweepSchedule: lookupEnv("ORPHAN_SWEEP_SCHEDULE", "0 0 3 * * *"),
		LogRetentionDays:    parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// lookupEnv returns fallback only when key is unset, so an explicitly empty
// value survives.
func lookupEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parsePolicy(s string) string {
	if s == ResubmitAllowAfterRejection {
		return s
	}
	return ResubmitBlockAll
}
