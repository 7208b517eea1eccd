package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/database"
	"github.com/kku-mis/course-registration/internal/handlers"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/jobs"
	"github.com/kku-mis/course-registration/internal/logging"
	"github.com/kku-mis/course-registration/internal/middleware"
	"github.com/kku-mis/course-registration/internal/routes"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	config.LoadDotEnv()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" && cfg.Environment == "production" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	logging.Install(pgLogHandler)

	// Token revocation list: Redis when configured, in-process otherwise
	var redisClient *redis.Client
	var revoked identity.RevocationList = identity.NewMemoryRevocationList()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		revoked = identity.NewRedisRevocationList(redisClient)
		slog.Info("redis revocation list enabled")
	} else {
		slog.Warn("REDIS_URL not set, revoked tokens are tracked in memory")
	}

	provider := identity.NewLocalProvider(database.DB, identity.LocalConfig{
		Secret:        cfg.JWTSecret,
		AccessExpiry:  cfg.JWTAccessExpiry,
		RefreshExpiry: cfg.JWTRefreshExpiry,
	}, revoked)

	// Services
	reconciler := services.NewReconciler(database.DB, provider, cfg.CleanupVerifyAttempts)
	accountService := services.NewAccountService(database.DB, provider, reconciler, cfg.EmailDomain)
	notificationService := services.NewNotificationService(database.DB)
	registrationService := services.NewRegistrationService(database.DB, cfg.ResubmitPolicy)
	approvalService := services.NewApprovalService(database.DB, notificationService, cfg.DefaultLanguage)
	statsService := services.NewStatsService(database.DB, registrationService, notificationService)

	// Scheduled jobs
	scheduler := jobs.NewScheduler(database.DB, accountService, cfg.OrphanSweepSchedule, cfg.LogRetentionDays)
	if err := scheduler.Start(); err != nil {
		slog.Error("cron setup failed", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, provider, accountService, routes.Handlers{
		Auth:         handlers.NewAuthHandler(accountService),
		Health:       handlers.NewHealthHandler(database.DB, redisClient),
		Course:       handlers.NewCourseHandler(services.NewCourseService(database.DB)),
		Student:      handlers.NewStudentHandler(services.NewStudentService(database.DB)),
		Registration: handlers.NewRegistrationHandler(registrationService, approvalService, statsService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Admin:        handlers.NewAdminHandler(accountService, statsService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	scheduler.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
