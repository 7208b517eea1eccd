package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/handlers"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/middleware"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Course       *handlers.CourseHandler
	Student      *handlers.StudentHandler
	Registration *handlers.RegistrationHandler
	Notification *handlers.NotificationHandler
	Admin        *handlers.AdminHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	provider identity.Provider,
	users middleware.UserResolver,
	h Handlers,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth: stricter 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/cleanup-orphan", h.Auth.CleanupOrphan)
	auth.Post("/logout", middleware.JWTProtected(cfg), h.Auth.Logout)

	// Everything below needs a live session with a user row behind it.
	protected := []fiber.Handler{
		middleware.JWTProtected(cfg),
		middleware.RequireUser(provider, users),
		middleware.Language(cfg.DefaultLanguage),
	}
	staff := middleware.RequireRole(cfg, models.RoleAdvisor, models.RoleAdmin)
	adminOnly := middleware.RequireRole(cfg, models.RoleAdmin)

	courses := api.Group("/courses", protected...)
	courses.Get("/", h.Course.List)
	courses.Get("/:id", h.Course.Get)

	students := api.Group("/students", protected...)
	students.Get("/:id", h.Student.Get)
	students.Put("/:id", h.Student.Update)
	students.Get("/:id/dashboard", h.Student.Dashboard)

	registrations := api.Group("/registrations", protected...)
	registrations.Get("/", h.Registration.ListMine)
	registrations.Post("/", middleware.RequireRole(cfg, models.RoleStudent), h.Registration.Submit)

	notifications := api.Group("/notifications", protected...)
	notifications.Get("/", h.Notification.List)
	notifications.Put("/read-all", h.Notification.MarkAllRead)
	notifications.Put("/:id/read", h.Notification.MarkRead)
	notifications.Post("/", adminOnly, h.Notification.Create)

	supervisor := api.Group("/supervisor", append(protected, staff)...)
	supervisor.Get("/requests", h.Registration.List)
	supervisor.Put("/requests/:id", h.Registration.Resolve)
	supervisor.Get("/stats", h.Registration.SupervisorStats)
	supervisor.Get("/notifications", h.Registration.SupervisorNotifications)

	admin := api.Group("/admin", append(protected, adminOnly)...)
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/users", h.Admin.Users)
	admin.Get("/students", h.Admin.Students)
	admin.Delete("/users/:id", h.Admin.DeleteUser)
	admin.Post("/orphans/sweep", h.Admin.SweepOrphans)
}
