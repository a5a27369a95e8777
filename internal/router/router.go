package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skolahub/skola-api/internal/config"
	"github.com/skolahub/skola-api/internal/handler"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	StudentHandler        *handler.StudentHandler
	ClassHandler          *handler.ClassHandler
	SubjectHandler        *handler.SubjectHandler
	AssignmentHandler     *handler.AssignmentHandler
	SubmissionHandler     *handler.SubmissionHandler
	AnnouncementHandler   *handler.AnnouncementHandler
	EventHandler          *handler.EventHandler
	ResourceHandler       *handler.ResourceHandler
	ContentHandler        *handler.ContentHandler
	NotificationHandler   *handler.NotificationHandler
	AnalyticsHandler      *handler.AnalyticsHandler
	ActivityHandler       *handler.ActivityHandler
	DataProtectionHandler *handler.DataProtectionHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth"))
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	readWrite := middleware.RateLimitReadWrite()

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware, readWrite))
	}

	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware, readWrite))
	}

	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(api.Group("/subjects", jwtMiddleware, readWrite))
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignments", jwtMiddleware, readWrite))
	}

	// Submission traffic carries its own budget so a burst of turn-ins
	// cannot starve the rest of the API for a student.
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware, middleware.RateLimit("submissions")))
	}

	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.Register(api.Group("/announcements", jwtMiddleware, readWrite))
	}

	if deps.EventHandler != nil {
		deps.EventHandler.Register(api.Group("/events", jwtMiddleware, readWrite))
	}

	// Resource routes attach their own budgets so uploads stay on the
	// tight upload rule instead of the shared group rule.
	if deps.ResourceHandler != nil {
		deps.ResourceHandler.Register(api.Group("/resources", jwtMiddleware))
	}

	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(api.Group("/content/pages", jwtMiddleware, readWrite))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware, middleware.RateLimit("reads")))
	}

	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", jwtMiddleware, middleware.RateLimit("reads")))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", jwtMiddleware, middleware.RateLimit("reads")))
	}

	if deps.DataProtectionHandler != nil {
		deps.DataProtectionHandler.Register(api.Group("/data-protection", jwtMiddleware, middleware.RateLimit("writes")))
	}
}
