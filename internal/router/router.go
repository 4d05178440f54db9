package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tallyrus/pergi-api/internal/config"
	"github.com/tallyrus/pergi-api/internal/handler"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TemplateHandler   *handler.TemplateHandler
	ClassroomHandler  *handler.ClassroomHandler
	AssignmentHandler *handler.AssignmentHandler
	FilesHandler      *handler.FilesHandler
	OpenAIHandler     *handler.OpenAIHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.TemplateHandler != nil {
		templates := api.Group("/templates", jwtMiddleware)
		deps.TemplateHandler.Register(templates)
	}

	if deps.ClassroomHandler != nil {
		classrooms := api.Group("/classrooms", jwtMiddleware)
		deps.ClassroomHandler.Register(classrooms)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.FilesHandler != nil {
		files := api.Group("/files", jwtMiddleware)
		files.Use(middleware.RateLimit("files", 20, time.Minute))
		deps.FilesHandler.Register(files)
	}

	if deps.OpenAIHandler != nil {
		openai := api.Group("/openai", jwtMiddleware)
		openai.Use(middleware.RateLimit("openai", 30, time.Minute))
		deps.OpenAIHandler.Register(openai)
	}
}
