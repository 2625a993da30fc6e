package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"github.com/sirupsen/logrus"

	_ "framegrab/docs"
	"framegrab/internal/identity"
	"framegrab/middleware"
)

// AppConfig carries the HTTP settings NewApp needs.
type AppConfig struct {
	CORSOrigins string
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *ApplicationHandler, resolver identity.Resolver, log *logrus.Logger, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "framegrab",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(log),
	})

	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", h.Health)
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := app.Group("/api", middleware.Identity(resolver, log))
	api.Post("/submit", h.SubmitJob)
	api.Get("/status", h.GetStatus)
	api.Get("/download", h.DownloadFrame)

	// API v1 routes
	apiV1 := api.Group("/v1")
	apiV1.Post("/jobs", h.SubmitJob)
	apiV1.Get("/jobs/:jobId", h.GetJob)

	return app
}
