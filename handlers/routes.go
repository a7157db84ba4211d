package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/middleware"
	"fieldops/api-gateway/utils"

	_ "fieldops/api-gateway/docs" // registers the OpenAPI document served under /swagger
)

// AppOptions configures the HTTP application around an ApplicationHandler.
type AppOptions struct {
	Sessions         session.Provider
	Recorder         middleware.HTTPRecorder // optional
	Metrics          http.Handler            // optional, served on /metrics
	CORSAllowOrigins string
	BodyLimit        int
}

// NewApp builds the Fiber application: middleware, the job API under
// /api/v1, health, metrics and Swagger UI.
func NewApp(h *ApplicationHandler, opts AppOptions) *fiber.App {
	if opts.CORSAllowOrigins == "" {
		opts.CORSAllowOrigins = "*"
	}
	if opts.BodyLimit == 0 {
		opts.BodyLimit = 1 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:      "fieldops-api",
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    opts.BodyLimit,
	})

	// Middleware
	app.Use(middleware.RequestLogger(h.Logger, opts.Recorder))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
	}))

	app.Get("/health", h.HealthCheck)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// API v1 routes
	apiV1 := app.Group("/api/v1", middleware.Session(opts.Sessions, h.Logger))

	jobs := apiV1.Group("/jobs")
	jobs.Get("/:jobId", h.GetJob)
	jobs.Get("/:jobId/history", h.GetJobHistory)
	jobs.Patch("/:jobId/status", h.TransitionJob)
	jobs.Post("/:jobId/complete", h.CompleteJob)

	return app
}
