// Package server assembles the Fiber application: middleware, the REST API
// and the optional single-page frontend.
package server

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"orderdesk/internal/handlers"
	"orderdesk/internal/middleware"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Deps are the collaborators and settings the HTTP host needs.
type Deps struct {
	AuthService  *services.AuthService
	OrderService *services.OrderService

	// StaticDir, when set, is served at / with index.html as the fallback
	// for unknown non-API paths.
	StaticDir   string
	CORSOrigins string
	BodyLimit   int
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// New builds the Fiber app with every route registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "orderdesk",
		BodyLimit:    deps.BodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-Total-Count",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	handlers.NewAuthHandler(deps.AuthService).RegisterRoutes(api)

	handlers.NewOrderHandler(deps.OrderService).RegisterRoutes(api, middleware.AuthRequired(deps.AuthService))

	// Unknown API paths get a JSON 404 whether or not a token was sent.
	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
		})
	})

	if deps.StaticDir != "" {
		app.Static("/", deps.StaticDir)
		index := filepath.Join(deps.StaticDir, "index.html")
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Next()
			}
			return c.SendFile(index)
		})
	}

	return app
}

// errorHandler renders framework errors, such as an oversized body, in the
// same JSON shape the handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(code).JSON(fiber.Map{
			"message": "Server error",
			"error":   err.Error(),
		})
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
	})
}
