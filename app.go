package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"giftlist/internal/cache"
	"giftlist/internal/config"
	"giftlist/internal/database"
	"giftlist/internal/handlers"
	"giftlist/internal/middleware"
	"giftlist/internal/repositories"
	"giftlist/internal/services"
	"giftlist/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// App bundles the HTTP server with the resources it owns.
type App struct {
	Fiber    *fiber.App
	DB       *gorm.DB
	Catalog  *services.CatalogService
	Registry *services.RegistryService

	cache *cache.ProductCache
	mq    *rabbitmq.Client
}

// NewApp connects to the database and, when configured, to Redis and
// RabbitMQ, then wires services and routes.
func NewApp(cfg config.Config) (*App, error) {
	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: cfg.DatabaseDSN})
	if err != nil {
		return nil, err
	}
	a := &App{DB: db}

	// --- Optional Redis product cache ---
	var productCache services.ProductCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.cache, err = cache.Connect(ctx, cfg.RedisAddr, cfg.CacheTTL)
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		productCache = a.cache
	}

	// --- Optional RabbitMQ publisher ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = a.mq
	}

	// --- Services ---
	store := repositories.NewGORMStore(db)
	a.Catalog = services.NewCatalogService(store, productCache)
	a.Registry = services.NewRegistryService(store, a.Catalog, publisher)

	// --- Fiber ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:request_id} ${status} - ${latency} ${method} ${path}\n",
	}))

	apiV1 := app.Group("/api/v1")
	handlers.NewProductHandler(a.Catalog).RegisterRoutes(apiV1)
	handlers.NewWeddingListHandler(a.Registry).RegisterRoutes(apiV1)
	app.Get("/health", a.handleHealth)

	a.Fiber = app
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
		"cache":    "disabled",
		"rabbitmq": "disabled",
	}
	code := fiber.StatusOK

	if sqlDB, err := a.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status["status"] = "unhealthy"
		status["database"] = "unreachable"
		code = fiber.StatusServiceUnavailable
	}
	if a.cache != nil {
		status["cache"] = "connected"
		if err := a.cache.Ping(c.UserContext()); err != nil {
			status["cache"] = "unreachable"
		}
	}
	if a.mq != nil {
		status["rabbitmq"] = "connected"
	}
	return c.Status(code).JSON(status)
}

// StartEventLog consumes gift events and logs them.
func (a *App) StartEventLog() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeGiftEvents(logPurchaseEvent)
}

// Close shuts the HTTP server down and releases every connection.
func (a *App) Close() error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database close: %w", err))
			}
		}
	}
	if len(errs) > 0 {
		log.Printf("Errors during shutdown: %v", errs)
	}
	return errors.Join(errs...)
}
