package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/spray-advisory/internal/api/http"
	"github.com/i474232898/spray-advisory/internal/app"
	"github.com/i474232898/spray-advisory/internal/config"
	"github.com/i474232898/spray-advisory/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	components, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build components: %v", err)
	}

	// Keeps configured postcodes warm in the weather cache.
	sched := scheduler.New(cfg.WarmPostcodes, cfg.WarmInterval, components.Weather)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	server := fiber.New(fiber.Config{
		AppName:               "spray-advisory",
		DisableStartupMessage: true,
		Immutable:             true, // query values outlive the request as cache keys
		ReadTimeout:           10 * time.Second,
		// Outbound calls may take a full HTTP_TIMEOUT per provider.
		WriteTimeout: 10*time.Second + 4*cfg.HTTPTimeout,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "spray-advisory",
		})
	})

	httpapi.RegisterRoutes(server, components.Engine)

	go func() {
		log.Printf("INFO: listening on :%s\n", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
