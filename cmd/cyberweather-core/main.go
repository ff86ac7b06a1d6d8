package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	httpapi "github.com/Pangu-Immortal/cyberweather-core/internal/api/http"
	"github.com/Pangu-Immortal/cyberweather-core/internal/config"
	"github.com/Pangu-Immortal/cyberweather-core/internal/scheduler"
	"github.com/Pangu-Immortal/cyberweather-core/internal/store"
	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
	"github.com/Pangu-Immortal/cyberweather-core/internal/weather/providers"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	clock := clockwork.NewRealClock()

	// Providers in fallback order; the service sorts them by priority.
	provs := []weather.Provider{
		providers.NewOpenMeteoProvider(httpClient, clock),
		providers.NewVisualCrossingProvider(httpClient, cfg.VisualCrossingAPIKey, clock),
		providers.NewSojsonProvider(httpClient, clock),
	}

	cache := store.NewSnapshotCache(cfg.CacheTTL, cfg.CacheMaxEntries)
	circuit := weather.NewCircuitTracker(cfg.CircuitCooldown)

	service := weather.NewService(cache, circuit, provs, clock, log)

	// Background refresh for tracked locations.
	sched := scheduler.New(cfg.Locations, cfg.RefreshInterval, service, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "cyberweather-core",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "cyberweather-core",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
