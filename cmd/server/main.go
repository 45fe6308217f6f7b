package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/config"
	"github.com/example/horeca/internal/database"
	"github.com/example/horeca/internal/handlers"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/routes"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var store cache.Store = cache.NewMemory()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r, err := cache.NewRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, using in-process cache and sessions", "error", err)
		} else {
			defer r.Close()
			store = r
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "HoReCa Storefront API",
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    12 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())
	app.Use(middleware.Deadline(cfg.RequestTimeout))

	routes.Register(app, db, store, cfg, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Error("fiber.Listen error", "error", err)
		os.Exit(1)
	}
}
