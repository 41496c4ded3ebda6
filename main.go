package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ninma/config"
	"ninma/database"
	"ninma/middleware"
	"ninma/routers"
	"ninma/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// bodyLimitSlack leaves room for multipart framing on top of the upload cap.
const bodyLimitSlack = 1024 * 1024

func main() {
	config.LoadConfig()
	database.ConnectDb()
	cfg := config.AppConfig
	db := database.Database.Db

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             int(cfg.MaxUploadSize) + bodyLimitSlack,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return middleware.JsonResponse(c, e.Code, false, e.Message, nil)
			}
			log.Printf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Erro interno do servidor!", nil)
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: cfg.CORSAllowOrigins != "*",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Uploaded papers
	app.Static("/uploads", filepath.Join(cfg.PublicDir, "uploads"))

	routers.SetupRoutes(app, db, cfg)

	if cfg.SchedulerEnabled {
		scheduler, err := utils.InitializeEventScheduler(db, cfg.SchedulerSpec)
		if err != nil {
			log.Fatalf("Failed to start event scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
