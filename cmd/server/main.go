package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/makeasinger/mashup/internal/client"
	"github.com/makeasinger/mashup/internal/config"
	"github.com/makeasinger/mashup/internal/deps"
	"github.com/makeasinger/mashup/internal/handler"
	"github.com/makeasinger/mashup/internal/middleware"
	"github.com/makeasinger/mashup/internal/service"
	"github.com/makeasinger/mashup/internal/validation"
	ws "github.com/makeasinger/mashup/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Job status lives in redis when it is reachable
	ctx := context.Background()
	var store service.JobStore
	var limiterClient *redis.Client
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available, keeping job status in memory: %v", err)
		store = service.NewMemoryJobStore()
	} else {
		store = service.NewRedisJobStore(redisClient)
		limiterClient = redisClient
	}

	if !cfg.Mail.IsConfigured() {
		log.Println("Warning: mail sender credentials missing, deliveries will fail")
	}

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// External tools
	source := client.NewYTDLPClient(&cfg.Tools)
	audio := client.NewFFmpegClient(&cfg.Tools)
	mailer := client.NewSMTPClient(&cfg.Mail)

	// Initialize services
	mashupService := service.NewMashupService(&cfg.Mashup, validation.New(), source, audio, mailer, store, hub)

	// Initialize handlers
	mashupHandler := handler.NewMashupHandler(mashupService)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(limiterClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		// a job runs until the email is out
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		services := fiber.Map{
			"redis": limiterClient != nil,
			"mail":  cfg.Mail.IsConfigured(),
		}
		statuses := deps.CheckBinaries(deps.Requirements(&cfg.Tools))
		for _, s := range statuses {
			services[s.Name] = s.Available
		}

		status := "ok"
		if !deps.AllAvailable(statuses) {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":   status,
			"services": services,
		})
	})

	// API routes
	api := app.Group("/api")

	mashup := api.Group("/mashup")
	mashup.Post("/", rateLimiter.MashupLimit(cfg.RateLimit.MashupPerHour), mashupHandler.Create)
	mashup.Get("/status/:jobId", mashupHandler.Status)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
