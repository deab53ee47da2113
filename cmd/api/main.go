package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go-inventory-ledger/internal/app"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/config"
	applogger "go-inventory-ledger/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := applogger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup WebSocket Hub and event publishers
	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run(ctx)

	notifier := events.Multi{wsHub}
	var kafka *events.KafkaPublisher
	if cfg.KafkaBrokers != "" {
		kafka = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, zlog.Named("kafka"))
		notifier = append(notifier, kafka)
		zlog.Info("Kafka publishing enabled", zap.String("topic", cfg.KafkaTopic))
	}

	// 3. Setup Database and services
	opts := app.OptionsFromConfig(cfg)
	opts.Notifier = notifier
	inventory, err := app.Open(ctx, opts, zlog)
	if err != nil {
		zlog.Fatal("Failed to open application", zap.Error(err))
	}

	// 4. Setup Fiber
	server := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	// Middleware
	server.Use(logger.New())  // Logging request
	server.Use(recover.New()) // Panic recovery
	server.Use(cors.New())    // CORS

	// 5. Routes
	handler.Register(server, inventory, zlog.Named("http"))

	// WebSocket Route
	server.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	server.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Join(c)
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 6. Graceful Shutdown
	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			zlog.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafka != nil {
		if err := kafka.Close(); err != nil {
			zlog.Warn("Kafka writer close failed", zap.Error(err))
		}
	}
	if err := inventory.Close(); err != nil {
		zlog.Warn("Database close failed", zap.Error(err))
	}
	zlog.Info("Server exited")
}
