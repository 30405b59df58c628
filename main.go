package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/server"
	"orderdesk/internal/services"
	"orderdesk/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// --- Storage ---
	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageDriver, err)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			log.Printf("Warning: order events disabled: %v", err)
		} else {
			publisher = mqClient
		}
	}

	// --- Services ---
	authService := services.NewAuthService(store.Admins, cfg.JWTSecret, cfg.TokenTTL)
	orderService := services.NewOrderService(store.Orders, publisher, cfg.MaxImageBytes)

	if err := authService.EnsureDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword); err != nil {
		log.Fatalf("Failed to create default admin: %v", err)
	}

	// --- HTTP ---
	app := server.New(server.Deps{
		AuthService:  authService,
		OrderService: orderService,
		StaticDir:    cfg.StaticDir,
		CORSOrigins:  cfg.CORSOrigins,
		BodyLimit:    cfg.BodyLimit,
		AccessLog:    true,
	})

	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	log.Println("Server gracefully stopped")
}
