/**
 * @description
 * This is the main entry point for the deposit notification service. Its role
 * is to start an HTTP server that authenticates inbound deposit callbacks
 * from the payment partner, suppresses duplicate deliveries, and broadcasts
 * accepted deposits to connected dashboard clients in real time.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Optionally mirrors deposit events to a RabbitMQ exchange when a broker
 *   URL is configured.
 * - Sets up an HTTP router (`chi`) to direct webhook traffic to the handler.
 * - Implements graceful shutdown to ensure clean resource cleanup on
 *   termination.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go HTTP services.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - The service's internal packages for config, processing, and real-time delivery.
 */
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Smsoft007/ezpg-sub001/internal/api"
	"github.com/Smsoft007/ezpg-sub001/internal/app"
	"github.com/Smsoft007/ezpg-sub001/internal/config"
	"github.com/Smsoft007/ezpg-sub001/internal/realtime"
	"github.com/Smsoft007/ezpg-sub001/internal/store"
	"github.com/Smsoft007/ezpg-sub001/internal/telemetry"
	"github.com/Smsoft007/ezpg-sub001/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger, err := telemetry.NewLogger("deposit-notification-service")
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.HasMerchantSecrets() {
		logger.Warn("MKEY_SECRET/MID_SECRET not fully configured; every notification will be rejected",
			telemetry.Category(telemetry.CategorySystem))
	}

	// Real-time delivery: the in-process hub always runs; the RabbitMQ bridge
	// is attached only when a broker is configured. A broker that is down at
	// startup is logged, not fatal.
	hub := realtime.NewHub(0, logger)
	publishers := realtime.Fanout{hub}
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.DepositEventExchange)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ, continuing without broker bridge",
				telemetry.Category(telemetry.CategorySystem),
				zap.Error(err))
		} else {
			defer producer.Close()
			publishers = append(publishers, producer)
			logger.Info("RabbitMQ bridge connected",
				telemetry.Category(telemetry.CategorySystem),
				zap.String("exchange", cfg.DepositEventExchange))
		}
	}

	cache := store.NewTxCache(cfg.TxCacheSize)
	service := app.NewService(cfg.MKeySecret, cfg.MIDSecret, cache, publishers, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := api.NewMetrics(registry)

	handlers := api.NewDepositHandlers(service, hub, logger, metrics)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Routes(handlers, registry),
	}

	go func() {
		logger.Info("server starting",
			telemetry.Category(telemetry.CategorySystem),
			zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	// Graceful shutdown logic.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server", telemetry.Category(telemetry.CategorySystem))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}

	logger.Info("server gracefully stopped", telemetry.Category(telemetry.CategorySystem))
}
