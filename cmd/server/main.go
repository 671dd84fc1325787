package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/handler"
	"github.com/game-leaderboard/internal/kafka"
	"github.com/game-leaderboard/internal/postgres"
	"github.com/game-leaderboard/internal/redis"
	"github.com/game-leaderboard/internal/service"
	"github.com/game-leaderboard/internal/store"
	"github.com/game-leaderboard/internal/websocket"
	"github.com/game-leaderboard/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load .env so that ${VAR} references in the config file resolve
	envErr := godotenv.Load()

	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", envErr)
	}
	if cfgErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", cfgErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until a shutdown signal arrives
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	leaderboardService := service.NewLeaderboardService(store.NewMemory(), logger)

	// Event archive
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		archive, err := postgres.NewArchive(ctx, &cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		defer archive.Close()

		if err := archive.RunMigrations(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		leaderboardService.SetArchive(archive)
		logger.Info("event archive enabled")
	}

	// Live feed
	var wsHub *websocket.Hub
	if cfg.WebSocket.Enabled {
		wsHub = websocket.NewHub(logger)
		go wsHub.Run()
		defer wsHub.Stop()
		leaderboardService.SetHub(wsHub)
		logger.Info("WebSocket hub initialized")
	}

	// Leaderboard mirror
	var snapshotWorker *worker.SnapshotWorker
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		mirror, err := redis.NewMirror(&cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("connecting to Redis: %w", err)
		}
		defer mirror.Close()

		snapshotWorker = worker.NewSnapshotWorker(leaderboardService, mirror, &cfg.Snapshot, logger)
		if cfg.Snapshot.Enabled {
			if err := snapshotWorker.Start(ctx); err != nil {
				return fmt.Errorf("starting snapshot worker: %w", err)
			}
		}
	}

	httpHandler := handler.NewHandler(leaderboardService, wsHub, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Kafka score ingestion, started once the API is being served
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		kafkaConsumer = startKafka(cfg, leaderboardService, logger)
	}

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down server...")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if snapshotWorker != nil {
		if err := snapshotWorker.Stop(); err != nil {
			logger.Error("failed to stop snapshot worker", "error", err)
		}
		// Leave the mirror with the final standings
		if err := snapshotWorker.RunOnce(shutdownCtx); err != nil {
			logger.Warn("failed to publish final snapshot", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
	return runErr
}

// startKafka starts the score consumer. A consumer that cannot start is
// released and the service continues without Kafka.
func startKafka(cfg *config.Config, scores kafka.ScoreHandler, logger *slog.Logger) *kafka.Consumer {
	logger.Info("initializing Kafka consumer",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
	)

	consumer, err := kafka.NewConsumer(&cfg.Kafka, scores, logger)
	if err != nil {
		logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		return nil
	}
	if err := consumer.Start(); err != nil {
		logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
		if err := consumer.Stop(); err != nil {
			logger.Warn("failed to release Kafka consumer", "error", err)
		}
		return nil
	}

	logger.Info("Kafka consumer started successfully")
	return consumer
}
