package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/database"
	"fictures-server/internal/events"
	"fictures-server/internal/messaging"
	"fictures-server/internal/worker"
	"fictures-server/pkg/logger"
)

func main() {
	cfg := config.LoadWorker()

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Generation worker starting",
		zap.String("env", cfg.AppEnv),
		zap.String("queue", cfg.RabbitMQ.TaskQueue),
		zap.Int("concurrency", cfg.RabbitMQ.Concurrency))

	ctx := context.Background()

	pgPool, err := setupPostgres(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	redisClient, err := setupRedis(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	mqConn, err := messaging.Connect(cfg.RabbitMQ.URL, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	textClient, err := ai.NewTextClient(ai.Config{
		ClientType:     cfg.AI.ClientType,
		BaseURL:        cfg.AI.BaseURL,
		Model:          cfg.AI.Model,
		APIKey:         cfg.AI.APIKey,
		RequestTimeout: cfg.AI.RequestTimeout,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to initialize text generation client", zap.Error(err))
	}
	imageClient, err := ai.NewImageClient(ai.ImageConfig{
		ClientType:     cfg.AI.ImageClientType,
		BaseURL:        cfg.AI.BaseURL,
		ServerURL:      cfg.AI.ImageServerURL,
		Model:          cfg.AI.ImageModel,
		APIKey:         cfg.AI.APIKey,
		RequestTimeout: cfg.AI.RequestTimeout,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to initialize image generation client", zap.Error(err))
	}

	resultRepo := database.NewPgGenerationResultRepository(pgPool, log)
	eventPublisher := events.NewRedisPublisher(redisClient, log)

	taskHandler := worker.NewTaskHandler(textClient, imageClient, resultRepo, eventPublisher, cfg, log)
	consumer := messaging.NewConsumer(mqConn, cfg.RabbitMQ.TaskQueue, cfg.RabbitMQ.ConsumerName, cfg.RabbitMQ.Concurrency, taskHandler, log)

	go startMetricsServer(cfg.MetricsPort, log)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		zap.L().Info("Shutdown signal received, stopping consumer...")
		consumer.Stop()
		if err := <-consumerDone; err != nil {
			zap.L().Error("Consumer stopped with error", zap.Error(err))
		}
	case err := <-consumerDone:
		// The consumer only returns on its own when the broker went away.
		if err != nil {
			zap.L().Fatal("Consumer terminated", zap.Error(err))
		}
	}

	zap.L().Info("Worker exiting")
}

// startMetricsServer serves Prometheus metrics and a liveness endpoint on a
// side port.
func startMetricsServer(port string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	log.Info("Starting metrics server", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error("Metrics server failed", zap.Error(err))
	}
}

// setupPostgres connects to PostgreSQL, retrying long enough to ride out a
// database that comes up after the worker in compose environments.
func setupPostgres(ctx context.Context, cfg *config.WorkerConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	const maxRetries = 50
	const retryDelay = 3 * time.Second

	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pool, err = database.NewPgxPool(ctx, cfg.Postgres.GetDSN(), cfg.Postgres.MaxConns, 0, log)
		if err == nil {
			return pool, nil
		}
		log.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, err)
}

// setupRedis connects to Redis with the same retry policy as setupPostgres.
func setupRedis(ctx context.Context, cfg *config.WorkerConfig, log *zap.Logger) (*redis.Client, error) {
	const maxRetries = 50
	const retryDelay = 3 * time.Second

	var client *redis.Client
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err = database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err == nil {
			return client, nil
		}
		log.Warn("Redis connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, err)
}
