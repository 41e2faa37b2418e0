package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/database"
	"fictures-server/internal/events"
	"fictures-server/internal/handler"
	"fictures-server/internal/messaging"
	"fictures-server/internal/middleware"
	"fictures-server/internal/scheduler"
	"fictures-server/internal/service"
	"fictures-server/pkg/logger"
)

func main() {
	// .env is optional; in compose environments everything comes from the
	// container environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))
	zap.L().Info("Configuration loaded")

	// --- External Connections ---
	ctx := context.Background()

	pgPool, err := setupPostgres(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.ApplyMigrations(ctx, pgPool, log); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient, err := setupRedis(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	mqConn, err := messaging.Connect(cfg.RabbitMQURL, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()
	go watchRabbitMQ(mqConn, log)

	// --- Dependency Injection ---
	userRepo := database.NewPgUserRepository(pgPool, log)
	tokenRepo := database.NewRedisTokenRepository(redisClient, log)
	apiKeyRepo := database.NewPgAPIKeyRepository(pgPool, log)
	storyRepo := database.NewPgStoryRepository(log)
	partRepo := database.NewPgPartRepository(log)
	chapterRepo := database.NewPgChapterRepository(log)
	sceneRepo := database.NewPgSceneRepository(log)
	characterRepo := database.NewPgCharacterRepository(pgPool, log)
	placeRepo := database.NewPgPlaceRepository(pgPool, log)
	commentRepo := database.NewPgCommentRepository(pgPool, log)
	likeRepo := database.NewPgLikeRepository(pgPool, log)
	analyticsRepo := database.NewPgAnalyticsRepository(pgPool, log)
	scheduleRepo := database.NewPgScheduleRepository(log)
	resultRepo := database.NewPgGenerationResultRepository(pgPool, log)

	eventPublisher := events.NewRedisPublisher(redisClient, log)
	hub := events.NewHub(redisClient, cfg.SSEClientBuffer, log)
	collabHub := handler.NewCollabHub(log)

	textClient, err := ai.NewTextClient(ai.Config{
		ClientType:     cfg.AIClientType,
		BaseURL:        cfg.AIBaseURL,
		Model:          cfg.AIModel,
		APIKey:         cfg.AIAPIKey,
		RequestTimeout: cfg.AIRequestTimeout,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to initialize text generation client", zap.Error(err))
	}
	imageClient, err := ai.NewImageClient(ai.ImageConfig{
		ClientType:     cfg.ImageClientType,
		BaseURL:        cfg.AIBaseURL,
		ServerURL:      cfg.ImageServerURL,
		Model:          cfg.AIImageModel,
		APIKey:         cfg.AIAPIKey,
		RequestTimeout: cfg.AIRequestTimeout,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to initialize image generation client", zap.Error(err))
	}

	taskPublisher, err := messaging.NewTaskQueuePublisher(mqConn, cfg.GenerationTaskQueue, log)
	if err != nil {
		zap.L().Fatal("Failed to create generation task publisher", zap.Error(err))
	}

	authSvc := service.NewAuthService(userRepo, tokenRepo, cfg, log)
	apiKeySvc := service.NewAPIKeyService(apiKeyRepo, log)
	storySvc := service.NewStoryService(pgPool, storyRepo, chapterRepo, likeRepo, eventPublisher, log)
	contentSvc := service.NewContentService(pgPool, storyRepo, partRepo, chapterRepo, sceneRepo, log)
	worldSvc := service.NewWorldService(pgPool, storyRepo, characterRepo, placeRepo, log)
	commentSvc := service.NewCommentService(pgPool, storyRepo, chapterRepo, commentRepo, eventPublisher, log)
	analyticsSvc := service.NewAnalyticsService(pgPool, storyRepo, analyticsRepo, log)
	scheduleSvc := service.NewScheduleService(pgPool, storyRepo, chapterRepo, scheduleRepo, log)
	generationSvc := service.NewGenerationService(textClient, imageClient, resultRepo, taskPublisher, cfg, log)

	// --- Background Loops ---
	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var background sync.WaitGroup
	background.Add(3)
	go func() {
		defer background.Done()
		hub.Run(runCtx)
	}()
	go func() {
		defer background.Done()
		collabHub.Run(runCtx)
	}()
	publishRunner := scheduler.NewRunner(pgPool, scheduleRepo, storySvc, eventPublisher, cfg, log)
	go func() {
		defer background.Done()
		publishRunner.Run(runCtx)
	}()

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	requireAuth := middleware.RequireAuth(authSvc, apiKeySvc, log)
	// Constructed once so both route groups share the same counters.
	rateLimit := middleware.RateLimit(cfg)

	authHandler := handler.NewAuthHandler(authSvc, log)
	authGroup := router.Group("/auth", rateLimit)
	authHandler.RegisterPublicRoutes(authGroup, requireAuth)

	api := router.Group("/api", requireAuth, rateLimit)
	authHandler.RegisterRoutes(api)
	handler.NewStoryHandler(storySvc, log).RegisterRoutes(api)
	handler.NewContentHandler(contentSvc, storySvc, log).RegisterRoutes(api)
	handler.NewWorldHandler(worldSvc, log).RegisterRoutes(api)
	handler.NewCommentHandler(commentSvc, log).RegisterRoutes(api)
	handler.NewAnalyticsHandler(analyticsSvc, log).RegisterRoutes(api)
	handler.NewScheduleHandler(scheduleSvc, log).RegisterRoutes(api)
	handler.NewAPIKeyHandler(apiKeySvc, log).RegisterRoutes(api)
	handler.NewGenerationHandler(generationSvc, log).RegisterRoutes(api)
	handler.NewEventsHandler(hub, cfg.SSEPingInterval, log).RegisterRoutes(api)
	handler.NewCollabHandler(collabHub, authSvc, storySvc, log).RegisterRoutes(router)

	// Registered after the routes so every handler shows up in the metrics.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout, // zero, so SSE streams stay open
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	// Stopping the hubs first closes every SSE and websocket stream, which
	// lets the HTTP server drain instead of waiting out its timeout.
	stopBackground()
	background.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres connects to PostgreSQL, retrying long enough to ride out a
// database that comes up after the service in compose environments.
func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	const maxRetries = 50
	const retryDelay = 3 * time.Second

	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pool, err = database.NewPgxPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, cfg.DBIdleTimeout, log)
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
func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	const maxRetries = 50
	const retryDelay = 3 * time.Second

	var client *redis.Client
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err = database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
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

// watchRabbitMQ logs when the broker connection dies. Task publishing fails
// from that point on; the deployment is expected to restart the service.
func watchRabbitMQ(conn *amqp.Connection, log *zap.Logger) {
	err := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if err != nil {
		log.Error("RabbitMQ connection closed unexpectedly", zap.Error(err))
	} else {
		log.Info("RabbitMQ connection closed")
	}
}
