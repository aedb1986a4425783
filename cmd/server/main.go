package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/catalog"
	"github.com/hammerheart92/StoryForge-sub000/internal/clients"
	"github.com/hammerheart92/StoryForge-sub000/internal/config"
	"github.com/hammerheart92/StoryForge-sub000/internal/conversation"
	"github.com/hammerheart92/StoryForge-sub000/internal/database"
	"github.com/hammerheart92/StoryForge-sub000/internal/handler"
	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	appLogger "github.com/hammerheart92/StoryForge-sub000/internal/logger"
	"github.com/hammerheart92/StoryForge-sub000/internal/messaging"
	"github.com/hammerheart92/StoryForge-sub000/internal/middleware"
	"github.com/hammerheart92/StoryForge-sub000/internal/repository"
	"github.com/hammerheart92/StoryForge-sub000/internal/service"
	"github.com/hammerheart92/StoryForge-sub000/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := appLogger.New(appLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := setupPostgres(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	migrator := database.NewMigrator(migrations.FS, ".", dbPool, logger)
	if err := migrator.Up(); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	// Session store: Redis when configured, in-memory otherwise.
	var sessionStore conversation.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessionStore = conversation.NewRedisStore(redisClient, cfg.SessionTTL, logger)
		zap.L().Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		sessionStore = conversation.NewMemoryStore()
		zap.L().Info("Using in-memory session store")
	}

	// Game events go to RabbitMQ only when a broker URL is configured.
	var eventPublisher interfaces.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		publisher, err := messaging.NewRabbitMQEventPublisher(mqConn, cfg.GameEventsQueue, logger)
		if err != nil {
			zap.L().Fatal("Failed to create game event publisher", zap.Error(err))
		}
		defer publisher.Close()
		eventPublisher = publisher
		zap.L().Info("Connected to RabbitMQ", zap.String("queue", cfg.GameEventsQueue))
	}

	characterCatalog, err := catalog.NewFileCatalog(cfg.CharacterCatalogPath, logger)
	if err != nil {
		zap.L().Fatal("Failed to load character catalog", zap.Error(err))
	}

	generator, err := clients.NewOpenAIGenerator(clients.GeneratorConfig{
		APIKey:    cfg.GeneratorAPIKey,
		BaseURL:   cfg.GeneratorBaseURL,
		Model:     cfg.GeneratorModel,
		Timeout:   cfg.GeneratorTimeout,
		MaxTokens: cfg.GeneratorMaxTokens,
	}, logger)
	if err != nil {
		zap.L().Fatal("Failed to create text generator", zap.Error(err))
	}

	saveRepo := repository.NewPgSaveRepository(dbPool, logger)
	ledgerRepo := repository.NewPgLedgerRepository(dbPool, logger)
	unlockRepo := repository.NewPgUnlockRepository(dbPool, logger)
	contentCatalog := repository.NewPgContentCatalog(dbPool, logger)

	dialogueService := service.NewDialogueService(characterCatalog, generator, sessionStore, logger)
	saveService := service.NewSaveService(saveRepo, eventPublisher, cfg.MaxSaveSlots, logger)
	ledgerService := service.NewLedgerService(ledgerRepo, cfg.CreateAccountOnAward, logger)
	unlockService := service.NewUnlockService(contentCatalog, unlockRepo, eventPublisher, logger)

	gameHandler := handler.NewGameHandler(
		dialogueService, saveService, ledgerService, unlockService,
		characterCatalog, cfg.JWTSecret, logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.ZapLoggingMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-Token"},
	}))

	prom := ginprometheus.NewPrometheus("storyforge")
	prom.Use(router)

	gameHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		zap.L().Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}
	zap.L().Info("Server stopped")
}

func setupPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}

// connectRabbitMQ dials the broker with a few retries. Brokers routinely come
// up after the app in compose environments.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	const maxRetries = 5
	const retryDelay = 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
