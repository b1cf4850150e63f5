// @title           Nemu Commission API
// @version         1.0
// @description     Commission requests, custom request forms, invoices and kanban boards
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/commissions

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "nemu-commission-api/docs" // Swagger docs import

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/config"
	"nemu-commission-api/internal/database"
	"nemu-commission-api/internal/handler"
	"nemu-commission-api/internal/job"
	"nemu-commission-api/internal/metrics"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/router"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Nemu Commission API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
	)

	m := metrics.NewWithLogger(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	db, err := database.Connect(startCtx, database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, 10, 5*time.Second, logger)
	cancelStart()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	database.RegisterMetricsCallbacks(db, m)
	statsDone := database.StartDBStatsCollector(db, m, 15*time.Second)
	defer close(statsDone)

	// Redis backs the decision lock and read cache; without it both stay in-process
	var locker cache.Locker = cache.NewMemoryLocker()
	readCache := cache.NewNoopReadCache()
	if cfg.Redis.URL != "" || cfg.Redis.Addr != "" {
		rdb, err := database.NewRedis(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory lock and no read cache", zap.Error(err))
		} else {
			defer rdb.Close()
			locker = cache.NewRedisLocker(rdb)
			readCache = cache.NewRedisReadCache(rdb, cfg.Cache.TTL, logger)
		}
	}

	payments := client.NewDisabledPaymentClient()
	if cfg.Stripe.SecretKey != "" {
		payments = client.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.DaysUntilDue, nil, logger, m)
		logger.Info("Stripe client initialized")
	} else {
		logger.Warn("Stripe secret key not set, invoicing disabled")
	}

	chat := client.NewDisabledChatClient()
	if cfg.Sendbird.AppID != "" && cfg.Sendbird.APIToken != "" {
		chat = client.NewSendbirdClient(cfg.Sendbird.AppID, cfg.Sendbird.APIToken, "", cfg.Sendbird.Timeout, logger, m)
		logger.Info("Sendbird client initialized", zap.String("app_id", cfg.Sendbird.AppID))
	} else {
		logger.Warn("Sendbird not configured, chat provisioning disabled")
	}

	notifier := client.NewNoOpNotificationClient()
	if cfg.Notification.BaseURL != "" {
		notifier = client.NewNotificationClient(cfg.Notification.BaseURL, cfg.Notification.APIKey, cfg.Notification.Timeout, logger, m)
	}

	events := client.NewNoopEventPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		events = client.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("Kafka event publisher initialized",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	var s3Client client.S3ClientInterface
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		awsClient, err := client.NewS3Client(&cfg.S3)
		if err != nil {
			logger.Fatal("Failed to initialize S3 client", zap.Error(err))
		}
		s3Client = awsClient
		logger.Info("S3 client initialized",
			zap.String("bucket", cfg.S3.Bucket),
			zap.String("region", cfg.S3.Region),
		)
	} else {
		logger.Warn("S3 configuration incomplete, using local mock for reference images")
		s3Client = client.NewMockS3Client()
	}

	hub := handler.NewKanbanHub(logger, m)

	r := router.Setup(router.Config{
		DB:             db,
		Logger:         logger,
		JWTSecret:      cfg.JWT.Secret,
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
		S3Client:       s3Client,
		Payments:       payments,
		Chat:           chat,
		Notifier:       notifier,
		Events:         events,
		Locker:         locker,
		LockTTL:        cfg.Decision.LockTTL,
		ReadCache:      readCache,
		Hub:            hub,
	})

	scheduler := job.NewScheduler(logger)
	if err := scheduler.Register("attachment-cleanup", cfg.Jobs.CleanupSchedule,
		job.NewCleanupJob(repository.NewAttachmentRepository(db), s3Client, logger)); err != nil {
		logger.Fatal("Failed to schedule cleanup job", zap.Error(err))
	}
	if err := scheduler.Register("business-metrics", cfg.Jobs.MetricsSchedule,
		metrics.NewBusinessMetricsCollector(db, m, logger)); err != nil {
		logger.Fatal("Failed to schedule metrics collector", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Nemu Commission API started",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop()

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
