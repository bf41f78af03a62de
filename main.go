package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admin5fedu/duraval-app-sub010/common/auth"
	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/common/logger"
	"github.com/admin5fedu/duraval-app-sub010/common/middleware"
	"github.com/admin5fedu/duraval-app-sub010/controllers"
	"github.com/admin5fedu/duraval-app-sub010/database"
	"github.com/admin5fedu/duraval-app-sub010/importer"
	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/admin5fedu/duraval-app-sub010/registry"
	"github.com/admin5fedu/duraval-app-sub010/repository"
	"github.com/admin5fedu/duraval-app-sub010/routes"
	"github.com/admin5fedu/duraval-app-sub010/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "import-service"

// SQS visibility must outlast one import run.
const sqsVisibilityTimeout = 15 * 60

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	logger.Initialize(getEnv("APP_ENV", "development"))
	defer func() { _ = logger.Log.Sync() }()

	// --- 1. Initialization ---
	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	var awsCfg sdkaws.Config
	if cfg.needsAWS() {
		awsCfg, err = awspkg.LoadAWSConfig(context.Background(), cfg.AWSRegion)
		if err != nil {
			zap.L().Fatal("Failed to load AWS config", zap.Error(err))
		}
		zap.L().Info("AWS Configuration",
			zap.String("AWS_REGION", cfg.AWSRegion),
			zap.Bool("custom_endpoint", awspkg.UsesCustomEndpoint(awsCfg)),
		)
	}

	if cfg.CloudWatchEnabled {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(context.Background(), awsCfg, os.Getenv("CLOUDWATCH_LOG_GROUP"), serviceName)
		if err != nil {
			zap.L().Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			logger.InitializeWithWriter(cfg.Env, cwLogs)
		}
	}
	var metrics *awspkg.MetricsClient
	if cfg.needsAWS() {
		metrics = awspkg.NewMetricsClient(awsCfg, "Duraval/Import", cfg.CloudWatchEnabled)
	}

	store, closeStore := openRecordStore(cfg, awsCfg)
	defer closeStore()
	store = repository.NewRateLimitedStore(store, cfg.StoreRateLimit, cfg.StoreRateBurst)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zap.L().Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	rdb := redis.NewClient(redisOpts)

	// --- 2. Dependency Injection ---
	reconciler := importer.NewReconciler(store,
		importer.WithChunkSize(cfg.storeChunkSize()),
		importer.WithUpdateConcurrency(cfg.UpdateConcurrency),
		importer.WithLogger(zap.L()),
	)

	files := openFileStore(cfg, awsCfg)
	queue := openJobQueue(cfg, awsCfg, rdb)
	events, closeEvents := openEventSink(cfg, awsCfg)
	defer closeEvents()

	importService := services.NewImportService(registry.Default(), reconciler,
		services.WithEvents(events),
		services.WithMetrics(metrics),
		services.WithMaxRows(cfg.MaxRows),
		services.WithServiceLogger(zap.L()),
		services.WithJobs(files, services.NewRedisJobStore(rdb), queue),
	)
	importHandler := controllers.NewImportHandler(importService, controllers.NewRequestValidator(cfg.MaxUploadBytes))

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := services.NewWorker(queue, importService).Start(workerCtx)

	// --- 3. HTTP Server & Middleware ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(zap.L()))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(120, 20))
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())
	r.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20

	// --- 4. Route Registration ---
	routes.RegisterImportRoutes(r, importHandler, auth.NewTokenParser(cfg.JWTSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- 5. Graceful Shutdown ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Import Service starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Import Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorker()
	select {
	case <-workerDone:
	case <-time.After(30 * time.Second):
		zap.L().Warn("Import worker still busy at shutdown")
	}

	if err := rdb.Close(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}

	zap.L().Info("Import Service stopped gracefully")
}

func openRecordStore(cfg *Config, awsCfg sdkaws.Config) (repository.RecordStore, func()) {
	switch cfg.StoreBackend {
	case "dynamodb":
		client := dynamodb.NewFromConfig(awsCfg)
		return repository.NewDynamoRecordStore(client, cfg.DDBTablePrefix), func() {}
	case "mongo":
		client, db, err := database.ConnectMongo(zap.L(), cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		return repository.NewMongoRecordStore(db), func() {
			if err := database.CloseMongo(client); err != nil {
				zap.L().Error("Failed to close MongoDB", zap.Error(err))
			}
		}
	default:
		db, err := database.ConnectPostgres(zap.L(), cfg.Postgres)
		if err != nil {
			zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		return repository.NewGormRecordStore(db), func() {
			if err := database.ClosePostgres(db); err != nil {
				zap.L().Error("Failed to close PostgreSQL", zap.Error(err))
			}
		}
	}
}

func openFileStore(cfg *Config, awsCfg sdkaws.Config) services.FileStore {
	if cfg.FileStore == "s3" {
		return services.NewS3FileStore(awspkg.NewS3Client(awsCfg, cfg.S3Bucket), cfg.S3Prefix)
	}
	files, err := services.NewLocalFileStore(cfg.StorageDir)
	if err != nil {
		zap.L().Fatal("Failed to prepare upload storage", zap.Error(err))
	}
	return files
}

func openJobQueue(cfg *Config, awsCfg sdkaws.Config, rdb *redis.Client) services.JobQueue {
	if cfg.Queue == "sqs" {
		return services.NewSQSJobQueue(awspkg.NewSQSClient(awsCfg, cfg.SQSQueueURL, sqsVisibilityTimeout))
	}
	return services.NewRedisJobQueue(rdb)
}

func openEventSink(cfg *Config, awsCfg sdkaws.Config) (services.EventPublisher, func()) {
	switch cfg.EventSink {
	case "sns":
		return services.NewSNSEventPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicArn), func() {}
	case "kafka":
		pub := services.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return pub, func() {
			if err := pub.Close(); err != nil {
				zap.L().Error("Failed to close Kafka writer", zap.Error(err))
			}
		}
	default:
		return services.NopEventPublisher{}, func() {}
	}
}
