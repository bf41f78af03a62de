package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/admin5fedu/duraval-app-sub010/database"
	"github.com/admin5fedu/duraval-app-sub010/importer"
	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/admin5fedu/duraval-app-sub010/repository"
)

// Config holds all environment variables for the import service.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	StoreBackend   string // postgres, dynamodb or mongo
	Postgres       database.PostgresConfig
	MongoURL       string
	MongoDB        string
	DDBTablePrefix string
	StoreRateLimit float64
	StoreRateBurst int

	RedisURL          string
	ChunkSize         int
	UpdateConcurrency int
	MaxRows           int
	MaxUploadBytes    int64

	Queue       string // redis or sqs
	SQSQueueURL string
	FileStore   string // local or s3
	StorageDir  string
	S3Bucket    string
	S3Prefix    string

	EventSink    string // none, sns or kafka
	SNSTopicArn  string
	KafkaBrokers []string
	KafkaTopic   string

	AllowedOrigins    string
	CloudWatchEnabled bool
	AWSRegion         string
}

// LoadConfig loads environment variables into Config and validates them.
// If AWS_USE_SECRETS=true it reads JWT_SECRET and POSTGRES_PASSWORD from
// Secrets Manager and falls back to env vars on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8085"),
		Env:       getEnv("APP_ENV", "development"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		Postgres: database.PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Ho_Chi_Minh"),
		},
		MongoURL:       getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "duraval"),
		DDBTablePrefix: os.Getenv("DDB_TABLE_PREFIX"),

		RedisURL: getEnv("REDIS_URL", "redis://redis:6379"),

		Queue:       strings.ToLower(getEnv("IMPORT_QUEUE", "redis")),
		SQSQueueURL: os.Getenv("IMPORT_SQS_QUEUE_URL"),
		FileStore:   strings.ToLower(getEnv("IMPORT_FILE_STORE", "local")),
		StorageDir:  getEnv("BULK_STORAGE_DIR", "./data/imports"),
		S3Bucket:    os.Getenv("AWS_S3_BUCKET"),
		S3Prefix:    getEnv("AWS_S3_PREFIX", "imports/"),

		EventSink:   strings.ToLower(getEnv("EVENT_SINK", "none")),
		SNSTopicArn: os.Getenv("IMPORT_SNS_TOPIC_ARN"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "import-events"),

		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
		AWSRegion:         getEnv("AWS_REGION", "ap-southeast-1"),
	}
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.ChunkSize, err = getInt("IMPORT_CHUNK_SIZE", importer.DefaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.UpdateConcurrency, err = getInt("IMPORT_UPDATE_CONCURRENCY", importer.DefaultUpdateConcurrency); err != nil {
		return nil, err
	}
	if cfg.MaxRows, err = getInt("IMPORT_MAX_ROWS", 10000); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("IMPORT_MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.StoreRateBurst, err = getInt("STORE_RATE_BURST", 10); err != nil {
		return nil, err
	}
	if v := os.Getenv("STORE_RATE_LIMIT"); v != "" {
		if cfg.StoreRateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid STORE_RATE_LIMIT: %w", err)
		}
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background(), cfg.AWSRegion); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)

			if jwt, err := sm.GetSecret(context.Background(), "import/JWT_SECRET"); err == nil && jwt != "" {
				cfg.JWTSecret = jwt
			}
			if pw, err := sm.GetSecret(context.Background(), "import/POSTGRES_PASSWORD"); err == nil && pw != "" {
				cfg.Postgres.Password = pw
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreBackend {
	case "postgres", "dynamodb", "mongo":
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Queue {
	case "redis":
	case "sqs":
		if c.SQSQueueURL == "" {
			return fmt.Errorf("IMPORT_SQS_QUEUE_URL is required when IMPORT_QUEUE=sqs")
		}
	default:
		return fmt.Errorf("unsupported IMPORT_QUEUE %q", c.Queue)
	}
	switch c.FileStore {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when IMPORT_FILE_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported IMPORT_FILE_STORE %q", c.FileStore)
	}
	switch c.EventSink {
	case "none":
	case "sns":
		if c.SNSTopicArn == "" {
			return fmt.Errorf("IMPORT_SNS_TOPIC_ARN is required when EVENT_SINK=sns")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENT_SINK=kafka")
		}
	default:
		return fmt.Errorf("unsupported EVENT_SINK %q", c.EventSink)
	}
	return nil
}

// needsAWS reports whether any configured component talks to AWS.
func (c *Config) needsAWS() bool {
	return c.StoreBackend == "dynamodb" || c.Queue == "sqs" || c.FileStore == "s3" ||
		c.EventSink == "sns" || c.CloudWatchEnabled
}

// storeChunkSize is ChunkSize capped to what one insert call of the store
// backend accepts.
func (c *Config) storeChunkSize() int {
	if c.StoreBackend == "dynamodb" && c.ChunkSize > repository.DynamoMaxInsertBatch {
		return repository.DynamoMaxInsertBatch
	}
	return c.ChunkSize
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
