package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 100, cfg.ChunkSize)
	assert.Equal(t, 4, cfg.UpdateConcurrency)
	assert.Equal(t, 10000, cfg.MaxRows)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "redis", cfg.Queue)
	assert.Equal(t, "local", cfg.FileStore)
	assert.Equal(t, "none", cfg.EventSink)
	assert.False(t, cfg.needsAWS())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("IMPORT_CHUNK_SIZE", "250")
	t.Setenv("STORE_RATE_LIMIT", "50.5")
	t.Setenv("EVENT_SINK", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dynamodb", cfg.StoreBackend)
	assert.Equal(t, 250, cfg.ChunkSize)
	// one DynamoDB transaction per chunk
	assert.Equal(t, 100, cfg.storeChunkSize())
	assert.Equal(t, 50.5, cfg.StoreRateLimit)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.needsAWS())
}

func TestStoreChunkSize_OnlyCappedForDynamo(t *testing.T) {
	cfg := &Config{StoreBackend: "postgres", ChunkSize: 500}
	assert.Equal(t, 500, cfg.storeChunkSize())

	cfg.StoreBackend = "dynamodb"
	assert.Equal(t, 100, cfg.storeChunkSize())

	cfg.ChunkSize = 40
	assert.Equal(t, 40, cfg.storeChunkSize())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET is required"},
		{"bad backend", map[string]string{"STORE_BACKEND": "redis"}, `unsupported STORE_BACKEND "redis"`},
		{"bad number", map[string]string{"IMPORT_MAX_ROWS": "lots"}, "invalid IMPORT_MAX_ROWS"},
		{"sqs without url", map[string]string{"IMPORT_QUEUE": "sqs", "IMPORT_SQS_QUEUE_URL": ""}, "IMPORT_SQS_QUEUE_URL is required"},
		{"s3 without bucket", map[string]string{"IMPORT_FILE_STORE": "s3", "AWS_S3_BUCKET": ""}, "AWS_S3_BUCKET is required"},
		{"sns without topic", map[string]string{"EVENT_SINK": "sns", "IMPORT_SNS_TOPIC_ARN": ""}, "IMPORT_SNS_TOPIC_ARN is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
