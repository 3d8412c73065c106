package config_test

import (
	"testing"
	"time"

	"canvas-ai/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests configuration loading from environment variables.
func TestLoadConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("CONNECTOR_TIMEOUT", "1500")
	t.Setenv("MOCK_LATENCY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://canvas.example.com,")
	t.Setenv("ENABLE_CORS", "false")
	t.Setenv("MAX_QUEUED_TURNS", "not-a-number")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, config.StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectorTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.MockLatency)
	assert.Equal(t, []string{"http://localhost:3000", "https://canvas.example.com"}, cfg.AllowedOrigins)
	assert.False(t, cfg.EnableCORS)
	assert.Equal(t, 32, cfg.MaxQueuedTurns, "unparsable values fall back to the default")
	assert.Equal(t, "canvas-ai-storage", cfg.SnapshotKey)
}

// TestLoadConfig_Lambda tests that Lambda defaults to DynamoDB storage.
func TestLoadConfig_Lambda(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "canvas-ai-api")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("TABLE_NAME", "canvas-prod")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsLambda)
	assert.Equal(t, config.StorageDynamoDB, cfg.StorageBackend)
	assert.Equal(t, "canvas-prod", cfg.DynamoDBTable)
}

// TestLoadConfig_LiveConnector tests connector selection by API key.
func TestLoadConfig_LiveConnector(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.UseLiveConnector())
	assert.Equal(t, "sk-test", cfg.AIAPIKey)
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Environment:      "development",
			StorageBackend:   config.StorageBadger,
			DataDir:          "./data",
			SnapshotKey:      "canvas-ai-storage",
			ConnectorTimeout: 30 * time.Second,
			MaxQueuedTurns:   32,
			LogLevel:         "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid development config", mutate: func(c *config.Config) {}},
		{name: "memory backend needs no data dir", mutate: func(c *config.Config) {
			c.StorageBackend = config.StorageMemory
			c.DataDir = ""
		}},
		{name: "badger without data dir", mutate: func(c *config.Config) { c.DataDir = "" }, wantErr: true, errMsg: "DATA_DIR"},
		{name: "dynamodb without table", mutate: func(c *config.Config) {
			c.StorageBackend = config.StorageDynamoDB
		}, wantErr: true, errMsg: "DYNAMODB_TABLE"},
		{name: "unknown backend", mutate: func(c *config.Config) { c.StorageBackend = "sqlite" }, wantErr: true, errMsg: "unknown STORAGE_BACKEND"},
		{name: "empty snapshot key", mutate: func(c *config.Config) { c.SnapshotKey = "" }, wantErr: true, errMsg: "SNAPSHOT_KEY"},
		{name: "zero connector timeout", mutate: func(c *config.Config) { c.ConnectorTimeout = 0 }, wantErr: true, errMsg: "CONNECTOR_TIMEOUT"},
		{name: "zero queue", mutate: func(c *config.Config) { c.MaxQueuedTurns = 0 }, wantErr: true, errMsg: "MAX_QUEUED_TURNS"},
		{name: "negative mock latency", mutate: func(c *config.Config) { c.MockLatency = -time.Second }, wantErr: true, errMsg: "MOCK_LATENCY"},
		{name: "bad log level", mutate: func(c *config.Config) { c.LogLevel = "loud" }, wantErr: true, errMsg: "invalid log level"},
		{name: "production without secret", mutate: func(c *config.Config) { c.Environment = "production" }, wantErr: true, errMsg: "JWT_SECRET"},
		{name: "production with secret", mutate: func(c *config.Config) {
			c.Environment = "production"
			c.JWTSecret = "s3cret"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
