package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageBadger   = "badger"
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// Storage configuration
	StorageBackend string
	DataDir        string
	SnapshotKey    string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// AI connector configuration
	AIAPIKey         string
	AIBaseURL        string
	AIModel          string
	AITemperature    float64
	AIRatePerSecond  float64
	ConnectorTimeout time.Duration
	MockLatency      time.Duration
	MaxQueuedTurns   int

	// Logging
	LogLevel string

	// Dynamic configuration file (YAML), watched for changes
	ConfigFile string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// CORS
	AllowedOrigins []string

	// Feature flags
	EnableMetrics    bool
	EnableTracing    bool
	EnableCORS       bool
	EnableCloudWatch bool
	EnableEventLog   bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageBadger),
		DataDir:        getEnv("DATA_DIR", "./data"),
		SnapshotKey:    getEnv("SNAPSHOT_KEY", "canvas-ai-storage"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "canvas-ai")),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// An API key selects the live connector; without one the mock answers
		AIAPIKey:         getEnv("AI_API_KEY", getEnv("GEMINI_API_KEY", getEnv("OPENAI_API_KEY", ""))),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		AITemperature:    getEnvFloat("AI_TEMPERATURE", 0.2),
		AIRatePerSecond:  getEnvFloat("AI_RATE_PER_SECOND", 2),
		ConnectorTimeout: getEnvDuration("CONNECTOR_TIMEOUT", 30*time.Second),
		MockLatency:      getEnvDuration("MOCK_LATENCY", 0),
		MaxQueuedTurns:   getEnvInt("MAX_QUEUED_TURNS", 32),

		ConfigFile: getEnv("CONFIG_FILE", ""),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "canvas-ai"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		// Logging and features
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
		EnableCloudWatch: getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableEventLog:   getEnvBool("ENABLE_EVENT_LOG", false),
	}

	// Lambda has no writable data directory for badger
	if cfg.LambdaFunctionName != "" {
		cfg.IsLambda = true
		if os.Getenv("STORAGE_BACKEND") == "" {
			cfg.StorageBackend = StorageDynamoDB
		}
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBadger:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the badger backend")
		}
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.SnapshotKey == "" {
		return fmt.Errorf("SNAPSHOT_KEY must not be empty")
	}
	if c.ConnectorTimeout <= 0 {
		return fmt.Errorf("CONNECTOR_TIMEOUT must be positive")
	}
	if c.MaxQueuedTurns <= 0 {
		return fmt.Errorf("MAX_QUEUED_TURNS must be positive")
	}
	if c.MockLatency < 0 {
		return fmt.Errorf("MOCK_LATENCY must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}

	return nil
}

// UseLiveConnector reports whether an AI API key is configured
func (c *Config) UseLiveConnector() bool {
	return c.AIAPIKey != ""
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or whole milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
