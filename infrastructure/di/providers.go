package di

import (
	"context"
	"fmt"
	"net/http"

	"canvas-ai/application/commands/bus"
	commandhandlers "canvas-ai/application/commands/handlers"
	"canvas-ai/application/ports"
	querybus "canvas-ai/application/queries/bus"
	queryhandlers "canvas-ai/application/queries/handlers"
	"canvas-ai/application/services"
	"canvas-ai/domain/chat"
	domainconfig "canvas-ai/domain/config"
	"canvas-ai/infrastructure/ai"
	"canvas-ai/infrastructure/config"
	"canvas-ai/infrastructure/messaging/eventbridge"
	"canvas-ai/infrastructure/messaging/logging"
	"canvas-ai/infrastructure/persistence"
	"canvas-ai/infrastructure/persistence/badger"
	"canvas-ai/infrastructure/persistence/dynamodb"
	"canvas-ai/infrastructure/persistence/memory"
	"canvas-ai/interfaces/http/rest"
	"canvas-ai/interfaces/http/rest/handlers"
	"canvas-ai/pkg/auth"
	"canvas-ai/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ServiceName names the service in traces and metrics
const ServiceName = "canvas-ai"

// ProvideLogLevel creates the shared, hot-reloadable log level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, err
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", ServiceName)), nil
}

// ProvideDomainConfig derives the business rules, applying env overrides
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	dc.ConnectorTimeout = cfg.ConnectorTimeout
	dc.MaxQueuedTurns = cfg.MaxQueuedTurns
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// ProvideAWSConfig creates AWS configuration.
// Loading resolves credentials lazily, so local runs without AWS succeed.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideTracer returns an X-Ray tracer when tracing is enabled, nil otherwise
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer(ServiceName)
}

// ProvideCloudWatchMetrics returns a CloudWatch sink when enabled, nil otherwise
func ProvideCloudWatchMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.CloudWatchMetrics {
	if !cfg.EnableCloudWatch {
		return nil
	}
	return observability.NewCloudWatchMetrics("CanvasAI", client, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector(cloud *observability.CloudWatchMetrics) *observability.Collector {
	return observability.NewCollector("canvas_ai", cloud)
}

// ProvideMetrics exposes the collector as the application metrics port
func ProvideMetrics(collector *observability.Collector) ports.Metrics {
	return collector
}

// ProvideSnapshotStore opens the configured storage backend
func ProvideSnapshotStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (ports.SnapshotStore, func(), error) {
	var (
		store   ports.SnapshotStore
		cleanup = func() {}
	)

	switch cfg.StorageBackend {
	case config.StorageBadger:
		db, err := badger.Open(badger.DefaultConfig(cfg.DataDir), logger)
		if err != nil {
			return nil, nil, err
		}
		store = db
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close badger store", zap.Error(err))
			}
		}
	case config.StorageDynamoDB:
		store = dynamodb.NewSnapshotStore(client, cfg.DynamoDBTable, logger)
	case config.StorageMemory:
		store = memory.NewSnapshotStore()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info("Snapshot store ready",
		zap.String("backend", cfg.StorageBackend),
		zap.String("key", cfg.SnapshotKey),
	)
	return persistence.NewTracedSnapshotStore(store, tracer, cfg.StorageBackend), cleanup, nil
}

// ProvideEventPublisher fans events out to the log and the configured sinks
func ProvideEventPublisher(
	cfg *config.Config,
	ebClient *awseventbridge.Client,
	dynamoClient *awsdynamodb.Client,
	logger *zap.Logger,
) ports.EventPublisher {
	publishers := logging.FanOut{logging.NewPublisher(logger)}
	if cfg.EventBusName != "" {
		publishers = append(publishers, eventbridge.NewPublisher(ebClient, cfg.EventBusName, logger))
	}
	if cfg.EnableEventLog {
		publishers = append(publishers, dynamodb.NewEventLog(dynamoClient, cfg.DynamoDBTable, dynamodb.DefaultEventRetention))
	}
	return publishers
}

// ProvideMockConnector creates the deterministic connector
func ProvideMockConnector(cfg *config.Config, dc *domainconfig.DomainConfig, logger *zap.Logger) *ai.MockConnector {
	return ai.NewMockConnector(dc, cfg.MockLatency, logger)
}

// ProvideConnector selects the AI backend: the live endpoint when a key is set, the mock otherwise
func ProvideConnector(
	cfg *config.Config,
	dc *domainconfig.DomainConfig,
	mock *ai.MockConnector,
	tracer *observability.Tracer,
	metrics ports.Metrics,
	logger *zap.Logger,
) (ports.Connector, error) {
	var inner ports.Connector = mock
	if cfg.UseLiveConnector() {
		live, err := ai.NewOpenAIConnector(ai.OpenAIConfig{
			APIKey:      cfg.AIAPIKey,
			BaseURL:     cfg.AIBaseURL,
			Model:       cfg.AIModel,
			Temperature: float32(cfg.AITemperature),
		}, dc, logger)
		if err != nil {
			return nil, err
		}
		inner = live
	} else {
		logger.Warn("No AI API key configured, using mock connector")
	}

	resilience := ai.DefaultResilientConfig(inner.Name())
	if cfg.AIRatePerSecond > 0 {
		resilience.RatePerSecond = cfg.AIRatePerSecond
	}
	return ai.NewResilientConnector(inner, resilience, tracer, metrics, logger), nil
}

// ProvideAIConnector exposes the connector's classification side
func ProvideAIConnector(c ports.Connector) ports.AIConnector {
	return c
}

// ProvideGraphGenerator exposes the connector's generation side
func ProvideGraphGenerator(c ports.Connector) ports.GraphGenerator {
	return c
}

// ProvideChatSession creates the chat log seeded with the greeting
func ProvideChatSession() *chat.Session {
	return chat.NewSession()
}

// ProvideGraphStore creates the graph store and restores the persisted graph
func ProvideGraphStore(
	ctx context.Context,
	store ports.SnapshotStore,
	generator ports.GraphGenerator,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	dc *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) (*services.GraphStore, error) {
	graphs := services.NewGraphStore(store, generator, publisher, metrics, dc, cfg.SnapshotKey, logger)
	if _, err := graphs.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore graph: %w", err)
	}
	return graphs, nil
}

// ProvideIntentRouter starts the chat worker
func ProvideIntentRouter(
	connector ports.AIConnector,
	graphs *services.GraphStore,
	session *chat.Session,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*services.IntentRouter, func()) {
	router := services.NewIntentRouter(connector, graphs, session, publisher, metrics, dc, logger)
	return router, router.Close
}

// ProvideEditSession creates the node title editor
func ProvideEditSession(graphs *services.GraphStore, logger *zap.Logger) *services.EditSession {
	return services.NewEditSession(graphs, logger)
}

// ProvideCommandBus creates and configures the command bus
func ProvideCommandBus(
	graphs *services.GraphStore,
	edits *services.EditSession,
	router *services.IntentRouter,
	dc *domainconfig.DomainConfig,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()
	commandBus.Use(
		bus.LoggingMiddleware(logger.Sugar()),
		bus.MetricsMiddleware(collector),
	)

	err := commandhandlers.RegisterAll(commandBus,
		commandhandlers.NewGraphHandlers(graphs, edits, router, dc, logger),
		commandhandlers.NewChatHandlers(router, logger),
		commandhandlers.NewEditHandlers(edits),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates and configures the query bus
func ProvideQueryBus(
	graphs *services.GraphStore,
	session *chat.Session,
	router *services.IntentRouter,
	edits *services.EditSession,
	collector *observability.Collector,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	queryBus.Use(querybus.NewMetricsMiddleware(collector))

	if err := queryhandlers.NewQueryHandlers(graphs, session, router, edits).RegisterAll(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideJWTValidator returns a validator when JWT_SECRET is set, nil otherwise
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, API authentication disabled")
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideRateLimiter creates the per-client HTTP limiter
func ProvideRateLimiter() auth.RateLimiter {
	return auth.NewKeyedLimiter(120, 30)
}

// ProvideHTTPHandler builds the chi router
func ProvideHTTPHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	cfg *config.Config,
	validator *auth.JWTValidator,
	limiter auth.RateLimiter,
	collector *observability.Collector,
	tracer *observability.Tracer,
	store ports.SnapshotStore,
	logger *zap.Logger,
) http.Handler {
	if !cfg.EnableMetrics {
		collector = nil
	}

	checks := map[string]handlers.ReadinessCheck{
		"storage": func(ctx context.Context) error {
			_, _, err := store.Get(ctx, cfg.SnapshotKey)
			return err
		},
	}

	return rest.NewRouter(
		commandBus,
		queryBus,
		rest.RouterConfig{
			EnableCORS:     cfg.EnableCORS,
			AllowedOrigins: cfg.AllowedOrigins,
			Debug:          cfg.IsDevelopment(),
		},
		validator,
		limiter,
		collector,
		tracer,
		checks,
		logger,
	).Setup()
}

// ProvideConfigWatcher applies CONFIG_FILE changes at runtime.
// Without a config file it returns nil.
func ProvideConfigWatcher(
	cfg *config.Config,
	level zap.AtomicLevel,
	router *services.IntentRouter,
	mock *ai.MockConnector,
	logger *zap.Logger,
) (*config.ConfigWatcher, func(), error) {
	if cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}

	watcher, err := config.NewConfigWatcher(cfg.ConfigFile, config.DynamicFrom(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(dyn *config.DynamicConfig) {
		if l, err := config.ParseLevel(dyn.LogLevel); err == nil {
			level.SetLevel(l)
		}
		router.SetTimeout(dyn.ConnectorTimeout.Std())
		mock.SetLatency(dyn.MockLatency.Std())
	})
	watcher.Start()

	return watcher, watcher.Stop, nil
}
