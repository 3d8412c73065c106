//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"canvas-ai/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideTracer,
	ProvideCloudWatchMetrics,
	ProvideCollector,
	ProvideMetrics,
	ProvideSnapshotStore,
	ProvideEventPublisher,
	ProvideMockConnector,
	ProvideConnector,
	ProvideAIConnector,
	ProvideGraphGenerator,
	ProvideChatSession,
	ProvideGraphStore,
	ProvideIntentRouter,
	ProvideEditSession,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideHTTPHandler,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
// The returned cleanup stops the router and watcher and closes the store.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
