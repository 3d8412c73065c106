package di

import (
	"net/http"

	"canvas-ai/application/commands/bus"
	"canvas-ai/application/ports"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/application/services"
	"canvas-ai/domain/chat"
	domainconfig "canvas-ai/domain/config"
	"canvas-ai/infrastructure/config"
	"canvas-ai/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	Store        ports.SnapshotStore
	Publisher    ports.EventPublisher
	Collector    *observability.Collector
	Connector    ports.Connector
	Session      *chat.Session
	GraphStore   *services.GraphStore
	IntentRouter *services.IntentRouter
	EditSession  *services.EditSession
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	HTTPHandler  http.Handler
	Watcher      *config.ConfigWatcher
}
