package rest

import (
	"net/http"

	"canvas-ai/application/commands/bus"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/interfaces/http/rest/handlers"
	"canvas-ai/interfaces/http/rest/middleware"
	v1 "canvas-ai/interfaces/http/rest/v1"
	"canvas-ai/pkg/auth"
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig selects the optional parts of the HTTP stack
type RouterConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	config     RouterConfig
	validator  *auth.JWTValidator
	limiter    auth.RateLimiter
	collector  *observability.Collector
	tracer     *observability.Tracer
	checks     map[string]handlers.ReadinessCheck
	logger     *zap.Logger
}

// NewRouter creates a new router instance.
// validator, limiter, collector and tracer are optional.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	config RouterConfig,
	validator *auth.JWTValidator,
	limiter auth.RateLimiter,
	collector *observability.Collector,
	tracer *observability.Tracer,
	checks map[string]handlers.ReadinessCheck,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		config:     config,
		validator:  validator,
		limiter:    limiter,
		collector:  collector,
		tracer:     tracer,
		checks:     checks,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.config.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}
	if rt.collector != nil {
		router.Use(rt.collector.HTTPMiddleware)
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Probes and metrics
	health := handlers.NewHealthHandler(rt.checks, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, errorHandler))
		r.Use(middleware.Authenticate(rt.validator, errorHandler, rt.logger))

		v1.Mount(r, v1.Handlers{
			Graph: handlers.NewGraphHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger),
			Chat:  handlers.NewChatHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger),
			Edit:  handlers.NewEditHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger),
		})
	})

	return router
}
