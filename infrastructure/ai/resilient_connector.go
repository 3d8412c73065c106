package ai

import (
	"context"
	"errors"
	"time"

	"canvas-ai/application/ports"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/intent"
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ResilientConfig holds circuit breaker and rate limit settings
type ResilientConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	RatePerSecond    float64
	Burst            int
}

// DefaultResilientConfig returns the default settings
func DefaultResilientConfig(name string) ResilientConfig {
	return ResilientConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
		RatePerSecond:    2,
		Burst:            4,
	}
}

// ResilientConnector decorates a connector with a circuit breaker, a rate
// limiter, metrics and optional tracing
type ResilientConnector struct {
	inner   ports.Connector
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	tracer  *observability.Tracer
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewResilientConnector wraps inner; tracer may be nil
func NewResilientConnector(
	inner ports.Connector,
	cfg ResilientConfig,
	tracer *observability.Tracer,
	metrics ports.Metrics,
	logger *zap.Logger,
) *ResilientConnector {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a backend failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &ResilientConnector{
		inner:   inner,
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Name identifies the wrapped connector
func (r *ResilientConnector) Name() string {
	return r.inner.Name()
}

// State returns the circuit breaker state
func (r *ResilientConnector) State() gobreaker.State {
	return r.cb.State()
}

// Generate calls the wrapped generator through the breaker
func (r *ResilientConnector) Generate(ctx context.Context, prompt string) (*aggregates.Graph, error) {
	var graph *aggregates.Graph
	err := r.call(ctx, "generate", func(ctx context.Context) error {
		var err error
		graph, err = r.inner.Generate(ctx, prompt)
		return err
	})
	return graph, err
}

// Respond calls the wrapped connector through the breaker
func (r *ResilientConnector) Respond(ctx context.Context, utterance string, current *aggregates.Graph) (*intent.Response, error) {
	var resp *intent.Response
	err := r.call(ctx, "respond", func(ctx context.Context) error {
		var err error
		resp, err = r.inner.Respond(ctx, utterance, current)
		return err
	})
	return resp, err
}

func (r *ResilientConnector) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Wait fails early when the deadline would pass before a token frees up
		return pkgerrors.NewRateLimitError(r.limiter.Burst(), "second")
	}

	start := time.Now()
	_, err := r.cb.Execute(func() (interface{}, error) {
		if r.tracer == nil {
			return nil, fn(ctx)
		}
		return nil, r.tracer.TraceFunction(ctx, "ai."+operation, fn)
	})
	r.metrics.RecordConnectorCall(operation, err == nil, time.Since(start))

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		r.logger.Warn("AI connector circuit open, rejecting call", zap.String("operation", operation))
		return pkgerrors.NewUnavailableError("ai connector").WithCause(err)
	default:
		return err
	}
}
