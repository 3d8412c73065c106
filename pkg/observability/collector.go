package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	Generations       *prometheus.CounterVec
	GenerationLatency prometheus.Histogram
	Patches           *prometheus.CounterVec
	PatchOperations   prometheus.Counter
	Turns             *prometheus.CounterVec
	TurnLatency       *prometheus.HistogramVec
	QueueDepth        prometheus.Gauge

	// Connector metrics
	ConnectorCalls    *prometheus.CounterVec
	ConnectorDuration *prometheus.HistogramVec

	// Persistence metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Bus metrics
	Commands *prometheus.CounterVec
	Queries  *prometheus.CounterVec

	cloud *CloudWatchMetrics
}

// NewCollector creates a collector with its own registry.
// cloud may be nil; when set, command executions are also sent to CloudWatch.
func NewCollector(namespace string, cloud *CloudWatchMetrics) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		cloud:    cloud,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_generations_total",
			Help:      "Graph generations by status",
		}, []string{"status"}),
		GenerationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_generation_duration_seconds",
			Help:      "Time to generate a graph from a prompt",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		Patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_patches_total",
			Help:      "Graph patches by outcome",
		}, []string{"outcome"}),
		PatchOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_patch_operations_total",
			Help:      "Operations contained in submitted patches",
		}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by intent and outcome",
		}, []string{"intent", "outcome"}),
		TurnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_turn_duration_seconds",
			Help:      "Time from submission to completion of a chat turn",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_queue_depth",
			Help:      "Chat turns waiting for classification",
		}),
		ConnectorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_calls_total",
			Help:      "AI connector calls by operation and status",
		}, []string{"operation", "status"}),
		ConnectorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connector_call_duration_seconds",
			Help:      "AI connector call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Snapshot store operations by status",
		}, []string{"operation", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Snapshot store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed by type and status",
		}, []string{"command", "status"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries executed by type and status",
		}, []string{"query", "status"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Generations,
		c.GenerationLatency,
		c.Patches,
		c.PatchOperations,
		c.Turns,
		c.TurnLatency,
		c.QueueDepth,
		c.ConnectorCalls,
		c.ConnectorDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.Commands,
		c.Queries,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordGeneration records one graph generation
func (c *Collector) RecordGeneration(success bool, duration time.Duration) {
	c.Generations.WithLabelValues(status(success)).Inc()
	c.GenerationLatency.Observe(duration.Seconds())
}

// RecordPatch records one patch application attempt
func (c *Collector) RecordPatch(outcome string, operations int) {
	c.Patches.WithLabelValues(outcome).Inc()
	c.PatchOperations.Add(float64(operations))
}

// RecordTurn records one completed chat turn
func (c *Collector) RecordTurn(intent, outcome string, duration time.Duration) {
	if intent == "" {
		intent = "none"
	}
	c.Turns.WithLabelValues(intent, outcome).Inc()
	c.TurnLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordConnectorCall records one AI connector call
func (c *Collector) RecordConnectorCall(operation string, success bool, duration time.Duration) {
	c.ConnectorCalls.WithLabelValues(operation, status(success)).Inc()
	c.ConnectorDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPersistence records one snapshot store operation
func (c *Collector) RecordPersistence(operation string, success bool, duration time.Duration) {
	c.StoreOperations.WithLabelValues(operation, status(success)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetQueueDepth records the number of waiting chat turns
func (c *Collector) SetQueueDepth(depth int) {
	c.QueueDepth.Set(float64(depth))
}

// RecordCommand records one command bus execution
func (c *Collector) RecordCommand(ctx context.Context, command string, success bool, duration time.Duration) {
	c.Commands.WithLabelValues(command, status(success)).Inc()
	c.cloud.RecordCommandExecution(ctx, command, duration, success)
}

// RecordQuery records one query bus execution
func (c *Collector) RecordQuery(query string, success bool, duration time.Duration) {
	c.Queries.WithLabelValues(query, status(success)).Inc()
}

// HTTPMiddleware records request counts and latency per route pattern
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
