package ports

import (
	"context"
	"time"

	"canvas-ai/domain/events"
)

// DefaultSnapshotKey is the key under which the graph document is stored
const DefaultSnapshotKey = "canvas-ai-storage"

// SnapshotStore defines the interface for graph document persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SnapshotStore interface {
	// Get returns the stored bytes; found is false when nothing was ever written
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Put replaces the value for key, durably, before returning
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the value; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Metrics records application-level measurements
type Metrics interface {
	RecordGeneration(success bool, duration time.Duration)
	RecordPatch(outcome string, operations int)
	RecordTurn(intent, outcome string, duration time.Duration)
	RecordConnectorCall(operation string, success bool, duration time.Duration)
	RecordPersistence(operation string, success bool, duration time.Duration)
	SetQueueDepth(depth int)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordGeneration(bool, time.Duration)            {}
func (NoopMetrics) RecordPatch(string, int)                         {}
func (NoopMetrics) RecordTurn(string, string, time.Duration)        {}
func (NoopMetrics) RecordConnectorCall(string, bool, time.Duration) {}
func (NoopMetrics) RecordPersistence(string, bool, time.Duration)   {}
func (NoopMetrics) SetQueueDepth(int)                               {}
