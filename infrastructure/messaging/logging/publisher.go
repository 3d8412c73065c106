// Package logging provides event publishers that do not leave the process.
package logging

import (
	"context"
	"errors"
	"sync"

	"canvas-ai/application/ports"
	"canvas-ai/domain/events"

	"go.uber.org/zap"
)

// Publisher writes every event to the log
type Publisher struct {
	logger *zap.Logger
}

// NewPublisher creates a log-only publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int("version", event.GetVersion()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		_ = p.Publish(ctx, event)
	}
	return nil
}

// FanOut delivers every event to all publishers and joins their errors
type FanOut []ports.EventPublisher

func (f FanOut) Publish(ctx context.Context, event events.DomainEvent) error {
	return f.PublishBatch(ctx, []events.DomainEvent{event})
}

func (f FanOut) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishBatch(ctx, domainEvents); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (r *Recorder) Publish(ctx context.Context, event events.DomainEvent) error {
	return r.PublishBatch(ctx, []events.DomainEvent{event})
}

func (r *Recorder) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	r.mu.Lock()
	r.events = append(r.events, domainEvents...)
	r.mu.Unlock()
	return nil
}

// Events returns the events recorded so far
func (r *Recorder) Events() []events.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}
