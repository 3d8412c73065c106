// Package persistence holds decorators shared by the snapshot store backends.
package persistence

import (
	"context"

	"canvas-ai/application/ports"
	"canvas-ai/pkg/observability"
)

// TracedSnapshotStore records an X-Ray subsegment around every store call
type TracedSnapshotStore struct {
	inner   ports.SnapshotStore
	tracer  *observability.Tracer
	backend string
}

// NewTracedSnapshotStore wraps inner; a nil tracer returns inner unchanged
func NewTracedSnapshotStore(inner ports.SnapshotStore, tracer *observability.Tracer, backend string) ports.SnapshotStore {
	if tracer == nil {
		return inner
	}
	return &TracedSnapshotStore{inner: inner, tracer: tracer, backend: backend}
}

func (s *TracedSnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := s.tracer.TraceFunction(ctx, s.backend+".Get", func(ctx context.Context) error {
		var err error
		data, found, err = s.inner.Get(ctx, key)
		return err
	})
	return data, found, err
}

func (s *TracedSnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	return s.tracer.TraceFunction(ctx, s.backend+".Put", func(ctx context.Context) error {
		return s.inner.Put(ctx, key, data)
	})
}

func (s *TracedSnapshotStore) Delete(ctx context.Context, key string) error {
	return s.tracer.TraceFunction(ctx, s.backend+".Delete", func(ctx context.Context) error {
		return s.inner.Delete(ctx, key)
	})
}
