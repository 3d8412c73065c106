package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"canvas-ai/application/ports"
	"canvas-ai/application/snapshot"
	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	"canvas-ai/domain/events"
	pkgerrors "canvas-ai/pkg/errors"
	"go.uber.org/zap"
)

// GraphStore is the single owner of the current graph.
// Every mutation is written to the snapshot store before the in-memory graph
// is replaced, so a failed write leaves both sides unchanged.
type GraphStore struct {
	mu        sync.RWMutex
	store     ports.SnapshotStore
	generator ports.GraphGenerator
	publisher ports.EventPublisher
	metrics   ports.Metrics
	config    *config.DomainConfig
	key       string
	logger    *zap.Logger

	current  *aggregates.Graph
	previous *aggregates.Graph
}

// NewGraphStore creates a graph store in the prompt-entry state.
// Call Load to restore persisted state.
func NewGraphStore(
	store ports.SnapshotStore,
	generator ports.GraphGenerator,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	key string,
	logger *zap.Logger,
) *GraphStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if key == "" {
		key = ports.DefaultSnapshotKey
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &GraphStore{
		store:     store,
		generator: generator,
		publisher: publisher,
		metrics:   metrics,
		config:    cfg,
		key:       key,
		logger:    logger,
		current:   aggregates.NewGraph(cfg),
	}
}

// Load restores the graph from storage.
// Missing, malformed or invalid documents yield an empty graph and a warning.
func (s *GraphStore) Load(ctx context.Context) (*aggregates.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	data, found, err := s.store.Get(ctx, s.key)
	s.metrics.RecordPersistence("load", err == nil, time.Since(start))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load graph", err)
	}

	s.previous = nil
	if !found {
		s.logger.Info("No persisted graph found, starting empty", zap.String("key", s.key))
		s.current = aggregates.NewGraph(s.config)
		return s.current.Clone(), nil
	}

	graph, previous, report, err := snapshot.DecodeState(data, s.config)
	if err != nil {
		s.logger.Warn("Discarding unreadable persisted graph",
			zap.String("key", s.key),
			zap.Error(err),
		)
		s.current = aggregates.NewGraph(s.config)
		return s.current.Clone(), nil
	}
	if !report.Clean() {
		s.logger.Warn("Dropped invalid elements from persisted graph",
			zap.Strings("nodes", report.DroppedNodes),
			zap.Strings("edges", report.DroppedEdges),
		)
	}

	s.current = graph
	s.previous = previous
	s.logger.Info("Graph restored",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("revision", graph.Revision()),
		zap.Bool("undoable", previous != nil),
	)
	return s.current.Clone(), nil
}

// Generate replaces the current graph with one produced from the prompt
func (s *GraphStore) Generate(ctx context.Context, prompt string) (*aggregates.Graph, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, pkgerrors.NewGenerationError("prompt cannot be empty")
	}
	if len([]rune(prompt)) > s.config.MaxPromptLength {
		return nil, pkgerrors.NewValidationError("prompt is too long")
	}

	start := time.Now()
	generated, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.metrics.RecordGeneration(false, time.Since(start))
		s.logger.Warn("Graph generation failed", zap.Error(err))
		return nil, pkgerrors.NewGenerationError("could not generate a graph from the prompt").WithCause(err)
	}
	if generated == nil {
		s.metrics.RecordGeneration(false, time.Since(start))
		return nil, pkgerrors.NewGenerationError("generator returned no graph")
	}

	graph, report, err := snapshot.Sanitize(generated, s.config)
	if err != nil {
		s.metrics.RecordGeneration(false, time.Since(start))
		return nil, pkgerrors.NewGenerationError("generated graph is invalid").WithCause(err)
	}
	if !report.Clean() {
		s.logger.Warn("Dropped invalid elements from generated graph",
			zap.Strings("nodes", report.DroppedNodes),
			zap.Strings("edges", report.DroppedEdges),
		)
	}
	if graph.IsEmpty() {
		s.metrics.RecordGeneration(false, time.Since(start))
		return nil, pkgerrors.NewGenerationError("generated graph has no nodes")
	}

	graph.RaiseEvent(events.NewGraphGenerated(prompt, graph.NodeCount(), graph.EdgeCount(), graph.Revision(), time.Now().UTC()))

	s.mu.Lock()
	pending, err := s.commit(ctx, graph, false)
	result := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordGeneration(false, time.Since(start))
		return nil, err
	}

	s.metrics.RecordGeneration(true, time.Since(start))
	s.publish(ctx, pending)
	return result, nil
}

// ApplyPatch applies all operations of the patch or none of them.
// An empty patch changes nothing and writes nothing.
func (s *GraphStore) ApplyPatch(ctx context.Context, patch *aggregates.GraphPatch) (*aggregates.Graph, error) {
	s.mu.Lock()
	if patch.IsEmpty() {
		result := s.snapshotLocked()
		s.mu.Unlock()
		s.metrics.RecordPatch("empty", 0)
		return result, nil
	}

	next, err := s.current.ApplyPatch(patch)
	if err != nil {
		s.mu.Unlock()
		s.metrics.RecordPatch("conflict", patch.Len())
		s.logger.Info("Patch rejected", zap.Error(err))
		return nil, err
	}

	pending, err := s.commit(ctx, next, true)
	result := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordPatch("failed", patch.Len())
		return nil, err
	}

	s.metrics.RecordPatch("applied", patch.Len())
	s.publish(ctx, pending)
	return result, nil
}

// UpdateNode edits a single node in place
func (s *GraphStore) UpdateNode(ctx context.Context, nodeID valueobjects.NodeID, fields entities.NodeFields) (*aggregates.Graph, error) {
	s.mu.Lock()
	if !s.current.HasNode(nodeID) {
		s.mu.Unlock()
		return nil, pkgerrors.NewNotFoundError("node " + nodeID.String())
	}
	if fields.IsEmpty() {
		result := s.snapshotLocked()
		s.mu.Unlock()
		return result, nil
	}

	next, err := s.current.EditNode(nodeID, fields)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	pending, err := s.commit(ctx, next, true)
	result := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return result, nil
}

// Undo restores the graph as it was before the last patch or node edit
func (s *GraphStore) Undo(ctx context.Context) (*aggregates.Graph, error) {
	s.mu.Lock()
	if s.previous == nil {
		s.mu.Unlock()
		return nil, pkgerrors.NewNotFoundError("change to undo")
	}

	restored := s.previous.Clone()
	restored.RaiseEvent(events.NewGraphRestored(restored.Revision(), time.Now().UTC()))

	pending, err := s.commit(ctx, restored, false)
	result := s.snapshotLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Last change undone", zap.Int("revision", result.Revision()))
	s.publish(ctx, pending)
	return result, nil
}

// Clear discards the current graph and its persisted copy
func (s *GraphStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	start := time.Now()
	err := s.store.Delete(ctx, s.key)
	s.metrics.RecordPersistence("delete", err == nil, time.Since(start))
	if err != nil {
		s.mu.Unlock()
		return pkgerrors.NewDatabaseError("clear graph", err)
	}
	s.current = aggregates.NewGraph(s.config)
	s.previous = nil
	s.mu.Unlock()

	s.logger.Info("Graph cleared")
	s.publish(ctx, []events.DomainEvent{events.NewGraphCleared(time.Now().UTC())})
	return nil
}

// Export returns the current graph as a pretty-printed JSON document
func (s *GraphStore) Export(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := snapshot.EncodeIndent(s.current)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode graph").WithCause(err)
	}
	return data, nil
}

// Current returns a copy of the current graph
func (s *GraphStore) Current() *aggregates.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsEmpty reports whether the canvas is in the prompt-entry state
func (s *GraphStore) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.IsEmpty()
}

// CanUndo reports whether a change can be undone
func (s *GraphStore) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous != nil
}

// GetNode returns a copy of one node
func (s *GraphStore) GetNode(nodeID valueobjects.NodeID) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, err := s.current.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return node.Clone(), nil
}

// commit persists next, with the undo snapshot in the same write, and swaps it in.
// The caller holds the write lock. It returns the events raised on next for publishing after unlock.
func (s *GraphStore) commit(ctx context.Context, next *aggregates.Graph, keepUndo bool) ([]events.DomainEvent, error) {
	var previous *aggregates.Graph
	if keepUndo {
		previous = s.current
	}
	data, err := snapshot.EncodeState(next, previous)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode graph").WithCause(err)
	}

	start := time.Now()
	err = s.store.Put(ctx, s.key, data)
	s.metrics.RecordPersistence("save", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("Failed to persist graph",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return nil, pkgerrors.NewDatabaseError("save graph", err)
	}

	s.previous = previous
	pending := next.GetUncommittedEvents()
	next.MarkEventsAsCommitted()
	s.current = next
	return pending, nil
}

func (s *GraphStore) snapshotLocked() *aggregates.Graph {
	return s.current.Clone()
}

func (s *GraphStore) publish(ctx context.Context, pending []events.DomainEvent) {
	if s.publisher == nil || len(pending) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		// Log but don't fail - the mutation is already persisted
		s.logger.Warn("Failed to publish graph events",
			zap.Int("count", len(pending)),
			zap.Error(err),
		)
	}
}
