package services

import (
	"context"
	"strings"
	"sync"

	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
	"go.uber.org/zap"
)

// EditState is the state of the in-place title editor
type EditState string

const (
	EditIdle    EditState = "idle"
	EditEditing EditState = "editing"
)

// EditSnapshot is a read-only view of the editor
type EditSnapshot struct {
	State  EditState
	NodeID valueobjects.NodeID
	Draft  string
}

// BeginResult reports what Begin replaced
type BeginResult struct {
	Snapshot          EditSnapshot
	PreviousCancelled bool
	PreviousNodeID    valueobjects.NodeID
}

// CommitResult reports the outcome of Commit
type CommitResult struct {
	Committed bool
	NodeID    valueobjects.NodeID
	Graph     *aggregates.Graph
}

// EditSession holds at most one in-progress node title edit
type EditSession struct {
	mu     sync.Mutex
	graphs *GraphStore
	logger *zap.Logger

	state  EditState
	nodeID valueobjects.NodeID
	draft  string
}

// NewEditSession creates an idle edit session
func NewEditSession(graphs *GraphStore, logger *zap.Logger) *EditSession {
	return &EditSession{
		graphs: graphs,
		logger: logger,
		state:  EditIdle,
	}
}

// Snapshot returns the current editor state
func (e *EditSession) Snapshot() EditSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Begin opens an edit on a node, seeding the draft with its title.
// An edit already open on another node is cancelled.
func (e *EditSession) Begin(nodeID valueobjects.NodeID) (*BeginResult, error) {
	node, err := e.graphs.GetNode(nodeID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	result := &BeginResult{}
	if e.state == EditEditing && !e.nodeID.Equals(nodeID) {
		result.PreviousCancelled = true
		result.PreviousNodeID = e.nodeID
		e.logger.Debug("Open edit cancelled by new edit",
			zap.String("previous", e.nodeID.String()),
			zap.String("next", nodeID.String()),
		)
	}

	e.state = EditEditing
	e.nodeID = nodeID
	e.draft = node.Title()
	result.Snapshot = e.snapshotLocked()
	return result, nil
}

// SetDraft replaces the draft title
func (e *EditSession) SetDraft(title string) (EditSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EditEditing {
		return e.snapshotLocked(), pkgerrors.NewConflictError("no edit in progress")
	}
	e.draft = title
	return e.snapshotLocked(), nil
}

// Commit writes the draft title to the graph and returns to idle.
// An empty draft is rejected and the edit stays open. If the node no longer
// exists the edit is dropped without an error.
func (e *EditSession) Commit(ctx context.Context) (*CommitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EditEditing {
		return nil, pkgerrors.NewConflictError("no edit in progress")
	}

	title := strings.TrimSpace(e.draft)
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	nodeID := e.nodeID
	graph, err := e.graphs.UpdateNode(ctx, nodeID, entities.NodeFields{Title: &title})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			e.logger.Info("Edited node no longer exists, discarding edit", zap.String("nodeID", nodeID.String()))
			e.reset()
			return &CommitResult{Committed: false, NodeID: nodeID}, nil
		}
		return nil, err
	}

	e.reset()
	return &CommitResult{Committed: true, NodeID: nodeID, Graph: graph}, nil
}

// Cancel discards the draft without touching the graph
func (e *EditSession) Cancel() EditSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	return e.snapshotLocked()
}

func (e *EditSession) reset() {
	e.state = EditIdle
	e.nodeID = valueobjects.NodeID{}
	e.draft = ""
}

func (e *EditSession) snapshotLocked() EditSnapshot {
	return EditSnapshot{State: e.state, NodeID: e.nodeID, Draft: e.draft}
}
