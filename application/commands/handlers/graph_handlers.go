package handlers

import (
	"context"

	"canvas-ai/application/commands"
	"canvas-ai/application/services"
	"canvas-ai/domain/chat"
	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
	"go.uber.org/zap"
)

// GraphHandlers handles commands that mutate the graph
type GraphHandlers struct {
	graphs *services.GraphStore
	edits  *services.EditSession
	router *services.IntentRouter
	config *config.DomainConfig
	logger *zap.Logger
}

// NewGraphHandlers creates the graph command handlers
func NewGraphHandlers(
	graphs *services.GraphStore,
	edits *services.EditSession,
	router *services.IntentRouter,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GraphHandlers {
	return &GraphHandlers{
		graphs: graphs,
		edits:  edits,
		router: router,
		config: cfg,
		logger: logger,
	}
}

// HandleGenerate executes the generate graph command
func (h *GraphHandlers) HandleGenerate(ctx context.Context, cmd commands.GenerateGraphCommand) (*aggregates.Graph, error) {
	graph, err := h.graphs.Generate(ctx, cmd.Prompt)
	if err != nil {
		return nil, err
	}
	// A new graph invalidates any open edit
	h.edits.Cancel()

	h.logger.Info("Graph generated",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
	return graph, nil
}

// HandleApplyPatch executes the apply patch command
func (h *GraphHandlers) HandleApplyPatch(ctx context.Context, cmd commands.ApplyPatchCommand) (*aggregates.Graph, error) {
	patch, err := cmd.Patch.ToPatch(h.config)
	if err != nil {
		return nil, err
	}
	return h.graphs.ApplyPatch(ctx, patch)
}

// HandleUpdateNode executes the update node command
func (h *GraphHandlers) HandleUpdateNode(ctx context.Context, cmd commands.UpdateNodeCommand) (*aggregates.Graph, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid node ID: " + err.Error())
	}
	fields, err := cmd.Fields().ToNodeFields()
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return h.graphs.UpdateNode(ctx, nodeID, fields)
}

// HandleClear executes the clear graph command
func (h *GraphHandlers) HandleClear(ctx context.Context, cmd commands.ClearGraphCommand) (struct{}, error) {
	if err := h.graphs.Clear(ctx); err != nil {
		return struct{}{}, err
	}
	h.edits.Cancel()
	// Queued behind pending chat turns so each user message stays next to its reply
	h.router.Notify(chat.ClearedNotice)
	return struct{}{}, nil
}

// HandleUndo executes the undo last change command
func (h *GraphHandlers) HandleUndo(ctx context.Context, cmd commands.UndoLastChangeCommand) (*aggregates.Graph, error) {
	return h.graphs.Undo(ctx)
}
