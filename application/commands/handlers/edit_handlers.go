package handlers

import (
	"context"

	"canvas-ai/application/commands"
	"canvas-ai/application/services"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
)

// EditHandlers handles the in-place node editor commands
type EditHandlers struct {
	edits *services.EditSession
}

// NewEditHandlers creates the edit command handlers
func NewEditHandlers(edits *services.EditSession) *EditHandlers {
	return &EditHandlers{edits: edits}
}

// HandleBegin executes the begin edit command
func (h *EditHandlers) HandleBegin(ctx context.Context, cmd commands.BeginEditCommand) (*services.BeginResult, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid node ID: " + err.Error())
	}
	return h.edits.Begin(nodeID)
}

// HandleUpdateDraft executes the update draft command
func (h *EditHandlers) HandleUpdateDraft(ctx context.Context, cmd commands.UpdateDraftCommand) (services.EditSnapshot, error) {
	return h.edits.SetDraft(cmd.Title)
}

// HandleCommit executes the commit edit command
func (h *EditHandlers) HandleCommit(ctx context.Context, cmd commands.CommitEditCommand) (*services.CommitResult, error) {
	return h.edits.Commit(ctx)
}

// HandleCancel executes the cancel edit command
func (h *EditHandlers) HandleCancel(ctx context.Context, cmd commands.CancelEditCommand) (services.EditSnapshot, error) {
	return h.edits.Cancel(), nil
}
