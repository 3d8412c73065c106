package handlers

import (
	"net/http"

	"canvas-ai/application/commands"
	"canvas-ai/application/commands/bus"
	"canvas-ai/application/queries"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/application/services"
	pkgerrors "canvas-ai/pkg/errors"

	"go.uber.org/zap"
)

// EditHandler handles in-place node title editing
type EditHandler struct {
	base
}

// NewEditHandler creates a new edit handler
func NewEditHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *EditHandler {
	return &EditHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// GetState handles GET /edit
func (h *EditHandler) GetState(w http.ResponseWriter, r *http.Request) {
	result, err := ask[*queries.EditStateResult](r.Context(), h.queryBus, queries.GetEditStateQuery{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, result)
}

// Begin handles POST /edit/begin
func (h *EditHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req BeginEditRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := send[*services.BeginResult](r.Context(), h.commandBus, commands.BeginEditCommand{NodeID: req.NodeID})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := toEditResponse(result.Snapshot)
	resp.PreviousCancelled = result.PreviousCancelled
	if result.PreviousCancelled {
		resp.PreviousNodeID = result.PreviousNodeID.String()
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}

// UpdateDraft handles PUT /edit/draft
func (h *EditHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	snap, err := send[services.EditSnapshot](r.Context(), h.commandBus, commands.UpdateDraftCommand{Title: req.Title})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toEditResponse(snap))
}

// Commit handles POST /edit/commit
func (h *EditHandler) Commit(w http.ResponseWriter, r *http.Request) {
	result, err := send[*services.CommitResult](r.Context(), h.commandBus, commands.CommitEditCommand{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := CommitResponse{
		Committed: result.Committed,
		NodeID:    result.NodeID.String(),
	}
	if result.Committed {
		graph, err := h.graph(r.Context())
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		resp.Graph = graph
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}

// Cancel handles POST /edit/cancel
func (h *EditHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	snap, err := send[services.EditSnapshot](r.Context(), h.commandBus, commands.CancelEditCommand{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toEditResponse(snap))
}
