package handlers

import (
	"net/http"
	"strconv"

	"canvas-ai/application/commands"
	"canvas-ai/application/commands/bus"
	"canvas-ai/application/queries"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/application/snapshot"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/pkg/common"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	base
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	result, err := h.graph(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, result)
}

// Generate handles POST /graph/generate
func (h *GraphHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := send[*aggregates.Graph](r.Context(), h.commandBus, commands.GenerateGraphCommand{Prompt: req.Prompt}); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondGraph(w, r, http.StatusCreated)
}

// ApplyPatch handles POST /graph/patch
func (h *GraphHandler) ApplyPatch(w http.ResponseWriter, r *http.Request) {
	var req ApplyPatchRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cmd := commands.ApplyPatchCommand{Patch: snapshot.PatchDoc{Operations: req.Operations}}
	if _, err := send[*aggregates.Graph](r.Context(), h.commandBus, cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondGraph(w, r, http.StatusOK)
}

// UpdateNode handles PATCH /graph/nodes/{nodeID}
func (h *GraphHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cmd := commands.UpdateNodeCommand{
		NodeID:   chi.URLParam(r, "nodeID"),
		Title:    req.Title,
		Body:     req.Body,
		Type:     req.Type,
		Position: req.Position,
	}
	if _, err := send[*aggregates.Graph](r.Context(), h.commandBus, cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondGraph(w, r, http.StatusOK)
}

// Clear handles DELETE /graph?confirm=true
func (h *GraphHandler) Clear(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	if _, err := h.commandBus.Send(r.Context(), commands.ClearGraphCommand{Confirm: confirm}); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info("Canvas cleared", zap.String("remoteAddr", r.RemoteAddr))
	h.respondGraph(w, r, http.StatusOK)
}

// Undo handles POST /graph/undo
func (h *GraphHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if _, err := send[*aggregates.Graph](r.Context(), h.commandBus, commands.UndoLastChangeCommand{}); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondGraph(w, r, http.StatusOK)
}

// Export handles GET /graph/export
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := ask[*queries.ExportGraphResult](r.Context(), h.queryBus, queries.ExportGraphQuery{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondFile(w, result.FileName, result.ContentType, result.Data)
}

func (h *GraphHandler) respondGraph(w http.ResponseWriter, r *http.Request, status int) {
	result, err := h.graph(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, status, result)
}
