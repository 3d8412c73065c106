package handlers

import (
	"net/http"
	"strconv"

	"canvas-ai/application/commands"
	"canvas-ai/application/commands/bus"
	"canvas-ai/application/queries"
	querybus "canvas-ai/application/queries/bus"
	"canvas-ai/application/services"
	pkgerrors "canvas-ai/pkg/errors"

	"go.uber.org/zap"
)

// ChatHandler handles the chat sidebar
type ChatHandler struct {
	base
}

// NewChatHandler creates a new chat handler
func NewChatHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{base: newBase(commandBus, queryBus, errorHandler, logger)}
}

// ListMessages handles GET /chat/messages?since=N
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, pkgerrors.NewValidationError("since must be an integer"))
			return
		}
		since = n
	}

	result, err := ask[*queries.GetChatLogResult](r.Context(), h.queryBus, queries.GetChatLogQuery{Since: since})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, result)
}

// SendMessage handles POST /chat/messages.
// By default it waits for the turn; with "wait": false it answers 202 once queued.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	wait := req.Wait == nil || *req.Wait

	turn, err := send[*services.Turn](r.Context(), h.commandBus, commands.SendChatMessageCommand{Text: req.Text, Wait: wait})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := toTurnResponse(turn)
	if !wait {
		h.respondJSON(w, r, http.StatusAccepted, resp)
		return
	}

	if turn.Outcome() == services.TurnRepliedAndPatched {
		graph, err := h.graph(r.Context())
		if err != nil {
			h.logger.Warn("Failed to read graph after turn", zap.String("turnID", turn.ID), zap.Error(err))
		} else {
			resp.Graph = graph
		}
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}
