package handlers

import (
	"context"
	"fmt"
	"time"

	"canvas-ai/application/queries"
	"canvas-ai/application/queries/bus"
	"canvas-ai/application/services"
	"canvas-ai/application/snapshot"
	"canvas-ai/domain/chat"
)

// QueryHandlers serves the read side of the canvas
type QueryHandlers struct {
	graphs  *services.GraphStore
	session *chat.Session
	router  *services.IntentRouter
	edits   *services.EditSession
}

// NewQueryHandlers creates the query handlers
func NewQueryHandlers(
	graphs *services.GraphStore,
	session *chat.Session,
	router *services.IntentRouter,
	edits *services.EditSession,
) *QueryHandlers {
	return &QueryHandlers{
		graphs:  graphs,
		session: session,
		router:  router,
		edits:   edits,
	}
}

// HandleGetGraph executes the get graph query
func (h *QueryHandlers) HandleGetGraph(ctx context.Context, q queries.GetGraphQuery) (*queries.GetGraphResult, error) {
	return queries.NewGetGraphResult(h.graphs.Current(), h.graphs.CanUndo()), nil
}

// HandleGetChatLog executes the get chat log query
func (h *QueryHandlers) HandleGetChatLog(ctx context.Context, q queries.GetChatLogQuery) (*queries.GetChatLogResult, error) {
	messages := h.session.Since(q.Since)
	return &queries.GetChatLogResult{
		Messages: messages,
		LastSeq:  h.session.Len(),
		Pending:  h.router.Pending(),
	}, nil
}

// HandleExportGraph executes the export graph query
func (h *QueryHandlers) HandleExportGraph(ctx context.Context, q queries.ExportGraphQuery) (*queries.ExportGraphResult, error) {
	data, err := h.graphs.Export(ctx)
	if err != nil {
		return nil, err
	}
	return &queries.ExportGraphResult{
		FileName:    snapshot.ExportFileName,
		ContentType: "application/json",
		Data:        data,
		ExportedAt:  time.Now().UTC(),
	}, nil
}

// HandleGetEditState executes the get edit state query
func (h *QueryHandlers) HandleGetEditState(ctx context.Context, q queries.GetEditStateQuery) (*queries.EditStateResult, error) {
	snap := h.edits.Snapshot()
	return &queries.EditStateResult{
		State:  string(snap.State),
		NodeID: snap.NodeID.String(),
		Draft:  snap.Draft,
	}, nil
}

// RegisterAll wires every query handler onto the bus
func (h *QueryHandlers) RegisterAll(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetGraphQuery{}, adapt(h.HandleGetGraph)},
		{queries.GetChatLogQuery{}, adapt(h.HandleGetChatLog)},
		{queries.ExportGraphQuery{}, adapt(h.HandleExportGraph)},
		{queries.GetEditStateQuery{}, adapt(h.HandleGetEditState)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func adapt[Q bus.Query, R any](handle func(context.Context, Q) (R, error)) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		return handle(ctx, typed)
	})
}
