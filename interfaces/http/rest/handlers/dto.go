package handlers

import (
	"time"

	"canvas-ai/application/queries"
	"canvas-ai/application/services"
	"canvas-ai/application/snapshot"
	"canvas-ai/domain/chat"
)

// Request bodies

// GenerateRequest is the body of POST /graph/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// UpdateNodeRequest is the body of PATCH /graph/nodes/{nodeID}
type UpdateNodeRequest struct {
	Title    *string               `json:"title,omitempty" validate:"omitempty,max=1000"`
	Body     *string               `json:"body,omitempty"`
	Type     *string               `json:"type,omitempty" validate:"omitempty,oneof=topic action note"`
	Position *snapshot.PositionDoc `json:"position,omitempty"`
}

// ApplyPatchRequest is the body of POST /graph/patch
type ApplyPatchRequest struct {
	Operations []snapshot.OperationDoc `json:"operations" validate:"dive"`
}

// SendMessageRequest is the body of POST /chat/messages
type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
	Wait *bool  `json:"wait,omitempty"`
}

// BeginEditRequest is the body of POST /edit/begin
type BeginEditRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// DraftRequest is the body of PUT /edit/draft
type DraftRequest struct {
	Title string `json:"title"`
}

// Responses

// TurnResponse describes a chat turn
type TurnResponse struct {
	ID          string         `json:"id"`
	State       string         `json:"state"`
	Outcome     string         `json:"outcome,omitempty"`
	Intent      string         `json:"intent,omitempty"`
	Reply       *chat.Message  `json:"reply,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Graph       *GraphResponse `json:"graph,omitempty"`
}

// GraphResponse is the graph read model
type GraphResponse = queries.GetGraphResult

// EditResponse describes the editor
type EditResponse struct {
	State             string `json:"state"`
	NodeID            string `json:"nodeId,omitempty"`
	Draft             string `json:"draft,omitempty"`
	PreviousCancelled bool   `json:"previousCancelled,omitempty"`
	PreviousNodeID    string `json:"previousNodeId,omitempty"`
}

// CommitResponse reports an edit commit
type CommitResponse struct {
	Committed bool           `json:"committed"`
	NodeID    string         `json:"nodeId"`
	Graph     *GraphResponse `json:"graph,omitempty"`
}

func toTurnResponse(t *services.Turn) TurnResponse {
	resp := TurnResponse{
		ID:          t.ID,
		State:       string(t.State()),
		Outcome:     string(t.Outcome()),
		Intent:      string(t.Intent()),
		SubmittedAt: t.SubmittedAt,
	}
	if reply := t.Reply(); reply.ID != "" {
		resp.Reply = &reply
	}
	if err := t.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func toEditResponse(s services.EditSnapshot) EditResponse {
	return EditResponse{
		State:  string(s.State),
		NodeID: s.NodeID.String(),
		Draft:  s.Draft,
	}
}
