package events

import (
	"time"

	"canvas-ai/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// GraphAggregateID identifies the single graph owned by an application instance
const GraphAggregateID = "canvas"

// Event type names
const (
	TypeGraphGenerated    = "graph.generated"
	TypeGraphPatched      = "graph.patched"
	TypeNodeUpdated       = "graph.node_updated"
	TypeGraphCleared      = "graph.cleared"
	TypeGraphRestored     = "graph.restored"
	TypeChatTurnCompleted = "chat.turn_completed"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, revision int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     revision,
	}
}

// Graph Events

// GraphGenerated is raised when a prompt produced a new graph
type GraphGenerated struct {
	BaseEvent
	Prompt    string `json:"prompt"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// NewGraphGenerated creates a GraphGenerated event
func NewGraphGenerated(prompt string, nodeCount, edgeCount, revision int, timestamp time.Time) GraphGenerated {
	return GraphGenerated{
		BaseEvent: newBase(GraphAggregateID, TypeGraphGenerated, revision, timestamp),
		Prompt:    prompt,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}

// GraphPatched is raised when a patch was applied atomically
type GraphPatched struct {
	BaseEvent
	Operations []string `json:"operations"`
}

// NewGraphPatched creates a GraphPatched event
func NewGraphPatched(operations []string, revision int, timestamp time.Time) GraphPatched {
	return GraphPatched{
		BaseEvent:  newBase(GraphAggregateID, TypeGraphPatched, revision, timestamp),
		Operations: operations,
	}
}

// NodeUpdated is raised when a single node was edited in place
type NodeUpdated struct {
	BaseEvent
	NodeID   valueobjects.NodeID `json:"node_id"`
	OldTitle string              `json:"old_title"`
	NewTitle string              `json:"new_title"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(nodeID valueobjects.NodeID, oldTitle, newTitle string, revision int, timestamp time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent: newBase(GraphAggregateID, TypeNodeUpdated, revision, timestamp),
		NodeID:    nodeID,
		OldTitle:  oldTitle,
		NewTitle:  newTitle,
	}
}

// GraphCleared is raised when the canvas was reset to the prompt-entry state
type GraphCleared struct {
	BaseEvent
}

// NewGraphCleared creates a GraphCleared event
func NewGraphCleared(timestamp time.Time) GraphCleared {
	return GraphCleared{
		BaseEvent: newBase(GraphAggregateID, TypeGraphCleared, 0, timestamp),
	}
}

// GraphRestored is raised when the last change was undone
type GraphRestored struct {
	BaseEvent
}

// NewGraphRestored creates a GraphRestored event
func NewGraphRestored(revision int, timestamp time.Time) GraphRestored {
	return GraphRestored{
		BaseEvent: newBase(GraphAggregateID, TypeGraphRestored, revision, timestamp),
	}
}

// Chat Events

// ChatTurnCompleted is raised when the router finished processing one user message
type ChatTurnCompleted struct {
	BaseEvent
	TurnID  string `json:"turn_id"`
	Intent  string `json:"intent"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// NewChatTurnCompleted creates a ChatTurnCompleted event
func NewChatTurnCompleted(turnID, intent, outcome, errText string, timestamp time.Time) ChatTurnCompleted {
	return ChatTurnCompleted{
		BaseEvent: newBase(turnID, TypeChatTurnCompleted, 1, timestamp),
		TurnID:    turnID,
		Intent:    intent,
		Outcome:   outcome,
		Error:     errText,
	}
}
