package ports

import (
	"context"

	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/intent"
)

// AIConnector classifies a user utterance against the current graph.
// Implementations receive a copy of the graph and must not retain it.
// Callers bound latency through ctx.
type AIConnector interface {
	Respond(ctx context.Context, utterance string, current *aggregates.Graph) (*intent.Response, error)
}

// GraphGenerator turns a natural-language prompt into a new graph
type GraphGenerator interface {
	Generate(ctx context.Context, prompt string) (*aggregates.Graph, error)
}

// Connector is implemented by backends that provide both operations
type Connector interface {
	AIConnector
	GraphGenerator

	// Name identifies the backend in logs and metrics
	Name() string
}
