package queries

import (
	"time"

	"canvas-ai/application/snapshot"
	"canvas-ai/domain/chat"
	"canvas-ai/domain/core/aggregates"
	pkgerrors "canvas-ai/pkg/errors"
)

// GetGraphQuery retrieves the current graph
type GetGraphQuery struct{}

func (q GetGraphQuery) Validate() error { return nil }

// GetGraphResult represents the query result
type GetGraphResult struct {
	Graph    *aggregates.Graph    `json:"-"`
	Nodes    []snapshot.NodeDoc   `json:"nodes"`
	Edges    []snapshot.EdgeDoc   `json:"edges"`
	Metadata snapshot.MetadataDoc `json:"metadata"`
	Stats    GraphStats           `json:"stats"`
	Empty    bool                 `json:"empty"`
	CanUndo  bool                 `json:"canUndo"`
}

// GraphStats summarizes the graph
type GraphStats struct {
	NodeCount int     `json:"nodeCount"`
	EdgeCount int     `json:"edgeCount"`
	Density   float64 `json:"density"`
}

// NewGetGraphResult builds the read model for a graph
func NewGetGraphResult(g *aggregates.Graph, canUndo bool) *GetGraphResult {
	result := &GetGraphResult{
		Graph:   g,
		Nodes:   make([]snapshot.NodeDoc, 0, g.NodeCount()),
		Edges:   make([]snapshot.EdgeDoc, 0, g.EdgeCount()),
		Empty:   g.IsEmpty(),
		CanUndo: canUndo,
	}
	for _, n := range g.Nodes() {
		result.Nodes = append(result.Nodes, snapshot.NodeToDoc(n))
	}
	for _, e := range g.Edges() {
		result.Edges = append(result.Edges, snapshot.EdgeToDoc(e))
	}

	meta := g.Metadata()
	result.Metadata = snapshot.MetadataDoc{Version: meta.Version, Created: meta.CreatedAt, Revision: meta.Revision}

	n := float64(g.NodeCount())
	result.Stats = GraphStats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()}
	if n > 1 {
		result.Stats.Density = float64(g.EdgeCount()) / (n * (n - 1))
	}
	return result
}

// GetChatLogQuery retrieves chat messages after a sequence number
type GetChatLogQuery struct {
	Since int `json:"since"`
}

func (q GetChatLogQuery) Validate() error {
	if q.Since < 0 {
		return pkgerrors.NewValidationError("since must not be negative")
	}
	return nil
}

// GetChatLogResult represents the query result
type GetChatLogResult struct {
	Messages []chat.Message `json:"messages"`
	LastSeq  int            `json:"lastSeq"`
	Pending  int            `json:"pending"`
}

// ExportGraphQuery renders the graph as a downloadable document
type ExportGraphQuery struct{}

func (q ExportGraphQuery) Validate() error { return nil }

// ExportGraphResult represents the query result
type ExportGraphResult struct {
	FileName    string
	ContentType string
	Data        []byte
	ExportedAt  time.Time
}

// GetEditStateQuery retrieves the editor state
type GetEditStateQuery struct{}

func (q GetEditStateQuery) Validate() error { return nil }

// EditStateResult represents the query result
type EditStateResult struct {
	State  string `json:"state"`
	NodeID string `json:"nodeId,omitempty"`
	Draft  string `json:"draft,omitempty"`
}
