package aggregates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	"canvas-ai/domain/events"
	pkgerrors "canvas-ai/pkg/errors"
)

// DocumentVersion is the version stamped on every graph document
const DocumentVersion = "1.0.0"

// Metadata describes a graph document.
// It is excluded from Equal.
type Metadata struct {
	Version   string
	CreatedAt time.Time
	Revision  int
}

// Graph is the aggregate root for the canvas.
// It guarantees unique node and edge ids and that every edge connects two existing nodes.
type Graph struct {
	nodes    map[valueobjects.NodeID]*entities.Node
	edges    map[valueobjects.EdgeID]*entities.Edge
	metadata Metadata
	config   *config.DomainConfig
	events   []events.DomainEvent
}

// NewGraph creates an empty graph
func NewGraph(cfg *config.DomainConfig) *Graph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Graph{
		nodes: make(map[valueobjects.NodeID]*entities.Node),
		edges: make(map[valueobjects.EdgeID]*entities.Edge),
		metadata: Metadata{
			Version:   DocumentVersion,
			CreatedAt: time.Now().UTC(),
		},
		config: cfg,
		events: []events.DomainEvent{},
	}
}

// ReconstructGraph recreates a graph from stored data.
// Unlike the snapshot codec it does not drop anything: any invariant violation is an error.
func ReconstructGraph(
	nodes []*entities.Node,
	edges []*entities.Edge,
	metadata Metadata,
	cfg *config.DomainConfig,
) (*Graph, error) {
	g := NewGraph(cfg)
	if metadata.Version == "" {
		metadata.Version = DocumentVersion
	}
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = g.metadata.CreatedAt
	}
	g.metadata = metadata

	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Metadata returns the document metadata
func (g *Graph) Metadata() Metadata {
	return g.metadata
}

// Revision returns the number of mutations since creation
func (g *Graph) Revision() int {
	return g.metadata.Revision
}

// Config returns the rules the graph enforces
func (g *Graph) Config() *config.DomainConfig {
	return g.config
}

// Nodes returns the nodes sorted by id
func (g *Graph) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID().String() < nodes[j].ID().String()
	})
	return nodes
}

// Edges returns the edges sorted by id
func (g *Graph) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].ID().String() < edges[j].ID().String()
	})
	return edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// IsEmpty reports whether the graph has no nodes
func (g *Graph) IsEmpty() bool {
	return len(g.nodes) == 0
}

// GetNode retrieves a node by id
func (g *Graph) GetNode(nodeID valueobjects.NodeID) (*entities.Node, error) {
	node, exists := g.nodes[nodeID]
	if !exists {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("node %q", nodeID.String()))
	}
	return node, nil
}

// HasNode checks if a node exists in the graph
func (g *Graph) HasNode(nodeID valueobjects.NodeID) bool {
	_, exists := g.nodes[nodeID]
	return exists
}

// GetEdge retrieves an edge by id
func (g *Graph) GetEdge(edgeID valueobjects.EdgeID) (*entities.Edge, error) {
	edge, exists := g.edges[edgeID]
	if !exists {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("edge %q", edgeID.String()))
	}
	return edge, nil
}

// FindNodeByTitle returns the first node (in id order) whose title matches case-insensitively
func (g *Graph) FindNodeByTitle(title string) (*entities.Node, bool) {
	for _, n := range g.Nodes() {
		if strings.EqualFold(n.Title(), strings.TrimSpace(title)) {
			return n, true
		}
	}
	return nil, false
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("node %q already exists", node.ID().String()))
	}
	if len(g.nodes) >= g.config.MaxNodesPerGraph {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("graph has reached maximum capacity of %d nodes", g.config.MaxNodesPerGraph))
	}
	g.nodes[node.ID()] = node
	return nil
}

// RemoveNode removes a node and every edge touching it
func (g *Graph) RemoveNode(nodeID valueobjects.NodeID) error {
	if _, exists := g.nodes[nodeID]; !exists {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("node %q", nodeID.String()))
	}
	for id, edge := range g.edges {
		if edge.Touches(nodeID) {
			delete(g.edges, id)
		}
	}
	delete(g.nodes, nodeID)
	return nil
}

// UpdateNode applies a partial update to one node
func (g *Graph) UpdateNode(nodeID valueobjects.NodeID, fields entities.NodeFields) error {
	node, err := g.GetNode(nodeID)
	if err != nil {
		return err
	}
	return node.Apply(fields, g.config)
}

// AddEdge adds an edge between two existing nodes
func (g *Graph) AddEdge(edge *entities.Edge) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	if _, exists := g.edges[edge.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("edge %q already exists", edge.ID().String()))
	}
	if !g.HasNode(edge.SourceID()) {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("source node %q", edge.SourceID().String()))
	}
	if !g.HasNode(edge.TargetID()) {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("target node %q", edge.TargetID().String()))
	}
	if len(g.edges) >= g.config.MaxEdgesPerGraph {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("graph has reached maximum capacity of %d edges", g.config.MaxEdgesPerGraph))
	}
	g.edges[edge.ID()] = edge
	return nil
}

// RemoveEdge removes an edge by id
func (g *Graph) RemoveEdge(edgeID valueobjects.EdgeID) error {
	if _, exists := g.edges[edgeID]; !exists {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("edge %q", edgeID.String()))
	}
	delete(g.edges, edgeID)
	return nil
}

// ApplyPatch applies every operation to a clone and returns it.
// The receiver is never modified; on error the clone is discarded.
func (g *Graph) ApplyPatch(patch *GraphPatch) (*Graph, error) {
	next := g.Clone()
	if patch.IsEmpty() {
		return next, nil
	}

	for i, op := range patch.Operations {
		if err := next.applyOperation(op); err != nil {
			return nil, pkgerrors.NewPatchConflictError(
				fmt.Sprintf("operation %d (%s) rejected: %s", i+1, op.Op, describe(err))).WithCause(err)
		}
	}

	next.touch()
	next.addEvent(events.NewGraphPatched(patch.Summary(), next.metadata.Revision, time.Now().UTC()))
	return next, nil
}

// EditNode returns a clone with one node updated, raising a NodeUpdated event
func (g *Graph) EditNode(nodeID valueobjects.NodeID, fields entities.NodeFields) (*Graph, error) {
	node, err := g.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	oldTitle := node.Title()

	next := g.Clone()
	if err := next.UpdateNode(nodeID, fields); err != nil {
		return nil, err
	}
	updated, _ := next.GetNode(nodeID)

	next.touch()
	next.addEvent(events.NewNodeUpdated(nodeID, oldTitle, updated.Title(), next.metadata.Revision, time.Now().UTC()))
	return next, nil
}

func (g *Graph) applyOperation(op PatchOperation) error {
	switch op.Op {
	case OpAddNode:
		if op.Node == nil {
			return pkgerrors.NewValidationError("add_node requires a node")
		}
		return g.AddNode(op.Node.Clone())
	case OpUpdateNode:
		return g.UpdateNode(op.NodeID, op.Fields)
	case OpRemoveNode:
		return g.RemoveNode(op.NodeID)
	case OpAddEdge:
		if op.Edge == nil {
			return pkgerrors.NewValidationError("add_edge requires an edge")
		}
		return g.AddEdge(op.Edge.Clone())
	case OpRemoveEdge:
		return g.RemoveEdge(op.EdgeID)
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown patch operation %q", op.Op))
	}
}

// Clone returns a deep copy without pending events
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:    make(map[valueobjects.NodeID]*entities.Node, len(g.nodes)),
		edges:    make(map[valueobjects.EdgeID]*entities.Edge, len(g.edges)),
		metadata: g.metadata,
		config:   g.config,
		events:   []events.DomainEvent{},
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	for id, e := range g.edges {
		c.edges[id] = e.Clone()
	}
	return c
}

// Equal compares node and edge sets field by field, ignoring metadata
func (g *Graph) Equal(other *Graph) bool {
	if other == nil {
		return false
	}
	if len(g.nodes) != len(other.nodes) || len(g.edges) != len(other.edges) {
		return false
	}
	for id, n := range g.nodes {
		if !n.Equals(other.nodes[id]) {
			return false
		}
	}
	for id, e := range g.edges {
		if !e.Equals(other.edges[id]) {
			return false
		}
	}
	return true
}

// Validate checks the graph invariants
func (g *Graph) Validate() error {
	for _, edge := range g.edges {
		if !g.HasNode(edge.SourceID()) || !g.HasNode(edge.TargetID()) {
			return pkgerrors.NewValidationError(
				fmt.Sprintf("edge %q references a missing node", edge.ID().String()))
		}
	}
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.events = []events.DomainEvent{}
}

// RaiseEvent records an event produced by the owner of the graph
func (g *Graph) RaiseEvent(event events.DomainEvent) {
	g.addEvent(event)
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func (g *Graph) touch() {
	g.metadata.Revision++
}

// describe strips the type prefix from AppErrors for user-facing patch messages
func describe(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
