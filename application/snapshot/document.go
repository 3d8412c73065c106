// Package snapshot converts graphs to and from the persisted JSON document.
// The same document shape is used for storage, export and connector output.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	"canvas-ai/pkg/utils"
)

// ExportFileName is the suggested file name for exported documents
const ExportFileName = "canvas-ai-graph.json"

// Document is the persisted form of a graph.
// Stored documents may carry the undo snapshot in Previous; exports never do.
type Document struct {
	Nodes    map[string]NodeDoc `json:"nodes"`
	Edges    map[string]EdgeDoc `json:"edges"`
	Metadata MetadataDoc        `json:"metadata"`
	Previous *Document          `json:"previous,omitempty"`
}

// MetadataDoc is the persisted graph metadata
type MetadataDoc struct {
	Version  string    `json:"version"`
	Created  time.Time `json:"created"`
	Revision int       `json:"revision,omitempty"`
}

// NodeDoc is the persisted form of a node
type NodeDoc struct {
	ID         string         `json:"id" validate:"required,max=128"`
	Type       string         `json:"type,omitempty" validate:"omitempty,oneof=topic action note"`
	Data       NodeDataDoc    `json:"data"`
	Position   PositionDoc    `json:"position"`
	Dimensions *DimensionsDoc `json:"dimensions,omitempty"`
}

// NodeDataDoc holds the node text
type NodeDataDoc struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body,omitempty"`
}

// PositionDoc is a canvas coordinate
type PositionDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DimensionsDoc is a node size. Documents without one get the configured default size.
type DimensionsDoc struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// EdgeDoc is the persisted form of an edge
type EdgeDoc struct {
	ID     string `json:"id" validate:"required,max=128"`
	Source string `json:"sourceId" validate:"required"`
	Target string `json:"targetId" validate:"required"`
	Label  string `json:"label,omitempty"`
}

// Report lists what was dropped while converting a document
type Report struct {
	DroppedNodes []string
	DroppedEdges []string
}

// Clean reports whether nothing was dropped
func (r *Report) Clean() bool {
	return len(r.DroppedNodes) == 0 && len(r.DroppedEdges) == 0
}

// FromGraph converts a graph into its document form
func FromGraph(g *aggregates.Graph) Document {
	meta := g.Metadata()
	doc := Document{
		Nodes: make(map[string]NodeDoc, g.NodeCount()),
		Edges: make(map[string]EdgeDoc, g.EdgeCount()),
		Metadata: MetadataDoc{
			Version:  meta.Version,
			Created:  meta.CreatedAt,
			Revision: meta.Revision,
		},
	}
	for _, n := range g.Nodes() {
		doc.Nodes[n.ID().String()] = NodeToDoc(n)
	}
	for _, e := range g.Edges() {
		doc.Edges[e.ID().String()] = EdgeToDoc(e)
	}
	return doc
}

// NodeToDoc converts a single node
func NodeToDoc(n *entities.Node) NodeDoc {
	return NodeDoc{
		ID:         n.ID().String(),
		Type:       n.Kind().String(),
		Data:       NodeDataDoc{Title: n.Title(), Body: n.Body()},
		Position:   PositionDoc{X: n.Position().X(), Y: n.Position().Y()},
		Dimensions: &DimensionsDoc{Width: n.Dimensions().Width(), Height: n.Dimensions().Height()},
	}
}

// EdgeToDoc converts a single edge
func EdgeToDoc(e *entities.Edge) EdgeDoc {
	return EdgeDoc{
		ID:     e.ID().String(),
		Source: e.SourceID().String(),
		Target: e.TargetID().String(),
		Label:  e.Label(),
	}
}

// ToGraph converts a document into a graph.
// Invalid nodes and edges whose endpoints are missing are dropped and listed in the report.
func (d Document) ToGraph(cfg *config.DomainConfig) (*aggregates.Graph, *Report, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if d.Metadata.Version != "" && !strings.HasPrefix(d.Metadata.Version, "1.") {
		return nil, nil, fmt.Errorf("unsupported document version %q", d.Metadata.Version)
	}

	report := &Report{}
	g, err := aggregates.ReconstructGraph(nil, nil, aggregates.Metadata{
		Version:   aggregates.DocumentVersion,
		CreatedAt: d.Metadata.Created,
		Revision:  d.Metadata.Revision,
	}, cfg)
	if err != nil {
		return nil, nil, err
	}

	for _, key := range sortedKeys(d.Nodes) {
		node, err := d.Nodes[key].toNode(key, cfg)
		if err == nil {
			err = g.AddNode(node)
		}
		if err != nil {
			report.DroppedNodes = append(report.DroppedNodes, key)
		}
	}

	for _, key := range sortedKeys(d.Edges) {
		edge, err := d.Edges[key].toEdge(key, cfg)
		if err == nil {
			err = g.AddEdge(edge)
		}
		if err != nil {
			report.DroppedEdges = append(report.DroppedEdges, key)
		}
	}

	return g, report, nil
}

func (n NodeDoc) toNode(key string, cfg *config.DomainConfig) (*entities.Node, error) {
	if n.ID == "" {
		n.ID = key
	}
	if n.ID != key {
		return nil, fmt.Errorf("node key %q does not match id %q", key, n.ID)
	}
	return n.ToEntity(cfg)
}

// ToEntity validates the document and builds a node
func (n NodeDoc) ToEntity(cfg *config.DomainConfig) (*entities.Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if err := utils.ValidateStruct(n); err != nil {
		return nil, err
	}
	id, err := valueobjects.NewNodeIDFromString(n.ID)
	if err != nil {
		return nil, err
	}
	kind, err := valueobjects.ParseNodeKind(n.Type)
	if err != nil {
		return nil, err
	}
	pos, err := valueobjects.NewPosition(n.Position.X, n.Position.Y)
	if err != nil {
		return nil, err
	}
	width, height := cfg.DefaultNodeWidth, cfg.DefaultNodeHeight
	if n.Dimensions != nil {
		width, height = n.Dimensions.Width, n.Dimensions.Height
	}
	dims, err := valueobjects.NewDimensions(width, height)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNode(id, kind, n.Data.Title, n.Data.Body, pos, dims, cfg)
}

func (e EdgeDoc) toEdge(key string, cfg *config.DomainConfig) (*entities.Edge, error) {
	if e.ID == "" {
		e.ID = key
	}
	if e.ID != key {
		return nil, fmt.Errorf("edge key %q does not match id %q", key, e.ID)
	}
	return e.ToEntity(cfg)
}

// ToEntity validates the document and builds an edge
func (e EdgeDoc) ToEntity(cfg *config.DomainConfig) (*entities.Edge, error) {
	if err := utils.ValidateStruct(e); err != nil {
		return nil, err
	}
	id, err := valueobjects.NewEdgeIDFromString(e.ID)
	if err != nil {
		return nil, err
	}
	source, err := valueobjects.NewNodeIDFromString(e.Source)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.NewNodeIDFromString(e.Target)
	if err != nil {
		return nil, err
	}
	return entities.NewEdge(id, source, target, e.Label, cfg)
}

// Encode serializes a graph into the compact storage form
func Encode(g *aggregates.Graph) ([]byte, error) {
	return json.Marshal(FromGraph(g))
}

// EncodeIndent serializes a graph into the pretty-printed export form
func EncodeIndent(g *aggregates.Graph) ([]byte, error) {
	return json.MarshalIndent(FromGraph(g), "", "  ")
}

// Decode parses stored bytes into a graph, dropping invalid parts
func Decode(data []byte, cfg *config.DomainConfig) (*aggregates.Graph, *Report, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("malformed document: %w", err)
	}
	return doc.ToGraph(cfg)
}

// EncodeState serializes the current graph together with its undo snapshot.
// previous may be nil.
func EncodeState(current, previous *aggregates.Graph) ([]byte, error) {
	doc := FromGraph(current)
	if previous != nil {
		prev := FromGraph(previous)
		doc.Previous = &prev
	}
	return json.Marshal(doc)
}

// DecodeState parses stored bytes into the current graph and its undo snapshot.
// An unreadable snapshot is dropped; it never fails the current graph.
func DecodeState(data []byte, cfg *config.DomainConfig) (current, previous *aggregates.Graph, report *Report, err error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil, nil, fmt.Errorf("empty document")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("malformed document: %w", err)
	}
	current, report, err = doc.ToGraph(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if doc.Previous != nil {
		if prev, _, prevErr := doc.Previous.ToGraph(cfg); prevErr == nil {
			previous = prev
		}
	}
	return current, previous, report, nil
}

// Sanitize passes a graph through the document rules, returning a clean copy
func Sanitize(g *aggregates.Graph, cfg *config.DomainConfig) (*aggregates.Graph, *Report, error) {
	return FromGraph(g).ToGraph(cfg)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
