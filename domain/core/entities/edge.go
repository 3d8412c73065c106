package entities

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
)

// Edge is a directed connection between two nodes.
// Endpoint existence is a graph invariant and is checked by the aggregate.
type Edge struct {
	id       valueobjects.EdgeID
	sourceID valueobjects.NodeID
	targetID valueobjects.NodeID
	label    string
}

// NewEdge creates an edge with validation of its own fields
func NewEdge(
	id valueobjects.EdgeID,
	sourceID, targetID valueobjects.NodeID,
	label string,
	cfg *config.DomainConfig,
) (*Edge, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if !cfg.AllowSelfConnections && sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) > cfg.MaxLabelLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("edge label exceeds maximum length of %d characters", cfg.MaxLabelLength))
	}

	return &Edge{
		id:       id,
		sourceID: sourceID,
		targetID: targetID,
		label:    label,
	}, nil
}

// ID returns the edge identifier
func (e *Edge) ID() valueobjects.EdgeID { return e.id }

// SourceID returns the source node id
func (e *Edge) SourceID() valueobjects.NodeID { return e.sourceID }

// TargetID returns the target node id
func (e *Edge) TargetID() valueobjects.NodeID { return e.targetID }

// Label returns the optional edge label
func (e *Edge) Label() string { return e.label }

// Touches reports whether the edge starts or ends at the node
func (e *Edge) Touches(nodeID valueobjects.NodeID) bool {
	return e.sourceID.Equals(nodeID) || e.targetID.Equals(nodeID)
}

// Clone returns an independent copy of the edge
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}

// Equals compares every field of two edges
func (e *Edge) Equals(other *Edge) bool {
	if other == nil {
		return false
	}
	return e.id.Equals(other.id) &&
		e.sourceID.Equals(other.sourceID) &&
		e.targetID.Equals(other.targetID) &&
		e.label == other.label
}
