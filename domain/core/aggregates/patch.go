package aggregates

import (
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
)

// PatchOpType names a single graph edit
type PatchOpType string

const (
	OpAddNode    PatchOpType = "add_node"
	OpUpdateNode PatchOpType = "update_node"
	OpRemoveNode PatchOpType = "remove_node"
	OpAddEdge    PatchOpType = "add_edge"
	OpRemoveEdge PatchOpType = "remove_edge"
)

// PatchOperation is one step of a GraphPatch.
// Only the fields relevant to Op are read.
type PatchOperation struct {
	Op     PatchOpType
	Node   *entities.Node
	NodeID valueobjects.NodeID
	Fields entities.NodeFields
	Edge   *entities.Edge
	EdgeID valueobjects.EdgeID
}

// GraphPatch is an ordered list of operations applied all-or-nothing
type GraphPatch struct {
	Operations []PatchOperation
}

// NewGraphPatch builds a patch from operations
func NewGraphPatch(ops ...PatchOperation) *GraphPatch {
	return &GraphPatch{Operations: ops}
}

func AddNodeOp(node *entities.Node) PatchOperation {
	return PatchOperation{Op: OpAddNode, Node: node}
}

func UpdateNodeOp(id valueobjects.NodeID, fields entities.NodeFields) PatchOperation {
	return PatchOperation{Op: OpUpdateNode, NodeID: id, Fields: fields}
}

func RemoveNodeOp(id valueobjects.NodeID) PatchOperation {
	return PatchOperation{Op: OpRemoveNode, NodeID: id}
}

func AddEdgeOp(edge *entities.Edge) PatchOperation {
	return PatchOperation{Op: OpAddEdge, Edge: edge}
}

func RemoveEdgeOp(id valueobjects.EdgeID) PatchOperation {
	return PatchOperation{Op: OpRemoveEdge, EdgeID: id}
}

// IsEmpty reports whether the patch has no operations
func (p *GraphPatch) IsEmpty() bool {
	return p == nil || len(p.Operations) == 0
}

// Len returns the number of operations
func (p *GraphPatch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Operations)
}

// Summary lists the operation types in order
func (p *GraphPatch) Summary() []string {
	out := make([]string, 0, p.Len())
	if p == nil {
		return out
	}
	for _, op := range p.Operations {
		out = append(out, string(op.Op))
	}
	return out
}
