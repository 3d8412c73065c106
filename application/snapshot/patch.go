package snapshot

import (
	"fmt"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"
	"canvas-ai/pkg/utils"
)

// PatchDoc is the wire form of a GraphPatch
type PatchDoc struct {
	Operations []OperationDoc `json:"operations"`
}

// OperationDoc is the wire form of one patch operation
type OperationDoc struct {
	Op     string     `json:"op" validate:"required,oneof=add_node update_node remove_node add_edge remove_edge"`
	Node   *NodeDoc   `json:"node,omitempty" validate:"-"`
	NodeID string     `json:"nodeId,omitempty"`
	Fields *FieldsDoc `json:"fields,omitempty" validate:"-"`
	Edge   *EdgeDoc   `json:"edge,omitempty" validate:"-"`
	EdgeID string     `json:"edgeId,omitempty"`
}

// FieldsDoc is a partial node update; absent fields are left unchanged
type FieldsDoc struct {
	Title    *string      `json:"title,omitempty"`
	Body     *string      `json:"body,omitempty"`
	Type     *string      `json:"type,omitempty"`
	Position *PositionDoc `json:"position,omitempty"`
}

// ToPatch converts the wire form into a domain patch.
// Nodes and edges added without an id get a generated one.
func (p PatchDoc) ToPatch(cfg *config.DomainConfig) (*aggregates.GraphPatch, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	patch := aggregates.NewGraphPatch()
	for i, op := range p.Operations {
		converted, err := op.toOperation(cfg)
		if err != nil {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("operation %d: %s", i+1, err.Error()))
		}
		patch.Operations = append(patch.Operations, converted)
	}
	return patch, nil
}

func (o OperationDoc) toOperation(cfg *config.DomainConfig) (aggregates.PatchOperation, error) {
	if err := utils.ValidateStruct(o); err != nil {
		return aggregates.PatchOperation{}, err
	}

	switch aggregates.PatchOpType(o.Op) {
	case aggregates.OpAddNode:
		if o.Node == nil {
			return aggregates.PatchOperation{}, fmt.Errorf("add_node requires node")
		}
		doc := *o.Node
		if doc.ID == "" {
			doc.ID = valueobjects.NewNodeID().String()
		}
		node, err := doc.ToEntity(cfg)
		if err != nil {
			return aggregates.PatchOperation{}, err
		}
		return aggregates.AddNodeOp(node), nil

	case aggregates.OpUpdateNode:
		id, err := valueobjects.NewNodeIDFromString(o.NodeID)
		if err != nil {
			return aggregates.PatchOperation{}, fmt.Errorf("update_node requires nodeId")
		}
		if o.Fields == nil {
			return aggregates.PatchOperation{}, fmt.Errorf("update_node requires fields")
		}
		fields, err := o.Fields.ToNodeFields()
		if err != nil {
			return aggregates.PatchOperation{}, err
		}
		return aggregates.UpdateNodeOp(id, fields), nil

	case aggregates.OpRemoveNode:
		id, err := valueobjects.NewNodeIDFromString(o.NodeID)
		if err != nil {
			return aggregates.PatchOperation{}, fmt.Errorf("remove_node requires nodeId")
		}
		return aggregates.RemoveNodeOp(id), nil

	case aggregates.OpAddEdge:
		if o.Edge == nil {
			return aggregates.PatchOperation{}, fmt.Errorf("add_edge requires edge")
		}
		doc := *o.Edge
		if doc.ID == "" {
			doc.ID = valueobjects.NewEdgeID().String()
		}
		edge, err := doc.ToEntity(cfg)
		if err != nil {
			return aggregates.PatchOperation{}, err
		}
		return aggregates.AddEdgeOp(edge), nil

	default:
		id, err := valueobjects.NewEdgeIDFromString(o.EdgeID)
		if err != nil {
			return aggregates.PatchOperation{}, fmt.Errorf("remove_edge requires edgeId")
		}
		return aggregates.RemoveEdgeOp(id), nil
	}
}

// ToNodeFields converts the wire form into a domain partial update
func (f FieldsDoc) ToNodeFields() (entities.NodeFields, error) {
	fields := entities.NodeFields{Title: f.Title, Body: f.Body}
	if f.Type != nil {
		kind, err := valueobjects.ParseNodeKind(*f.Type)
		if err != nil {
			return entities.NodeFields{}, err
		}
		fields.Kind = &kind
	}
	if f.Position != nil {
		pos, err := valueobjects.NewPosition(f.Position.X, f.Position.Y)
		if err != nil {
			return entities.NodeFields{}, err
		}
		fields.Position = &pos
	}
	return fields, nil
}
