package snapshot

import (
	"encoding/json"
	"testing"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const funnelDoc = `{
  "nodes": {
    "1": {"id": "1", "type": "topic", "data": {"title": "Lead Capture"}, "position": {"x": 0, "y": 0}},
    "2": {"id": "2", "data": {"title": "Qualify Lead"}, "position": {"x": 250, "y": 0}},
    "3": {"id": "3", "data": {"title": "CRM Update"}, "position": {"x": 500, "y": 0}}
  },
  "edges": {
    "e1-2": {"id": "e1-2", "sourceId": "1", "targetId": "2"},
    "e2-3": {"id": "e2-3", "sourceId": "2", "targetId": "3", "label": "qualified"}
  },
  "metadata": {"version": "1.0.0", "created": "2024-05-01T10:00:00Z", "revision": 4}
}`

func TestDecode(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		g, report, err := Decode([]byte(funnelDoc), nil)

		require.NoError(t, err)
		assert.True(t, report.Clean())
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())
		assert.Equal(t, 4, g.Revision())

		// Missing dimensions fall back to the defaults
		cfg := config.DefaultDomainConfig()
		for _, n := range g.Nodes() {
			assert.Equal(t, cfg.DefaultNodeWidth, n.Dimensions().Width())
		}
	})

	t.Run("drops edges with missing endpoints", func(t *testing.T) {
		doc := `{
			"nodes": {"1": {"id": "1", "data": {"title": "A"}}},
			"edges": {"e1": {"id": "e1", "sourceId": "1", "targetId": "ghost"}},
			"metadata": {"version": "1.0.0"}
		}`

		g, report, err := Decode([]byte(doc), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, g.NodeCount())
		assert.Equal(t, 0, g.EdgeCount())
		assert.Equal(t, []string{"e1"}, report.DroppedEdges)
		assert.NoError(t, g.Validate())
	})

	t.Run("drops invalid nodes and the edges that touched them", func(t *testing.T) {
		doc := `{
			"nodes": {
				"1": {"id": "1", "data": {"title": "A"}},
				"2": {"id": "2", "data": {"title": ""}},
				"3": {"id": "other", "data": {"title": "Mismatched"}}
			},
			"edges": {"e1": {"id": "e1", "sourceId": "1", "targetId": "2"}}
		}`

		g, report, err := Decode([]byte(doc), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, g.NodeCount())
		assert.ElementsMatch(t, []string{"2", "3"}, report.DroppedNodes)
		assert.Equal(t, []string{"e1"}, report.DroppedEdges)
	})

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "   "},
		{name: "malformed", data: `{"nodes": [`},
		{name: "wrong shape", data: `{"nodes": [1, 2]}`},
		{name: "future version", data: `{"nodes": {}, "edges": {}, "metadata": {"version": "2.0.0"}}`},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.data), nil)
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	g, _, err := Decode([]byte(funnelDoc), nil)
	require.NoError(t, err)

	data, err := Encode(g)
	require.NoError(t, err)
	restored, report, err := Decode(data, nil)

	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.True(t, g.Equal(restored))
	assert.Equal(t, g.Revision(), restored.Revision())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "nodes")
	assert.Contains(t, raw, "edges")
	assert.Contains(t, raw, "metadata")
}

func TestEncodeDecode_KeepsStoredDimensions(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	g := aggregates.NewGraph(cfg)
	flat, err := entities.ReconstructNode(valueobjects.NewNodeID(), valueobjects.KindNote, "Collapsed", "",
		valueobjects.Position{}, valueobjects.Dimensions{}, cfg)
	require.NoError(t, err)
	require.NoError(t, g.AddNode(flat))

	data, err := Encode(g)
	require.NoError(t, err)
	restored, _, err := Decode(data, cfg)

	require.NoError(t, err)
	assert.True(t, g.Equal(restored))
	node, ok := restored.FindNodeByTitle("Collapsed")
	require.True(t, ok)
	assert.Equal(t, 0.0, node.Dimensions().Width())
	assert.Equal(t, 0.0, node.Dimensions().Height())
}

func TestPatchDoc_ToPatch(t *testing.T) {
	title := "Renamed"
	doc := PatchDoc{Operations: []OperationDoc{
		{Op: "add_node", Node: &NodeDoc{Data: NodeDataDoc{Title: "Generated ID"}}},
		{Op: "update_node", NodeID: "1", Fields: &FieldsDoc{Title: &title}},
		{Op: "add_edge", Edge: &EdgeDoc{Source: "1", Target: "2"}},
		{Op: "remove_edge", EdgeID: "e2-3"},
		{Op: "remove_node", NodeID: "3"},
	}}

	patch, err := doc.ToPatch(nil)

	require.NoError(t, err)
	require.Equal(t, 5, patch.Len())
	assert.False(t, patch.Operations[0].Node.ID().IsZero())
	assert.False(t, patch.Operations[2].Edge.ID().IsZero())

	g, _, err := Decode([]byte(funnelDoc), nil)
	require.NoError(t, err)
	next, err := g.ApplyPatch(patch)
	require.NoError(t, err)
	assert.Equal(t, 3, next.NodeCount())
}

func TestPatchDoc_ToPatchRejectsMalformedOperations(t *testing.T) {
	tests := []struct {
		name string
		op   OperationDoc
	}{
		{name: "unknown op", op: OperationDoc{Op: "explode"}},
		{name: "add node without node", op: OperationDoc{Op: "add_node"}},
		{name: "update without fields", op: OperationDoc{Op: "update_node", NodeID: "1"}},
		{name: "remove without id", op: OperationDoc{Op: "remove_node"}},
		{name: "self loop", op: OperationDoc{Op: "add_edge", Edge: &EdgeDoc{Source: "1", Target: "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PatchDoc{Operations: []OperationDoc{tt.op}}.ToPatch(config.DefaultDomainConfig())
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}
