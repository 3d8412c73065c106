package aggregates

import (
	"testing"

	"canvas-ai/domain/config"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/core/valueobjects"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T, id, title string) *entities.Node {
	t.Helper()
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	require.NoError(t, err)
	dims, err := valueobjects.NewDimensions(200, 100)
	require.NoError(t, err)
	node, err := entities.ReconstructNode(nodeID, valueobjects.KindTopic, title, "", valueobjects.Position{}, dims, nil)
	require.NoError(t, err)
	return node
}

func testEdge(t *testing.T, id, source, target string) *entities.Edge {
	t.Helper()
	edgeID, err := valueobjects.NewEdgeIDFromString(id)
	require.NoError(t, err)
	src, _ := valueobjects.NewNodeIDFromString(source)
	tgt, _ := valueobjects.NewNodeIDFromString(target)
	edge, err := entities.NewEdge(edgeID, src, tgt, "", nil)
	require.NoError(t, err)
	return edge
}

func nodeID(s string) valueobjects.NodeID {
	id, _ := valueobjects.NewNodeIDFromString(s)
	return id
}

func funnel(t *testing.T) *Graph {
	t.Helper()
	g, err := ReconstructGraph(
		[]*entities.Node{
			testNode(t, "1", "Lead Capture"),
			testNode(t, "2", "Qualify Lead"),
			testNode(t, "3", "CRM Update"),
		},
		[]*entities.Edge{
			testEdge(t, "e1-2", "1", "2"),
			testEdge(t, "e2-3", "2", "3"),
		},
		Metadata{},
		config.DefaultDomainConfig(),
	)
	require.NoError(t, err)
	return g
}

func TestReconstructGraph(t *testing.T) {
	t.Run("accepts a consistent graph", func(t *testing.T) {
		g := funnel(t)
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())
		assert.Equal(t, DocumentVersion, g.Metadata().Version)
		assert.NoError(t, g.Validate())
	})

	t.Run("rejects dangling edges", func(t *testing.T) {
		_, err := ReconstructGraph(
			[]*entities.Node{testNode(t, "1", "Only")},
			[]*entities.Edge{testEdge(t, "e1", "1", "missing")},
			Metadata{},
			nil,
		)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("rejects duplicate node ids", func(t *testing.T) {
		_, err := ReconstructGraph(
			[]*entities.Node{testNode(t, "1", "A"), testNode(t, "1", "B")},
			nil,
			Metadata{},
			nil,
		)
		assert.True(t, pkgerrors.IsConflict(err))
	})
}

func TestGraph_RemoveNodeCascadesEdges(t *testing.T) {
	g := funnel(t)

	require.NoError(t, g.RemoveNode(nodeID("2")))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.NoError(t, g.Validate())
}

func TestGraph_ApplyPatch(t *testing.T) {
	t.Run("applies operations in order and bumps the revision", func(t *testing.T) {
		g := funnel(t)
		patch := NewGraphPatch(
			AddNodeOp(testNode(t, "4", "Send Welcome Email")),
			AddEdgeOp(testEdge(t, "e3-4", "3", "4")),
		)

		next, err := g.ApplyPatch(patch)

		require.NoError(t, err)
		assert.Equal(t, 4, next.NodeCount())
		assert.Equal(t, 3, next.EdgeCount())
		assert.Equal(t, g.Revision()+1, next.Revision())
		assert.Len(t, next.GetUncommittedEvents(), 1)

		// The receiver is untouched
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("is all or nothing", func(t *testing.T) {
		g := funnel(t)
		patch := NewGraphPatch(
			AddNodeOp(testNode(t, "4", "Valid")),
			AddEdgeOp(testEdge(t, "e4-9", "4", "9")),
		)

		next, err := g.ApplyPatch(patch)

		assert.Nil(t, next)
		assert.True(t, pkgerrors.IsPatchConflict(err))
		assert.Contains(t, err.Error(), "operation 2")
		assert.Equal(t, 3, g.NodeCount())
	})

	t.Run("empty patch yields an equal graph without a new revision", func(t *testing.T) {
		g := funnel(t)

		next, err := g.ApplyPatch(NewGraphPatch())

		require.NoError(t, err)
		assert.True(t, g.Equal(next))
		assert.Equal(t, g.Revision(), next.Revision())
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		g := funnel(t)
		_, err := g.ApplyPatch(NewGraphPatch(AddNodeOp(testNode(t, "1", "Again"))))
		assert.True(t, pkgerrors.IsPatchConflict(err))
	})

	t.Run("rejects updates to missing nodes", func(t *testing.T) {
		g := funnel(t)
		title := "Ghost"
		_, err := g.ApplyPatch(NewGraphPatch(UpdateNodeOp(nodeID("42"), entities.NodeFields{Title: &title})))
		assert.True(t, pkgerrors.IsPatchConflict(err))
	})
}

func TestGraph_EditNode(t *testing.T) {
	g := funnel(t)
	title := "  Qualified Lead  "

	next, err := g.EditNode(nodeID("2"), entities.NodeFields{Title: &title})

	require.NoError(t, err)
	node, err := next.GetNode(nodeID("2"))
	require.NoError(t, err)
	assert.Equal(t, "Qualified Lead", node.Title())

	original, _ := g.GetNode(nodeID("2"))
	assert.Equal(t, "Qualify Lead", original.Title())
}

func TestGraph_EditNodeRejectsBlankTitle(t *testing.T) {
	g := funnel(t)
	blank := "   "

	_, err := g.EditNode(nodeID("1"), entities.NodeFields{Title: &blank})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := funnel(t)
	c := g.Clone()
	title := "Changed"

	require.NoError(t, c.UpdateNode(nodeID("1"), entities.NodeFields{Title: &title}))

	assert.False(t, g.Equal(c))
	n, _ := g.GetNode(nodeID("1"))
	assert.Equal(t, "Lead Capture", n.Title())
}

func TestGraph_FindNodeByTitle(t *testing.T) {
	g := funnel(t)

	node, ok := g.FindNodeByTitle("  crm update ")
	require.True(t, ok)
	assert.Equal(t, "3", node.ID().String())

	_, ok = g.FindNodeByTitle("Missing")
	assert.False(t, ok)
}

func TestGraph_Capacity(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerGraph = 1
	g := NewGraph(cfg)

	require.NoError(t, g.AddNode(testNode(t, "1", "One")))
	err := g.AddNode(testNode(t, "2", "Two"))

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDiff(t *testing.T) {
	from := funnel(t)
	to := from.Clone()
	title := "Qualified"
	require.NoError(t, to.UpdateNode(nodeID("2"), entities.NodeFields{Title: &title}))
	require.NoError(t, to.RemoveNode(nodeID("3")))
	require.NoError(t, to.AddNode(testNode(t, "4", "Nurture")))
	require.NoError(t, to.AddEdge(testEdge(t, "e2-4", "2", "4")))

	patch := Diff(from, to)
	next, err := from.ApplyPatch(patch)

	require.NoError(t, err)
	assert.True(t, next.Equal(to))
	assert.True(t, Diff(to, to).IsEmpty())
}
