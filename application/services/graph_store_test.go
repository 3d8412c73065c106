package services

import (
	"context"
	"errors"
	"testing"

	"canvas-ai/application/ports"
	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/core/entities"
	"canvas-ai/domain/events"
	"canvas-ai/domain/intent"
	"canvas-ai/infrastructure/ai"
	"canvas-ai/infrastructure/messaging/logging"
	"canvas-ai/infrastructure/persistence/memory"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type graphFixture struct {
	store     *memory.SnapshotStore
	mock      *ai.MockConnector
	recorder  *logging.Recorder
	graphs    *GraphStore
	domainCfg *config.DomainConfig
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	f := &graphFixture{
		store:     memory.NewSnapshotStore(),
		mock:      ai.NewMockConnector(cfg, 0, zap.NewNop()),
		recorder:  &logging.Recorder{},
		domainCfg: cfg,
	}
	f.graphs = f.reopen(t)
	return f
}

// reopen simulates a restart against the same store
func (f *graphFixture) reopen(t *testing.T) *GraphStore {
	t.Helper()
	graphs := NewGraphStore(f.store, f.mock, f.recorder, nil, f.domainCfg, "", zap.NewNop())
	_, err := graphs.Load(context.Background())
	require.NoError(t, err)
	return graphs
}

func titles(g *aggregates.Graph) []string {
	out := make([]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		out = append(out, n.Title())
	}
	return out
}

func eventTypes(evts []events.DomainEvent) []string {
	out := make([]string, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.GetEventType())
	}
	return out
}

func TestGraphStore_GenerateThenRefine(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)

	generated, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	assert.Contains(t, titles(generated), "Lead Capture")

	resp, err := f.mock.Respond(ctx, "add a node called Verification", f.graphs.Current())
	require.NoError(t, err)
	require.Equal(t, intent.KindRefine, resp.Intent)

	refined, err := f.graphs.ApplyPatch(ctx, resp.Patch)
	require.NoError(t, err)

	assert.Contains(t, titles(refined), "Verification")
	for _, title := range titles(generated) {
		assert.Contains(t, titles(refined), title)
	}
	assert.Equal(t, generated.NodeCount()+1, refined.NodeCount())
	assert.True(t, f.graphs.CanUndo())

	assert.Equal(t,
		[]string{events.TypeGraphGenerated, events.TypeGraphPatched},
		eventTypes(f.recorder.Events()),
	)
}

func TestGraphStore_UpdateNodePersists(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)

	generated, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	lead, ok := generated.FindNodeByTitle("Lead Capture")
	require.True(t, ok)

	title := "Edited Node Title"
	_, err = f.graphs.UpdateNode(ctx, lead.ID(), entities.NodeFields{Title: &title})
	require.NoError(t, err)

	restored, err := f.reopen(t).Load(ctx)
	require.NoError(t, err)

	got := titles(restored)
	assert.NotContains(t, got, "Lead Capture")
	count := 0
	for _, tt := range got {
		if tt == "Edited Node Title" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGraphStore_LoadStartsEmptyWithoutDocument(t *testing.T) {
	f := newGraphFixture(t)

	assert.True(t, f.graphs.IsEmpty())
	assert.False(t, f.graphs.CanUndo())
}

func TestGraphStore_LoadDiscardsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	require.NoError(t, f.store.Put(ctx, ports.DefaultSnapshotKey, []byte(`{"nodes": not json`)))

	g, err := f.reopen(t).Load(ctx)

	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
}

func TestGraphStore_LoadPropagatesStorageErrors(t *testing.T) {
	f := newGraphFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.graphs.Load(ctx)

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestGraphStore_GenerateValidation(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)

	_, err := f.graphs.Generate(ctx, "   ")
	assert.True(t, pkgerrors.IsGeneration(err))

	long := make([]rune, f.domainCfg.MaxPromptLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.graphs.Generate(ctx, string(long))
	assert.True(t, pkgerrors.IsValidation(err))

	assert.True(t, f.graphs.IsEmpty())
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(ctx context.Context, prompt string) (*aggregates.Graph, error) {
	return nil, g.err
}

func TestGraphStore_GenerateFailureKeepsGraph(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	_, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)

	graphs := NewGraphStore(f.store, failingGenerator{err: errors.New("model unavailable")}, nil, nil, f.domainCfg, "", zap.NewNop())
	_, err = graphs.Load(ctx)
	require.NoError(t, err)

	_, err = graphs.Generate(ctx, "Something else")

	assert.True(t, pkgerrors.IsGeneration(err))
	assert.Contains(t, titles(graphs.Current()), "Lead Capture")
}

func TestGraphStore_ApplyPatchConflictLeavesGraph(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	before, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	lead, _ := before.FindNodeByTitle("Lead Capture")

	patch := aggregates.NewGraphPatch(
		aggregates.RemoveNodeOp(lead.ID()),
		aggregates.RemoveNodeOp(lead.ID()),
	)
	_, err = f.graphs.ApplyPatch(ctx, patch)

	assert.True(t, pkgerrors.IsPatchConflict(err))
	assert.True(t, before.Equal(f.graphs.Current()))
	assert.False(t, f.graphs.CanUndo())
}

func TestGraphStore_EmptyPatchIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	before, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)

	after, err := f.graphs.ApplyPatch(ctx, aggregates.NewGraphPatch())

	require.NoError(t, err)
	assert.True(t, before.Equal(after))
	assert.Equal(t, before.Revision(), after.Revision())
	assert.False(t, f.graphs.CanUndo())
}

func TestGraphStore_FailedWriteLeavesGraph(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	before, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	lead, _ := before.FindNodeByTitle("Lead Capture")

	f.store.SetFailWrites(errors.New("disk full"))
	title := "Never Saved"
	_, err = f.graphs.UpdateNode(ctx, lead.ID(), entities.NodeFields{Title: &title})

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	assert.True(t, before.Equal(f.graphs.Current()))

	f.store.SetFailWrites(nil)
	restored, err := f.reopen(t).Load(ctx)
	require.NoError(t, err)
	assert.True(t, before.Equal(restored))
}

func TestGraphStore_Undo(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	before, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)

	_, err = f.graphs.Undo(ctx)
	assert.True(t, pkgerrors.IsNotFound(err), "generation is not undoable")

	resp, err := f.mock.Respond(ctx, "remove CRM Update", f.graphs.Current())
	require.NoError(t, err)
	_, err = f.graphs.ApplyPatch(ctx, resp.Patch)
	require.NoError(t, err)

	restored, err := f.graphs.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, before.Equal(restored))
	assert.False(t, f.graphs.CanUndo())

	persisted, err := f.reopen(t).Load(ctx)
	require.NoError(t, err)
	assert.True(t, before.Equal(persisted))
}

func TestGraphStore_UndoSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	before, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	lead, _ := before.FindNodeByTitle("Lead Capture")
	title := "Signup"
	_, err = f.graphs.UpdateNode(ctx, lead.ID(), entities.NodeFields{Title: &title})
	require.NoError(t, err)

	// A new process sees the edit and can still undo it
	next := f.reopen(t)
	require.True(t, next.CanUndo())
	assert.Contains(t, titles(next.Current()), "Signup")

	restored, err := next.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, before.Equal(restored))

	// The undo itself is persisted and cannot be repeated after another restart
	last := f.reopen(t)
	assert.False(t, last.CanUndo())
	assert.True(t, before.Equal(last.Current()))
	_, err = last.Undo(ctx)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGraphStore_Clear(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	_, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)

	require.NoError(t, f.graphs.Clear(ctx))

	assert.True(t, f.graphs.IsEmpty())
	_, found, err := f.store.Get(ctx, ports.DefaultSnapshotKey)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, f.reopen(t).IsEmpty())
}

func TestGraphStore_Export(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	_, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)

	data, err := f.graphs.Export(ctx)

	require.NoError(t, err)
	assert.Contains(t, string(data), `"Lead Capture"`)
	assert.Contains(t, string(data), "\n  ")
}

func TestGraphStore_CurrentIsACopy(t *testing.T) {
	ctx := context.Background()
	f := newGraphFixture(t)
	g, err := f.graphs.Generate(ctx, "Sales Funnel")
	require.NoError(t, err)
	lead, _ := g.FindNodeByTitle("Lead Capture")

	require.NoError(t, g.RemoveNode(lead.ID()))

	assert.Contains(t, titles(f.graphs.Current()), "Lead Capture")
}
