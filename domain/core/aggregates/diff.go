package aggregates

import (
	"canvas-ai/domain/core/entities"
)

// Diff computes a patch that turns from into to.
// Removals come first so that re-added ids never collide.
func Diff(from, to *Graph) *GraphPatch {
	patch := NewGraphPatch()

	for _, e := range from.Edges() {
		if other, ok := to.edges[e.ID()]; !ok || !other.Equals(e) {
			patch.Operations = append(patch.Operations, RemoveEdgeOp(e.ID()))
		}
	}
	for _, n := range from.Nodes() {
		if !to.HasNode(n.ID()) {
			patch.Operations = append(patch.Operations, RemoveNodeOp(n.ID()))
		}
	}

	for _, n := range to.Nodes() {
		existing, ok := from.nodes[n.ID()]
		if !ok {
			patch.Operations = append(patch.Operations, AddNodeOp(n.Clone()))
			continue
		}
		if fields, changed := nodeChanges(existing, n); changed {
			patch.Operations = append(patch.Operations, UpdateNodeOp(n.ID(), fields))
		}
	}
	for _, e := range to.Edges() {
		if other, ok := from.edges[e.ID()]; !ok || !other.Equals(e) {
			patch.Operations = append(patch.Operations, AddEdgeOp(e.Clone()))
		}
	}
	return patch
}

func nodeChanges(before, after *entities.Node) (entities.NodeFields, bool) {
	var fields entities.NodeFields
	if before.Title() != after.Title() {
		title := after.Title()
		fields.Title = &title
	}
	if before.Body() != after.Body() {
		body := after.Body()
		fields.Body = &body
	}
	if before.Kind() != after.Kind() {
		kind := after.Kind()
		fields.Kind = &kind
	}
	if !before.Position().Equals(after.Position()) {
		pos := after.Position()
		fields.Position = &pos
	}
	if !before.Dimensions().Equals(after.Dimensions()) {
		dims := after.Dimensions()
		fields.Dimensions = &dims
	}
	return fields, !fields.IsEmpty()
}
