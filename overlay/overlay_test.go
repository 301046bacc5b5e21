package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codeintel/ir"
)

func renameScenarioDoc() *ir.Document {
	doc := ir.NewDocument("repo", "base")
	doc.AddNode(&ir.Node{ID: "py:util.py:old_name", Kind: ir.KindFunction, FQN: "old_name", FilePath: "util.py", Language: "python"})
	for i := 0; i < 15; i++ {
		callerID := "py:site.py:caller" + string(rune('a'+i))
		doc.AddNode(&ir.Node{ID: callerID, Kind: ir.KindFunction, FQN: "caller" + string(rune('a'+i)), FilePath: "site.py", Language: "python"})
		doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: callerID, TargetID: "py:util.py:old_name"})
	}
	return doc
}

// TestPreviewRename_MatchesRenamePreviewScenario reproduces the worked
// example of 15 call sites into a renamed function: all 15 are reported as
// affected and redirected, with zero unresolved references left behind.
func TestPreviewRename_MatchesRenamePreviewScenario(t *testing.T) {
	stack := NewStack(renameScenarioDoc(), 0)
	view := stack.View()

	result, err := PreviewRename(view, "old_name", "new_name")
	require.NoError(t, err)
	assert.Equal(t, 15, result.AffectedSites)
	assert.Len(t, result.RedirectedEdges, 15)
	assert.Equal(t, 0, result.UnresolvedReferences)

	// Base document itself must be untouched by a preview.
	assert.Equal(t, 15, len(stack.Base.Edges))
	for _, e := range stack.Base.Edges {
		assert.Equal(t, "py:util.py:old_name", e.TargetID)
	}
}

func TestPreviewRename_UnknownFQNErrors(t *testing.T) {
	stack := NewStack(renameScenarioDoc(), 0)
	_, err := PreviewRename(stack.View(), "does_not_exist", "whatever")
	assert.Error(t, err)
}

func TestApplyPatch_ShadowsBaseWithoutMutatingIt(t *testing.T) {
	base := ir.NewDocument("repo", "base")
	base.AddNode(&ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go"})
	stack := NewStack(base, 0)

	newNode := &ir.Node{ID: "go:a.go:pkg.Bar", Kind: ir.KindFunction, FQN: "pkg.Bar", FilePath: "a.go"}
	patchID, view, err := stack.ApplyPatch(Edit{AddNodes: []*ir.Node{newNode}})
	require.NoError(t, err)
	require.NotEmpty(t, patchID)

	_, onBase := base.Nodes["go:a.go:pkg.Bar"]
	assert.False(t, onBase, "ApplyPatch must not mutate the base document")

	_, onView := view.Document().Nodes["go:a.go:pkg.Bar"]
	assert.True(t, onView)
}

func TestCommit_FoldsDeltaIntoNewBase(t *testing.T) {
	base := ir.NewDocument("repo", "base")
	stack := NewStack(base, 0)
	newNode := &ir.Node{ID: "go:a.go:pkg.Bar", Kind: ir.KindFunction, FQN: "pkg.Bar", FilePath: "a.go"}
	patchID, _, err := stack.ApplyPatch(Edit{AddNodes: []*ir.Node{newNode}})
	require.NoError(t, err)

	folded, err := stack.Commit(patchID, "snap2")
	require.NoError(t, err)
	assert.Equal(t, "snap2", folded.SnapshotID)
	_, ok := folded.Nodes["go:a.go:pkg.Bar"]
	assert.True(t, ok)

	// Committed patch is gone from the stack; a fresh view equals the new base.
	view := stack.View()
	assert.Equal(t, len(folded.Nodes), len(view.Document().Nodes))
}

func TestRollback_LIFOAndNonLIFO(t *testing.T) {
	base := ir.NewDocument("repo", "base")
	stack := NewStack(base, 0)

	p1, _, err := stack.ApplyPatch(Edit{AddNodes: []*ir.Node{{ID: "n1", FQN: "n1", FilePath: "a.go"}}})
	require.NoError(t, err)
	p2, _, err := stack.ApplyPatch(Edit{AddNodes: []*ir.Node{{ID: "n2", FQN: "n2", FilePath: "a.go"}}})
	require.NoError(t, err)

	// Non-LIFO: roll back the bottom layer while p2 is still on top.
	require.NoError(t, stack.Rollback(p1))
	view := stack.View()
	_, hasN1 := view.Document().Nodes["n1"]
	_, hasN2 := view.Document().Nodes["n2"]
	assert.False(t, hasN1)
	assert.True(t, hasN2)

	// LIFO: the remaining layer is now the top; rolling it back empties the stack.
	require.NoError(t, stack.Rollback(p2))
	view = stack.View()
	assert.Equal(t, 0, len(view.Document().Nodes))
}

func TestApplyPatch_EvictsOldestLayerPastMaxDepth(t *testing.T) {
	base := ir.NewDocument("repo", "base")
	stack := NewStack(base, 2)

	p1, _, err := stack.ApplyPatch(Edit{AddNodes: []*ir.Node{{ID: "n1", FQN: "n1", FilePath: "a.go"}}})
	require.NoError(t, err)
	_, _, err = stack.ApplyPatch(Edit{AddNodes: []*ir.Node{{ID: "n2", FQN: "n2", FilePath: "a.go"}}})
	require.NoError(t, err)
	_, _, err = stack.ApplyPatch(Edit{AddNodes: []*ir.Node{{ID: "n3", FQN: "n3", FilePath: "a.go"}}})
	require.NoError(t, err)

	assert.Error(t, stack.Rollback(p1), "oldest layer should have been evicted")
	view := stack.View()
	_, hasN1 := view.Document().Nodes["n1"]
	assert.False(t, hasN1)
}

func TestApplyPatch_ErroredDeltaIsKeptAndReported(t *testing.T) {
	base := ir.NewDocument("repo", "base")
	base.AddNode(&ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go"})
	stack := NewStack(base, 0)

	patchID, view, err := stack.ApplyPatch(Edit{
		RemoveNodeIDs: []string{"go:a.go:pkg.Foo"},
		Diagnostics:   []ir.Diagnostic{{Severity: ir.SeverityError, Message: "syntax error", FilePath: "a.go"}},
	})
	assert.Error(t, err, "errored patch is still reported to the caller")
	require.NotEmpty(t, patchID)

	// Errored delta is still on the stack (its removal is not applied to the
	// view) and its diagnostics are queryable per-file.
	assert.Len(t, view.ErrorsFor("a.go"), 1)
}
