package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codeintel/change"
	"github.com/viant/codeintel/fusion"
	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/overlay"
	"github.com/viant/codeintel/port"
)

// memStore is a minimal in-memory port.IRStore, enough to exercise Facade
// without a real storage backend.
type memStore struct {
	docs map[string]*ir.Document
}

func newMemStore() *memStore { return &memStore{docs: map[string]*ir.Document{}} }

func key(repoID, snapshotID string) string { return repoID + "@" + snapshotID }

func (m *memStore) Save(_ context.Context, doc *ir.Document) error {
	m.docs[key(doc.RepoID, doc.SnapshotID)] = doc
	return nil
}

func (m *memStore) Load(_ context.Context, repoID, snapshotID string) (*ir.Document, error) {
	doc, ok := m.docs[key(repoID, snapshotID)]
	if !ok {
		return nil, assertNotFoundErr(repoID, snapshotID)
	}
	return doc, nil
}

func (m *memStore) ListSnapshots(_ context.Context, repoID string) ([]string, error) {
	var out []string
	for k, doc := range m.docs {
		if doc.RepoID == repoID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, repoID, snapshotID string) error {
	delete(m.docs, key(repoID, snapshotID))
	return nil
}

type notFoundErr struct{ repoID, snapshotID string }

func (e *notFoundErr) Error() string { return "snapshot not found: " + e.repoID + "@" + e.snapshotID }
func assertNotFoundErr(repoID, snapshotID string) error {
	return &notFoundErr{repoID: repoID, snapshotID: snapshotID}
}

func buildDoc() *ir.Document {
	doc := ir.NewDocument("repo1", "snap1")
	doc.AddNode(&ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go"})
	doc.AddNode(&ir.Node{ID: "go:b.go:pkg.Bar", Kind: ir.KindFunction, FQN: "pkg.Bar", FilePath: "b.go"})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "go:b.go:pkg.Bar", TargetID: "go:a.go:pkg.Foo"})
	return doc
}

func TestFacade_GetDefinition(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	n, err := f.GetDefinition(context.Background(), "repo1", "snap1", "pkg.Foo")
	require.NoError(t, err)
	assert.Equal(t, "go:a.go:pkg.Foo", n.ID)

	_, err = f.GetDefinition(context.Background(), "repo1", "snap1", "pkg.Missing")
	assert.Error(t, err)
}

func TestFacade_GetReferences(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	refs, err := f.GetReferences(context.Background(), "repo1", "snap1", "pkg.Foo")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "b.go", refs[0].FilePath)
}

func TestFacade_CallGraph(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	sub, err := f.CallGraph(context.Background(), "repo1", "snap1", "pkg.Bar")
	require.NoError(t, err)
	assert.Len(t, sub.Nodes, 2)
	assert.Len(t, sub.Edges, 1)
}

func TestFacade_Impact_SignatureLevelReturnsCallers(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	report, err := f.Impact(context.Background(), "repo1", "snap1", "pkg.Foo", change.LevelSignature)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg.Bar"}, report.AffectedFQNs)
}

func TestFacade_Impact_NoneLevelHasNoAffectedFQNs(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	report, err := f.Impact(context.Background(), "repo1", "snap1", "pkg.Foo", change.LevelNone)
	require.NoError(t, err)
	assert.Empty(t, report.AffectedFQNs)
}

func TestFacade_PreviewRename(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	result, err := f.PreviewRename(context.Background(), "repo1", "snap1", "pkg.Foo", "pkg.Renamed")
	require.NoError(t, err)
	assert.Equal(t, 1, result.AffectedSites)
}

func TestFacade_OverlayApplyCommitRoundTrip(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	newNode := &ir.Node{ID: "go:c.go:pkg.Baz", Kind: ir.KindFunction, FQN: "pkg.Baz", FilePath: "c.go"}
	patchID, err := f.OverlayApply(context.Background(), "repo1", "snap1", overlay.Edit{AddNodes: []*ir.Node{newNode}})
	require.NoError(t, err)
	require.NotEmpty(t, patchID)

	// The base snapshot itself is untouched.
	base, err := store.Load(context.Background(), "repo1", "snap1")
	require.NoError(t, err)
	_, onBase := base.Nodes["go:c.go:pkg.Baz"]
	assert.False(t, onBase)

	// The overlay view sees it.
	n, err := f.OverlayGetDefinition("repo1", patchID, "pkg.Baz")
	require.NoError(t, err)
	assert.Equal(t, "go:c.go:pkg.Baz", n.ID)

	folded, err := f.OverlayCommit(context.Background(), "repo1", patchID, "snap2")
	require.NoError(t, err)
	assert.Equal(t, "snap2", folded.SnapshotID)

	// Committed: reachable from the store under the new snapshot id.
	loaded, err := store.Load(context.Background(), "repo1", "snap2")
	require.NoError(t, err)
	_, ok := loaded.Nodes["go:c.go:pkg.Baz"]
	assert.True(t, ok)

	// Session is gone after commit.
	_, err = f.session("repo1", patchID)
	assert.Error(t, err)
}

func TestFacade_OverlayRollbackDiscardsSession(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, nil, nil)

	newNode := &ir.Node{ID: "go:c.go:pkg.Baz", Kind: ir.KindFunction, FQN: "pkg.Baz", FilePath: "c.go"}
	patchID, err := f.OverlayApply(context.Background(), "repo1", "snap1", overlay.Edit{AddNodes: []*ir.Node{newNode}})
	require.NoError(t, err)

	require.NoError(t, f.OverlayRollback("repo1", patchID))
	_, err = f.OverlayGetDefinition("repo1", patchID, "pkg.Baz")
	assert.Error(t, err, "session should be gone after rollback")
}

func TestFacade_Search_DegradesOnPartialStrategyFailure(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), buildDoc()))
	f := New(store, map[fusion.Strategy]port.IndexAdapter{
		fusion.StrategyVector: fakeIndex{hits: []port.SearchHit{{ChunkID: "x", Score: 1}}},
		fusion.StrategyGraph:  fakeIndex{err: assertNotFoundErr("repo1", "graph-index")},
	}, nil)

	results, err := f.Search(context.Background(), "parse json", 10, nil)
	require.Error(t, err, "a partial failure is still reported")
	require.NotNil(t, results)
	assert.NotEmpty(t, results.Results)
}

type fakeIndex struct {
	hits []port.SearchHit
	err  error
}

func (f fakeIndex) Index(context.Context, []port.Chunk) error { return nil }
func (f fakeIndex) Search(context.Context, string, int) ([]port.SearchHit, error) {
	return f.hits, f.err
}
func (f fakeIndex) Delete(context.Context, []string) error { return nil }
