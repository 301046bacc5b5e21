package rebuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codeintel/config"
	"github.com/viant/codeintel/ir"
)

// buildCallerCalleeDoc constructs a two-file base snapshot where b.go's
// function calls a.go's function, so impact on a.go's fqn should pull b.go
// into Pass 2's 1-hop closure.
func buildCallerCalleeDoc() *ir.Document {
	doc := ir.NewDocument("repo", "base")
	doc.AddNode(&ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go", Language: "go"})
	doc.AddNode(&ir.Node{ID: "go:b.go:pkg.Bar", Kind: ir.KindFunction, FQN: "pkg.Bar", FilePath: "b.go", Language: "go"})
	doc.AddNode(&ir.Node{ID: "go:c.go:pkg.Baz", Kind: ir.KindFunction, FQN: "pkg.Baz", FilePath: "c.go", Language: "go"})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "go:b.go:pkg.Bar", TargetID: "go:a.go:pkg.Foo"})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "go:c.go:pkg.Baz", TargetID: "go:b.go:pkg.Bar"})
	return doc
}

func TestPass2Candidates_FastModeSkipsClosure(t *testing.T) {
	r := New(nil, nil, nil, config.Options{})
	doc := buildCallerCalleeDoc()
	out := r.pass2Candidates(doc, doc, config.ModeFast, []string{"a.go"}, map[string]bool{"pkg.Foo": true})
	assert.Nil(t, out)
}

func TestPass2Candidates_BalancedOneHop(t *testing.T) {
	r := New(nil, nil, nil, config.Options{})
	doc := buildCallerCalleeDoc()
	out := r.pass2Candidates(doc, doc, config.ModeBalanced, []string{"a.go"}, map[string]bool{"pkg.Foo": true})
	assert.Equal(t, []string{"b.go"}, out)
}

func TestPass2Candidates_DeepTwoHops(t *testing.T) {
	r := New(nil, nil, nil, config.Options{})
	doc := buildCallerCalleeDoc()
	out := r.pass2Candidates(doc, doc, config.ModeDeep, []string{"a.go"}, map[string]bool{"pkg.Foo": true})
	assert.ElementsMatch(t, []string{"b.go", "c.go"}, out)
}

func TestPass2Candidates_BootstrapReturnsAllUnprocessed(t *testing.T) {
	r := New(nil, nil, nil, config.Options{})
	doc := buildCallerCalleeDoc()
	out := r.pass2Candidates(doc, doc, config.ModeBootstrap, []string{"a.go"}, nil)
	assert.ElementsMatch(t, []string{"b.go", "c.go"}, out)
}

func TestPass2Candidates_RepairReturnsFilesWithStaleEdges(t *testing.T) {
	r := New(nil, nil, nil, config.Options{})
	doc := buildCallerCalleeDoc()
	for _, e := range doc.Edges {
		if e.SourceID == "go:c.go:pkg.Baz" {
			e.Stale = true
		}
	}
	out := r.pass2Candidates(doc, doc, config.ModeRepair, nil, nil)
	assert.Equal(t, []string{"c.go"}, out)
}

func TestEnforceRetentionPolicy_CountAndAge(t *testing.T) {
	now := time.Now()
	snapshots := []Snapshot{
		{RepoID: "r", SnapshotID: "s1", CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{RepoID: "r", SnapshotID: "s2", CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{RepoID: "r", SnapshotID: "s3", CreatedAt: now},
		{RepoID: "r", SnapshotID: "tagged-old", CreatedAt: now.Add(-400 * 24 * time.Hour), Tagged: true},
	}
	policy := RetentionPolicy{Count: 2, MaxAge: 30 * 24 * time.Hour}
	evict := EnforceRetentionPolicy(snapshots, policy, now)

	var evictedIDs []string
	for _, s := range evict {
		evictedIDs = append(evictedIDs, s.SnapshotID)
	}
	assert.Contains(t, evictedIDs, "s1")
	assert.NotContains(t, evictedIDs, "s2")
	assert.NotContains(t, evictedIDs, "s3")
	assert.NotContains(t, evictedIDs, "tagged-old", "tagged snapshots are kept forever")
}

func TestLockManager_DedupedSupersededQueued(t *testing.T) {
	m := NewLockManager(60 * time.Second)
	now := time.Now()

	ok, err := m.Acquire("repo1", "snapA", now, now)
	require.True(t, ok)
	require.NoError(t, err)

	_, err = m.Acquire("repo1", "snapA", now, now.Add(time.Second))
	assert.ErrorContains(t, err, "DEDUPED")

	_, err = m.Acquire("repo1", "snapB", now.Add(2*time.Second), now.Add(3*time.Second))
	assert.ErrorContains(t, err, "SUPERSEDED")

	_, err = m.Acquire("repo1", "snapC", now.Add(-time.Second), now.Add(4*time.Second))
	assert.ErrorContains(t, err, "QUEUED")

	m.Release("repo1", "snapA")
	ok, err = m.Acquire("repo1", "snapB", now.Add(5*time.Second), now.Add(5*time.Second))
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestLockManager_ExpiredLockIsReacquirable(t *testing.T) {
	m := NewLockManager(10 * time.Second)
	now := time.Now()
	ok, err := m.Acquire("repo1", "snapA", now, now)
	require.True(t, ok)
	require.NoError(t, err)

	later := now.Add(20 * time.Second)
	ok, err = m.Acquire("repo1", "snapB", later, later)
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestDedupeSorted(t *testing.T) {
	out := dedupeSorted([]string{"b.go", "a.go", "b.go"})
	assert.Equal(t, []string{"a.go", "b.go"}, out)
}
