package change

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/codeintel/ir"
)

func TestClassify_NoneWhenContentHashesMatch(t *testing.T) {
	oldDoc := ir.NewDocument("repo", "snap1")
	newDoc := ir.NewDocument("repo", "snap2")
	n := &ir.Node{ID: "go:a.go:pkg.A", Kind: ir.KindFunction, FQN: "pkg.A", FilePath: "a.go", ContentHash: "h1"}
	oldDoc.AddNode(n)
	n2 := *n
	newDoc.AddNode(&n2)

	result := Classify(oldDoc, newDoc, "a.go")
	assert.Equal(t, LevelNone, result.Level)
}

func TestClassify_BodyLocalWhenSignatureHashUnchanged(t *testing.T) {
	oldDoc := ir.NewDocument("repo", "snap1")
	newDoc := ir.NewDocument("repo", "snap2")

	oldNode := &ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go", ContentHash: "old", SignatureID: "sig1"}
	newNode := &ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go", ContentHash: "new", SignatureID: "sig1"}
	oldDoc.AddNode(oldNode)
	newDoc.AddNode(newNode)
	oldDoc.Sigs["sig1"] = &ir.SignatureEntity{ID: "sig1", OwnerNodeID: oldNode.ID, SignatureHash: "samehash"}
	newDoc.Sigs["sig1"] = &ir.SignatureEntity{ID: "sig1", OwnerNodeID: newNode.ID, SignatureHash: "samehash"}

	result := Classify(oldDoc, newDoc, "a.go")
	assert.Equal(t, LevelBodyLocal, result.Level)
	assert.Contains(t, result.AffectedFQNs, "pkg.Foo")
}

func TestClassify_SignatureWhenHashDiffers(t *testing.T) {
	oldDoc := ir.NewDocument("repo", "snap1")
	newDoc := ir.NewDocument("repo", "snap2")

	oldNode := &ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go", ContentHash: "old", SignatureID: "sig1"}
	newNode := &ir.Node{ID: "go:a.go:pkg.Foo", Kind: ir.KindFunction, FQN: "pkg.Foo", FilePath: "a.go", ContentHash: "new", SignatureID: "sig1"}
	oldDoc.AddNode(oldNode)
	newDoc.AddNode(newNode)
	oldDoc.Sigs["sig1"] = &ir.SignatureEntity{ID: "sig1", OwnerNodeID: oldNode.ID, SignatureHash: "h1"}
	newDoc.Sigs["sig1"] = &ir.SignatureEntity{ID: "sig1", OwnerNodeID: newNode.ID, SignatureHash: "h2"}

	result := Classify(oldDoc, newDoc, "a.go")
	assert.Equal(t, LevelSignature, result.Level)
}

func TestMarkStale_OnlyCrossFileEdges(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	doc.AddNode(&ir.Node{ID: "a", FilePath: "a.go"})
	doc.AddNode(&ir.Node{ID: "b", FilePath: "b.go"})
	doc.AddNode(&ir.Node{ID: "a2", FilePath: "a.go"})
	doc.AddEdge(&ir.Edge{ID: "e1", Kind: ir.EdgeCalls, SourceID: "b", TargetID: "a"})
	doc.AddEdge(&ir.Edge{ID: "e2", Kind: ir.EdgeCalls, SourceID: "a", TargetID: "a2"})

	n := MarkStale(doc, []string{"b.go"}, time.Now())
	assert.Equal(t, 1, n)
	assert.True(t, doc.Edges["e1"].Stale)
	assert.False(t, doc.Edges["e2"].Stale)
}

func TestValidateStale_RemovesDanglingTargets(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	doc.AddNode(&ir.Node{ID: "b", FilePath: "b.go"})
	doc.AddEdge(&ir.Edge{ID: "e1", Kind: ir.EdgeCalls, SourceID: "b", TargetID: "gone", Stale: true, StaleAt: 1})

	removed, revalidated := ValidateStale(doc)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, revalidated)
	_, exists := doc.Edges["e1"]
	assert.False(t, exists)
}

func TestSweepExpiredStale(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	doc.AddNode(&ir.Node{ID: "a"})
	doc.AddNode(&ir.Node{ID: "b"})
	now := time.Now()
	old := now.Add(-48 * time.Hour).UnixNano()
	doc.AddEdge(&ir.Edge{ID: "e1", Kind: ir.EdgeCalls, SourceID: "a", TargetID: "b", Stale: true, StaleAt: old})

	swept := SweepExpiredStale(doc, 24*time.Hour, now)
	assert.Equal(t, 1, swept)
	_, exists := doc.Edges["e1"]
	assert.False(t, exists)
}
