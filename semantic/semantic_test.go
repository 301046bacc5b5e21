package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codeintel/ir"
)

func TestBuildCallGraph_MergesDuplicateCalls(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "a", TargetID: "b"})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "a", TargetID: "b", Span: &ir.Span{Start: 5, End: 10}})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeCalls, SourceID: "a", TargetID: "c"})

	g := BuildCallGraph(doc)
	require.Len(t, g.Edges, 2)

	reachable := g.ReachableFrom("a")
	assert.ElementsMatch(t, []string{"b", "c"}, reachable)

	assert.ElementsMatch(t, []string{"a"}, g.Callers("b"))
}

func TestContextSensitiveCallGraph_DistinctContextsDistinctCallees(t *testing.T) {
	g := NewContextSensitiveCallGraph(5)
	ctxTrue := &CallContext{CallSiteID: "site1", ConstArgs: []any{true}}
	ctxFalse := &CallContext{CallSiteID: "site2", ConstArgs: []any{false}}

	g.AddCall("f", "branchA", ctxTrue)
	g.AddCall("f", "branchB", ctxFalse)

	assert.Equal(t, []string{"branchA"}, g.CalleesUnderContext("f", ctxTrue))
	assert.Equal(t, []string{"branchB"}, g.CalleesUnderContext("f", ctxFalse))
}

func TestContextSensitiveCallGraph_CollapsesBeyondMaxDepth(t *testing.T) {
	g := NewContextSensitiveCallGraph(1)
	deep := &CallContext{CallSiteID: "s2", CallerContext: &CallContext{CallSiteID: "s1"}}
	require.Equal(t, 2, deep.Depth())

	g.AddCall("f", "callee", deep)
	// Depth exceeds MaxDepth=1, so the edge collapses to a nil (context-
	// insensitive) context.
	assert.Equal(t, []string{"callee"}, g.CalleesUnderContext("f", nil))
}

func TestParseCondition_Isinstance(t *testing.T) {
	c := ParseCondition("isinstance(x, str)")
	assert.Equal(t, FormIsInstance, c.Form)
	assert.Equal(t, "x", c.Variable)
	assert.Equal(t, "str", c.Type)

	onTrue, onFalse := c.Apply(TypeState{})
	assert.Equal(t, "str", onTrue["x"])
	assert.Equal(t, "not:str", onFalse["x"])
}

func TestUnion_WidensOnDisagreement(t *testing.T) {
	a := TypeState{"x": "str"}
	b := TypeState{"x": "int"}
	merged := Union(a, b)
	_, ok := merged["x"]
	assert.False(t, ok, "disagreeing predecessor states should widen to no narrowing")

	c := TypeState{"x": "str"}
	d := TypeState{"x": "str"}
	merged2 := Union(c, d)
	assert.Equal(t, "str", merged2["x"])
}

func TestEmitDataFlowEdges(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	doc.AddNode(&ir.Node{ID: "fn1", Kind: ir.KindFunction, FQN: "pkg.fn1", FilePath: "a.go", Language: "go"})
	doc.AddNode(&ir.Node{ID: "var1", Kind: ir.KindVariable, FQN: "pkg.fn1.x", FilePath: "a.go", Language: "go"})
	cfg := ir.NewCFG("fn1")
	cfg.AddBlock(&ir.Block{ID: "fn1#b0", Kind: ir.BlockPlain, DefinedVariableIDs: []string{"var1"}})
	doc.CFGs["fn1"] = cfg

	EmitDataFlowEdges(doc)

	var found bool
	for _, e := range doc.EdgesFrom("fn1") {
		if e.Kind == ir.EdgeWrites && e.TargetID == "var1" {
			found = true
		}
	}
	assert.True(t, found)
}
