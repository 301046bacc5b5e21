package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/parser"
)

func mustParse(t *testing.T, src string) *parser.SyntaxTree {
	t.Helper()
	a := parser.NewTreeSitterAdapter(nil)
	tree, err := a.Parse(parser.SourceFile{Path: "sample.go", Content: []byte(src)}, parser.Go)
	require.NoError(t, err)
	require.False(t, tree.HasErrors())
	return tree
}

func TestGenerator_BuildIR_FunctionAndCall(t *testing.T) {
	src := `package sample

func Helper() int { return 1 }

func Entry() int {
	return Helper()
}
`
	tree := mustParse(t, src)
	doc := ir.NewDocument("repo", "snap1")
	g := New(nil)
	require.NoError(t, g.BuildIR(doc, "sample.go", tree, nil))
	require.NoError(t, doc.WellFormed())

	entryID := ir.NodeID("go", "sample.go", "sample.Entry")
	helperID := ir.NodeID("go", "sample.go", "sample.Helper")

	entryNode, ok := doc.Nodes[entryID]
	require.True(t, ok)
	assert.Equal(t, ir.KindFunction, entryNode.Kind)
	assert.NotEmpty(t, entryNode.SignatureID)

	sig, ok := doc.Sigs[entryNode.SignatureID]
	require.True(t, ok)
	assert.Equal(t, ir.VisibilityPublic, sig.Visibility)
	assert.NotEmpty(t, sig.SignatureHash)

	var sawCall bool
	for _, e := range doc.EdgesFrom(entryID) {
		if e.Kind == ir.EdgeCalls && e.TargetID == helperID {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected a CALLS edge from Entry to Helper")

	cfg, ok := doc.CFGs[entryID]
	require.True(t, ok)
	assert.True(t, cfg.ReachableFromEntry())
	assert.True(t, cfg.ReachesExit())
}

func TestGenerator_BuildIR_StructFieldsAndMethod(t *testing.T) {
	src := `package sample

type Counter struct {
	Value int
}

func (c *Counter) Inc() {
	c.Value = c.Value + 1
}
`
	tree := mustParse(t, src)
	doc := ir.NewDocument("repo", "snap1")
	g := New(nil)
	require.NoError(t, g.BuildIR(doc, "sample.go", tree, nil))
	require.NoError(t, doc.WellFormed())

	typeID := ir.NodeID("go", "sample.go", "sample.Counter")
	typeNode, ok := doc.Nodes[typeID]
	require.True(t, ok)
	assert.Equal(t, ir.KindClass, typeNode.Kind)

	fieldID := ir.NodeID("go", "sample.go", "sample.Counter.Value")
	_, ok = doc.Nodes[fieldID]
	assert.True(t, ok, "expected Value field node")

	methodID := ir.NodeID("go", "sample.go", "sample.Counter.Inc")
	methodNode, ok := doc.Nodes[methodID]
	require.True(t, ok)
	assert.Equal(t, ir.KindMethod, methodNode.Kind)
	assert.Equal(t, typeID, methodNode.ParentID)
}

func TestGenerator_BuildIR_UnresolvedCallBecomesExternal(t *testing.T) {
	src := `package sample

import "fmt"

func Entry() {
	fmt.Println("hi")
}
`
	tree := mustParse(t, src)
	doc := ir.NewDocument("repo", "snap1")
	g := New(nil)
	require.NoError(t, g.BuildIR(doc, "sample.go", tree, nil))

	entryID := ir.NodeID("go", "sample.go", "sample.Entry")
	externalID := ir.ExternalID("go", "fmt.Println")

	var found bool
	for _, e := range doc.EdgesFrom(entryID) {
		if e.Kind == ir.EdgeCalls && e.TargetID == externalID {
			found = true
		}
	}
	assert.True(t, found, "expected the fmt.Println call resolved via the import alias map")

	require.NoError(t, doc.WellFormed())
	externalNode, ok := doc.Nodes[externalID]
	require.True(t, ok, "expected a synthesized ExternalFunction node for the unresolved call")
	assert.Equal(t, ir.KindExternalFunction, externalNode.Kind)
}

func TestGenerator_BuildIR_RemovesPriorFileContribution(t *testing.T) {
	doc := ir.NewDocument("repo", "snap1")
	g := New(nil)

	first := mustParse(t, "package sample\n\nfunc A() {}\n")
	require.NoError(t, g.BuildIR(doc, "sample.go", first, nil))
	_, ok := doc.Nodes[ir.NodeID("go", "sample.go", "sample.A")]
	require.True(t, ok)

	second := mustParse(t, "package sample\n\nfunc B() {}\n")
	require.NoError(t, g.BuildIR(doc, "sample.go", second, nil))

	_, stillThere := doc.Nodes[ir.NodeID("go", "sample.go", "sample.A")]
	assert.False(t, stillThere, "stale function from the previous version of the file should be gone")
	_, nowThere := doc.Nodes[ir.NodeID("go", "sample.go", "sample.B")]
	assert.True(t, nowThere)
}
