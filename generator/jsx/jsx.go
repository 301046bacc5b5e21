// Package jsx implements a secondary C2 IR generator for JavaScript/JSX
// source, registered alongside the Go generator. Grounded on the teacher's
// inspector/jsx/inspector.go node-type set, it emits function_declaration
// and class_declaration nodes and records JSX element nodes only as Attrs
// on the enclosing function, since the IR schema has no first-class JSX
// node kind. lexical_declaration/variable_declaration nodes are not emitted.
package jsx

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjs "github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"

	"github.com/viant/codeintel/generator"
	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/parser"
)

func init() {
	generator.Register(parser.JavaScript, New(nil))
}

type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

func (g *Generator) SupportsIncremental() bool { return false }

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func query(lang *sitter.Language, pattern string, root *sitter.Node) []*sitter.Node {
	q := sitter.NewQuery([]byte(pattern), lang)
	cur := sitter.NewQueryCursor()
	cur.Exec(q, root)
	var out []*sitter.Node
	for {
		m, ok := cur.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			out = append(out, c.Node)
		}
	}
	return out
}

// BuildIR implements generator.Generator for JavaScript/JSX source.
func (g *Generator) BuildIR(doc *ir.Document, relativePath string, tree *parser.SyntaxTree, previous *ir.Document) error {
	doc.RemoveFile(relativePath)

	root := tree.Root
	src := tree.Source
	modulePath := moduleNameFromPath(relativePath)

	fileID := ir.NodeID("javascript", relativePath, modulePath+"#file")
	fileNode := &ir.Node{
		ID: fileID, Kind: ir.KindFile, FQN: modulePath + "#file", FilePath: relativePath,
		Language: "javascript", Name: relativePath, ModulePath: modulePath,
		Span:       ir.Span{Start: int(root.StartByte()), End: int(root.EndByte())},
		IsTestFile: strings.Contains(relativePath, ".test.") || strings.Contains(relativePath, ".spec."),
	}
	fileNode.ContentHash = ir.ContentHash(fileNode.Content(src))
	doc.AddNode(fileNode)

	for _, d := range query(tsjs.GetLanguage(), "(function_declaration) @d", root) {
		g.buildFunction(doc, relativePath, src, modulePath, fileID, d)
	}
	for _, d := range query(tsjs.GetLanguage(), "(class_declaration) @d", root) {
		g.buildClass(doc, relativePath, src, modulePath, fileID, d)
	}
	return nil
}

func moduleNameFromPath(path string) string {
	name := path
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(strings.TrimSuffix(name, ".jsx"), ".js")
}

func (g *Generator) buildFunction(doc *ir.Document, path string, src []byte, modulePath, fileID string, d *sitter.Node) {
	nameNode := d.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, src)
	fqn := modulePath + "." + name
	id := ir.NodeID("javascript", path, fqn)

	node := &ir.Node{
		ID: id, Kind: ir.KindFunction, FQN: fqn, FilePath: path, Language: "javascript",
		Name: name, ParentID: fileID,
		Span: ir.Span{Start: int(d.StartByte()), End: int(d.EndByte())},
	}
	node.ContentHash = ir.ContentHash(node.Content(src))

	if body := d.ChildByFieldName("body"); body != nil {
		jsxElems := query(tsjs.GetLanguage(), "(jsx_element) @e", body)
		jsxElems = append(jsxElems, query(tsjs.GetLanguage(), "(jsx_self_closing_element) @e", body)...)
		if len(jsxElems) > 0 {
			node.Attrs = map[string]any{"renders_jsx": true, "jsx_element_count": len(jsxElems)}
		}
	}

	doc.AddNode(node)
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeContains, SourceID: fileID, TargetID: id})
}

func (g *Generator) buildClass(doc *ir.Document, path string, src []byte, modulePath, fileID string, d *sitter.Node) {
	nameNode := d.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, src)
	fqn := modulePath + "." + name
	id := ir.NodeID("javascript", path, fqn)

	node := &ir.Node{
		ID: id, Kind: ir.KindClass, FQN: fqn, FilePath: path, Language: "javascript",
		Name: name, ParentID: fileID,
		Span: ir.Span{Start: int(d.StartByte()), End: int(d.EndByte())},
	}
	node.ContentHash = ir.ContentHash(node.Content(src))
	doc.AddNode(node)
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeContains, SourceID: fileID, TargetID: id})

	if heritage := d.ChildByFieldName("heritage"); heritage != nil {
		base := strings.TrimSpace(strings.TrimPrefix(text(heritage, src), "extends"))
		if base != "" {
			doc.AddEdge(&ir.Edge{Kind: ir.EdgeInherits, SourceID: id, TargetID: externalSymbol(doc, path, base)})
		}
	}
}

// externalSymbol synthesizes (and dedup-registers) the ExternalSymbol node
// spec §4.2 step 4 requires for a base class/import this generator cannot
// resolve within the current file; resolve.RewriteExternalEdges redirects the
// edge once the whole-repo symbol table can match it by fqn.
func externalSymbol(doc *ir.Document, path, rawReference string) string {
	id := ir.ExternalID("javascript", rawReference)
	if _, ok := doc.Nodes[id]; !ok {
		doc.AddNode(&ir.Node{
			ID:       id,
			Kind:     ir.KindExternalSymbol,
			FQN:      rawReference,
			FilePath: path,
			Language: "javascript",
			Name:     rawReference,
		})
	}
	return id
}
