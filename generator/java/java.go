// Package java implements a secondary C2 IR generator for Java source,
// registered alongside the Go generator in the dispatch table. It covers
// the subset of Java the pack's tree-sitter grammar and the teacher's
// inspector/java/inspector.go recognize: package/import declarations,
// class/interface/enum declarations and their methods.
package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjava "github.com/smacker/go-tree-sitter/java"
	"go.uber.org/zap"

	"github.com/viant/codeintel/generator"
	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/parser"
)

func init() {
	generator.Register(parser.Java, New(nil))
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

// BuildIR implements generator.Generator for Java source.
func (g *Generator) BuildIR(doc *ir.Document, relativePath string, tree *parser.SyntaxTree, previous *ir.Document) error {
	doc.RemoveFile(relativePath)

	root := tree.Root
	src := tree.Source
	pkg := packageOf(root, src)

	fileID := ir.NodeID("java", relativePath, pkg+"#file")
	fileNode := &ir.Node{
		ID: fileID, Kind: ir.KindFile, FQN: pkg + "#file", FilePath: relativePath,
		Language: "java", Name: relativePath, ModulePath: pkg,
		Span:       ir.Span{Start: int(root.StartByte()), End: int(root.EndByte())},
		IsTestFile: strings.Contains(relativePath, "Test"),
	}
	fileNode.ContentHash = ir.ContentHash(fileNode.Content(src))
	doc.AddNode(fileNode)

	for _, imp := range query(tsjava.GetLanguage(), "(import_declaration) @d", root) {
		raw := strings.TrimSuffix(strings.TrimPrefix(text(imp, src), "import "), ";")
		raw = strings.TrimSpace(raw)
		id := ir.NodeID("java", relativePath, pkg+".import."+raw)
		n := &ir.Node{ID: id, Kind: ir.KindImport, FQN: raw, FilePath: relativePath, Language: "java", Name: raw,
			Span: ir.Span{Start: int(imp.StartByte()), End: int(imp.EndByte())}}
		n.ContentHash = ir.ContentHash(n.Content(src))
		doc.AddNode(n)
		doc.AddEdge(&ir.Edge{Kind: ir.EdgeContains, SourceID: fileID, TargetID: id})
		doc.AddEdge(&ir.Edge{Kind: ir.EdgeImports, SourceID: fileID, TargetID: id})
	}

	typeDecls := query(tsjava.GetLanguage(), "(class_declaration) @d", root)
	typeDecls = append(typeDecls, query(tsjava.GetLanguage(), "(interface_declaration) @d", root)...)
	typeDecls = append(typeDecls, query(tsjava.GetLanguage(), "(enum_declaration) @d", root)...)
	for _, d := range typeDecls {
		g.buildType(doc, relativePath, src, pkg, fileID, d)
	}
	return nil
}

func packageOf(root *sitter.Node, src []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		ch := root.NamedChild(i)
		if ch.Type() == "package_declaration" {
			for j := 0; j < int(ch.NamedChildCount()); j++ {
				sub := ch.NamedChild(j)
				if sub.Type() == "scoped_identifier" || sub.Type() == "identifier" {
					return text(sub, src)
				}
			}
		}
	}
	return "default"
}

func (g *Generator) buildType(doc *ir.Document, path string, src []byte, pkg, fileID string, d *sitter.Node) {
	nameNode := d.ChildByFieldName("name")
	if nameNode == nil {
		doc.AddDiagnostic(ir.SeverityWarning, "java type declaration without a name", "", path)
		return
	}
	name := text(nameNode, src)
	fqn := pkg + "." + name
	id := ir.NodeID("java", path, fqn)

	kind := ir.KindClass
	if d.Type() == "interface_declaration" {
		kind = ir.KindInterface
	}

	node := &ir.Node{
		ID: id, Kind: kind, FQN: fqn, FilePath: path, Language: "java", Name: name,
		ParentID: fileID, IsTestFile: strings.Contains(path, "Test"),
		Span: ir.Span{Start: int(d.StartByte()), End: int(d.EndByte())},
	}
	node.ContentHash = ir.ContentHash(node.Content(src))
	doc.AddNode(node)
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeContains, SourceID: fileID, TargetID: id})

	body := d.ChildByFieldName("body")
	if body == nil {
		return
	}
	methods := query(tsjava.GetLanguage(), "(method_declaration) @m", body)
	for _, m := range methods {
		g.buildMethod(doc, path, src, fqn, id, m)
	}
}

func (g *Generator) buildMethod(doc *ir.Document, path string, src []byte, ownerFQN, ownerID string, m *sitter.Node) {
	nameNode := m.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, src)
	fqn := ownerFQN + "." + name
	id := ir.NodeID("java", path, fqn)

	node := &ir.Node{
		ID: id, Kind: ir.KindMethod, FQN: fqn, FilePath: path, Language: "java",
		Name: name, ParentID: ownerID,
		Span: ir.Span{Start: int(m.StartByte()), End: int(m.EndByte())},
	}
	node.ContentHash = ir.ContentHash(node.Content(src))

	vis := ir.VisibilityPackage
	modifiers := text(m, src)
	if strings.Contains(modifiers, "public") {
		vis = ir.VisibilityPublic
	} else if strings.Contains(modifiers, "private") {
		vis = ir.VisibilityPrivate
	} else if strings.Contains(modifiers, "protected") {
		vis = ir.VisibilityProtected
	}

	sig := &ir.SignatureEntity{ID: id + "#sig", OwnerNodeID: id, Name: name, Raw: text(m, src), Visibility: vis}
	if t := m.ChildByFieldName("type"); t != nil {
		sig.ReturnTypeID = "java:type:" + text(t, src)
	}
	sig.Rehash()
	doc.Sigs[sig.ID] = sig
	node.SignatureID = sig.ID

	doc.AddNode(node)
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeContains, SourceID: ownerID, TargetID: id})
	doc.AddEdge(&ir.Edge{Kind: ir.EdgeDefines, SourceID: ownerID, TargetID: id})
}
