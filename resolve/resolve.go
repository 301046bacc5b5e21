// Package resolve implements C3, cross-file resolution: the global symbol
// table keyed by fully-qualified name, import-edge resolution (accepting
// either a node id or an fqn as the target), and the file dependency DAG a
// deterministic topological order is derived from. Grounded on the
// teacher's inspector/graph/project.go (Project.Init / adjustRelativePath,
// which performs the analogous "make paths and import paths consistent
// across every file in the project" pass) and inspector/repository's
// manifest-driven project root detection.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/codeintel/codeerr"
	"github.com/viant/codeintel/ir"
)

// SymbolTable maps a fully-qualified name to the node id that defines it,
// across every file in a Document. The table is keyed by fqn alone: one
// name maps to exactly one node id, and when several definition nodes share
// an fqn (in any language) only one of them is indexed; which one is not
// defined.
type SymbolTable struct {
	byFQN map[string]string // fqn -> node id
}

// BuildSymbolTable scans every node in doc and indexes definitions
// (everything except Import/Export/Block/Condition/Loop/TryCatch, which are
// not name-bearing declarations, and the ExternalFunction/ExternalSymbol
// placeholders, which stand in for a definition rather than being one) by
// fqn.
func BuildSymbolTable(doc *ir.Document) *SymbolTable {
	t := &SymbolTable{byFQN: make(map[string]string, len(doc.Nodes))}
	for id, n := range doc.Nodes {
		switch n.Kind {
		case ir.KindImport, ir.KindExport, ir.KindBlock, ir.KindCondition, ir.KindLoop, ir.KindTryCatch,
			ir.KindExternalFunction, ir.KindExternalSymbol:
			continue
		}
		t.byFQN[n.FQN] = id
	}
	return t
}

// Lookup returns the node id defining fqn, if any.
func (t *SymbolTable) Lookup(fqn string) (string, bool) {
	id, ok := t.byFQN[fqn]
	return id, ok
}

// ResolveReference resolves a raw reference recorded on an edge (see
// ir.Edge.Attrs["raw"]) against the symbol table: ref may already be a node
// id (the generator's bare-name/selector resolution already found one) or a
// bare fqn the resolver must look up post-hoc, e.g. a reference left
// pointing at an ExternalSymbol id because the generator could not see
// other files. Returns codeerr.Resolution when neither form resolves.
func (t *SymbolTable) ResolveReference(ref string) (string, error) {
	if strings.Contains(ref, ":") {
		// Already shaped like a node id (<language>:<path>:<fqn>).
		return ref, nil
	}
	if id, ok := t.Lookup(ref); ok {
		return id, nil
	}
	return "", &codeerr.Resolution{RawReference: ref}
}

// RewriteExternalEdges walks doc's edges and, for every edge whose target is
// a synthesized External* node, attempts to resolve it against t; when
// resolution succeeds the edge is rewired to point at the real definition
// and the stale External node is left in place (other edges may still
// target it) but no longer referenced by this edge.
func RewriteExternalEdges(doc *ir.Document, t *SymbolTable) (rewired int) {
	for _, e := range doc.Edges {
		target, ok := doc.Nodes[e.TargetID]
		if ok && target.Kind != ir.KindExternalFunction && target.Kind != ir.KindExternalSymbol {
			continue
		}
		raw, _ := e.Attrs["raw"].(string)
		if raw == "" {
			continue
		}
		if id, found := t.Lookup(raw); found {
			e.TargetID = id
			rewired++
		}
	}
	return rewired
}

// packageFileIndex maps a package/module path (a File node's FQN with the
// "#file" suffix stripped) to the canonical File node id that represents it.
// When a package spans multiple files, the lexically smallest file path is
// picked so the result is deterministic across runs.
func packageFileIndex(doc *ir.Document) map[string]string {
	type candidate struct{ path, id string }
	best := map[string]candidate{}
	for id, n := range doc.Nodes {
		if n.Kind != ir.KindFile {
			continue
		}
		pkgPath := strings.TrimSuffix(n.FQN, "#file")
		cur, ok := best[pkgPath]
		if !ok || n.FilePath < cur.path {
			best[pkgPath] = candidate{path: n.FilePath, id: id}
		}
	}
	out := make(map[string]string, len(best))
	for pkgPath, c := range best {
		out[pkgPath] = c.id
	}
	return out
}

// ResolveImports is the C3 import-resolution-map operation (spec §4.3 point
// 2): every IMPORTS edge's original target is an in-file Import node (or,
// for a generator that recorded a bare fqn instead, a raw string) — an
// intermediate form, never the canonical cross-file definition. This pass
// rewrites each such target by node id first, then by fqn, to the File node
// of the package/module the import names, satisfied by ResolveReference's
// dual node-id/fqn acceptance; when the target package is not part of this
// document (an external/stdlib import), the edge is left pointing at a
// synthesized ExternalSymbol node instead of the stale Import node, per the
// "leave the edge pointing at an ExternalSymbol node" fallback.
func ResolveImports(doc *ir.Document, t *SymbolTable) (resolved, external int) {
	pkgFiles := packageFileIndex(doc)
	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeImports {
			continue
		}
		target, ok := doc.Nodes[e.TargetID]
		if !ok || target.Kind != ir.KindImport {
			continue
		}
		src, ok := doc.Nodes[e.SourceID]
		if !ok {
			continue
		}
		importPath := target.FQN
		if fileID, ok := pkgFiles[importPath]; ok {
			if file := doc.Nodes[fileID]; file != nil && file.FilePath != src.FilePath {
				e.TargetID = fileID
				resolved++
				continue
			}
		}
		if id, err := t.ResolveReference(importPath); err == nil {
			if def := doc.Nodes[id]; def != nil && def.FilePath != src.FilePath {
				e.TargetID = id
				resolved++
				continue
			}
		}
		e.TargetID = externalSymbolID(doc, target.Language, importPath, src.FilePath)
		external++
	}
	return resolved, external
}

// externalSymbolID synthesizes (and dedup-registers) the ExternalSymbol node
// an unresolvable IMPORTS edge is left pointing at.
func externalSymbolID(doc *ir.Document, language, rawReference, filePath string) string {
	id := ir.ExternalID(language, rawReference)
	if _, ok := doc.Nodes[id]; !ok {
		doc.AddNode(&ir.Node{
			ID:       id,
			Kind:     ir.KindExternalSymbol,
			FQN:      rawReference,
			FilePath: filePath,
			Language: language,
			Name:     rawReference,
		})
	}
	return id
}

// FileDependencyGraph is a DAG of relative file paths, an edge A -> B
// meaning "A imports, calls, references, inherits from or implements
// something defined in B".
type FileDependencyGraph struct {
	edges map[string]map[string]bool // from -> set of to
	nodes map[string]bool
}

// BuildFileDependencyGraph derives file-to-file edges from every IMPORTS /
// CALLS / REFERENCES / INHERITS / IMPLEMENTS edge whose target resolves to a
// node in a different file.
func BuildFileDependencyGraph(doc *ir.Document) *FileDependencyGraph {
	g := &FileDependencyGraph{edges: map[string]map[string]bool{}, nodes: map[string]bool{}}
	for _, n := range doc.Nodes {
		g.nodes[n.FilePath] = true
	}
	for _, e := range doc.Edges {
		switch e.Kind {
		case ir.EdgeImports, ir.EdgeCalls, ir.EdgeReferences, ir.EdgeInherits, ir.EdgeImplements:
		default:
			continue
		}
		src, okS := doc.Nodes[e.SourceID]
		dst, okD := doc.Nodes[e.TargetID]
		if !okS || !okD || src.FilePath == dst.FilePath {
			continue
		}
		if g.edges[src.FilePath] == nil {
			g.edges[src.FilePath] = map[string]bool{}
		}
		g.edges[src.FilePath][dst.FilePath] = true
	}
	return g
}

// TopologicalOrder returns files ordered so that every file appears after
// every file it depends on, using Kahn's algorithm. Files with equal
// in-degree are broken by lexical path order so the result is deterministic
// across runs. When a cycle exists, the cyclic files are appended at the end
// in lexical order (logged by the caller as a diagnostic) rather than the
// call failing outright — spec §4.3 "file dependency DAG... deterministic
// cycle tiebreak".
func (g *FileDependencyGraph) TopologicalOrder() (order []string, cyclic []string) {
	// inDegree counts, per file, the dependencies not yet emitted.
	inDegree := map[string]int{}
	dependents := map[string][]string{}
	for n := range g.nodes {
		inDegree[n] = 0
	}
	for from, tos := range g.edges {
		for to := range tos {
			inDegree[from]++
			dependents[to] = append(dependents[to], from)
		}
	}

	var ready []string
	for n, d := range inDegree {
		if d == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	visited := map[string]bool{}
	for len(ready) > 0 {
		sort.Strings(ready)
		cur := ready[0]
		ready = ready[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		order = append(order, cur)

		var newlyReady []string
		for _, from := range dependents[cur] {
			inDegree[from]--
			if inDegree[from] == 0 {
				newlyReady = append(newlyReady, from)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
	}

	for n := range g.nodes {
		if !visited[n] {
			cyclic = append(cyclic, n)
		}
	}
	sort.Strings(cyclic)
	order = append(order, cyclic...)
	return order, cyclic
}

// Dependents returns every file that (directly) depends on path.
func (g *FileDependencyGraph) Dependents(path string) []string {
	var out []string
	for from, tos := range g.edges {
		if tos[path] {
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}

// Dependencies returns every file path depends on directly.
func (g *FileDependencyGraph) Dependencies(path string) []string {
	out := make([]string, 0, len(g.edges[path]))
	for to := range g.edges[path] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// ValidateFullyResolved returns an error listing how many references remain
// unresolved (still targeting an External* node) after RewriteExternalEdges
// has run; callers use this to decide whether to emit a GLOBAL-impact
// diagnostic rather than silently shipping dangling external references for
// symbols that are in fact local.
func ValidateFullyResolved(doc *ir.Document) error {
	var unresolved int
	for _, e := range doc.Edges {
		n, ok := doc.Nodes[e.TargetID]
		if ok && (n.Kind == ir.KindExternalFunction || n.Kind == ir.KindExternalSymbol) {
			unresolved++
		}
	}
	if unresolved == 0 {
		return nil
	}
	return fmt.Errorf("resolve: %d edges remain unresolved against external placeholders", unresolved)
}
