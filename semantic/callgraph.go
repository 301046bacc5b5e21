// Package semantic implements C4: the semantic analysis pass that runs
// after cross-file resolution — context-insensitive and context-sensitive
// call graph construction, data-flow edges, type narrowing, and
// reachability queries over CALLS edges. Grounded on the teacher's
// analyzer/node.go (handleCall/handleAssignment, the walk-based model that
// this package generalizes from a Go-only analyzer into a repository-wide,
// document-driven pass) and analyzer/analyzer.go's computeTransitiveClosure
// (the BFS shape reachable_from reuses).
package semantic

import (
	"sort"

	"github.com/viant/codeintel/ir"
)

// CallEdge is one (caller, callee) pair in the context-insensitive call
// graph, merged from every CALLS edge between the two nodes.
type CallEdge struct {
	CallerID string
	CalleeID string
	SiteIDs  []string // edge ids of the underlying CALLS edges, for traceability
}

// CallGraph is the context-insensitive call graph: merged CALLS edges keyed
// by (caller, callee), plus an adjacency index for reachability queries.
type CallGraph struct {
	Edges       []CallEdge
	bySource    map[string][]string // caller -> callees
}

// BuildCallGraph merges every CALLS edge in doc by (caller_node, callee_node)
// per spec §4.4.4's context-insensitive definition.
func BuildCallGraph(doc *ir.Document) *CallGraph {
	merged := map[string]*CallEdge{}
	for id, e := range doc.Edges {
		if e.Kind != ir.EdgeCalls {
			continue
		}
		key := e.SourceID + "->" + e.TargetID
		ce, ok := merged[key]
		if !ok {
			ce = &CallEdge{CallerID: e.SourceID, CalleeID: e.TargetID}
			merged[key] = ce
		}
		ce.SiteIDs = append(ce.SiteIDs, id)
	}

	g := &CallGraph{bySource: map[string][]string{}}
	for _, ce := range merged {
		g.Edges = append(g.Edges, *ce)
		g.bySource[ce.CallerID] = append(g.bySource[ce.CallerID], ce.CalleeID)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].CallerID != g.Edges[j].CallerID {
			return g.Edges[i].CallerID < g.Edges[j].CallerID
		}
		return g.Edges[i].CalleeID < g.Edges[j].CalleeID
	})
	for k := range g.bySource {
		sort.Strings(g.bySource[k])
	}
	return g
}

// ReachableFrom returns every node reachable from node along CALLS edges,
// context-insensitive, mirroring the teacher's computeTransitiveClosure BFS.
func (g *CallGraph) ReachableFrom(nodeID string) []string {
	seen := map[string]bool{nodeID: true}
	queue := []string{nodeID}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, callee := range g.bySource[cur] {
			if !seen[callee] {
				seen[callee] = true
				out = append(out, callee)
				queue = append(queue, callee)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Callers returns every node with a direct CALLS edge into nodeID; used by
// the query facade's impact report for the SIGNATURE-level "rebuild all
// direct callers" rule.
func (g *CallGraph) Callers(nodeID string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.CalleeID == nodeID {
			out = append(out, e.CallerID)
		}
	}
	sort.Strings(out)
	return out
}

// CallContext is a context-sensitive call-graph key: the call site plus the
// caller's own context (nil at depth 0) plus the literal argument values
// that could be determined at that site (spec §4.4.4, "no heap or
// conditional constant propagation").
type CallContext struct {
	CallSiteID   string
	CallerContext *CallContext
	ConstArgs    []any
}

// Depth reports how many contexts deep this call is nested.
func (c *CallContext) Depth() int {
	d := 0
	for cur := c; cur != nil; cur = cur.CallerContext {
		d++
	}
	return d
}

// ContextSensitiveEdge is one call edge under a specific context.
type ContextSensitiveEdge struct {
	CallerID string
	CalleeID string
	Context  *CallContext
}

// ContextSensitiveCallGraph distinguishes callee sets per call context up to
// MaxDepth; beyond that, contexts collapse to the context-insensitive edge.
type ContextSensitiveCallGraph struct {
	MaxDepth int
	edges    []ContextSensitiveEdge
}

const defaultMaxContextDepth = 5

// NewContextSensitiveCallGraph creates an empty context-sensitive graph;
// edges are added one call site at a time with AddCall.
func NewContextSensitiveCallGraph(maxDepth int) *ContextSensitiveCallGraph {
	if maxDepth <= 0 {
		maxDepth = defaultMaxContextDepth
	}
	return &ContextSensitiveCallGraph{MaxDepth: maxDepth}
}

// AddCall records one context-sensitive call edge, collapsing the context to
// nil once MaxDepth is exceeded, per spec §4.4.4 "beyond depth, contexts
// merge".
func (g *ContextSensitiveCallGraph) AddCall(callerID, calleeID string, ctx *CallContext) {
	if ctx != nil && ctx.Depth() > g.MaxDepth {
		ctx = nil
	}
	g.edges = append(g.edges, ContextSensitiveEdge{CallerID: callerID, CalleeID: calleeID, Context: ctx})
}

// CalleesUnderContext returns every callee reachable from callerID under a
// context matching ctx (nil matches context-insensitive edges only).
func (g *ContextSensitiveCallGraph) CalleesUnderContext(callerID string, ctx *CallContext) []string {
	var out []string
	for _, e := range g.edges {
		if e.CallerID != callerID {
			continue
		}
		if sameContext(e.Context, ctx) {
			out = append(out, e.CalleeID)
		}
	}
	sort.Strings(out)
	return out
}

func sameContext(a, b *CallContext) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.CallSiteID != b.CallSiteID || len(a.ConstArgs) != len(b.ConstArgs) {
		return false
	}
	for i := range a.ConstArgs {
		if a.ConstArgs[i] != b.ConstArgs[i] {
			return false
		}
	}
	return sameContext(a.CallerContext, b.CallerContext)
}
