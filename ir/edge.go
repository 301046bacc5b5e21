package ir

// EdgeKind enumerates every edge family from spec §3.3. Edges are
// first-class: relational data (e.g. a class's base list) is never folded
// into a Node field, only expressed as edges.
type EdgeKind string

const (
	// Structure
	EdgeContains EdgeKind = "CONTAINS"
	EdgeDefines  EdgeKind = "DEFINES"

	// Call/use
	EdgeCalls  EdgeKind = "CALLS"
	EdgeReads  EdgeKind = "READS"
	EdgeWrites EdgeKind = "WRITES"

	// Reference
	EdgeReferences EdgeKind = "REFERENCES"

	// Type/module
	EdgeImports     EdgeKind = "IMPORTS"
	EdgeInherits    EdgeKind = "INHERITS"
	EdgeImplements  EdgeKind = "IMPLEMENTS"
	EdgeInstantiates EdgeKind = "INSTANTIATES"
	EdgeOverrides   EdgeKind = "OVERRIDES"
	EdgeDecorates   EdgeKind = "DECORATES"

	// Control/resource
	EdgeThrows       EdgeKind = "THROWS"
	EdgeUses         EdgeKind = "USES"
	EdgeReadsRes     EdgeKind = "READS_RESOURCE"
	EdgeWritesRes    EdgeKind = "WRITES_RESOURCE"
	EdgeRouteTo      EdgeKind = "ROUTE_TO"
)

// Edge connects two nodes (or a node and a synthesized External* node).
type Edge struct {
	ID       string
	Kind     EdgeKind
	SourceID string
	TargetID string
	Span     *Span
	Attrs    map[string]any

	// Stale marks an edge whose source file has been modified but whose
	// target file has not yet been re-validated (spec §4.5.3). StaleAt is
	// the Unix-nano timestamp the edge was marked stale at, used by the
	// background TTL sweep.
	Stale   bool
	StaleAt int64
}

// EdgeID builds a stable id for an edge so re-emitting an unchanged edge
// during a rebuild does not spuriously create a duplicate.
func EdgeID(kind EdgeKind, sourceID, targetID string) string {
	return string(kind) + "|" + sourceID + "|" + targetID
}
