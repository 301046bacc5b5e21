package ir

import "fmt"

// Severity of a recorded Diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is collected whenever a component degrades gracefully instead
// of aborting (unresolved import, skipped subtree, external analyzer
// timeout, ...). Diagnostics never stop processing; they are attached to the
// document for later display (spec §7 "Partial success is the norm").
type Diagnostic struct {
	Severity Severity
	Message  string
	NodeID   string
	FilePath string
}

// PackageMetadata records per-package facts a generator or resolver derives
// (import path, module path, language) without promoting them to Node
// fields.
type PackageMetadata struct {
	Name       string
	ImportPath string
	Language   string
	FilePaths  []string
}

// Document is one repository snapshot: the unit of persistence and query
// (spec §3.1). (repo_id, snapshot_id) uniquely identifies it.
type Document struct {
	RepoID        string
	SnapshotID    string
	SchemaVersion string

	Nodes   map[string]*Node
	Edges   map[string]*Edge
	Types   map[string]*TypeEntity
	Sigs    map[string]*SignatureEntity
	CFGs    map[string]*CFG

	Diagnostics []Diagnostic
	Packages    []PackageMetadata
}

// CurrentSchemaVersion follows semantic versioning per spec §6.1; a mismatch
// in the major component triggers a full rebuild rather than an incremental
// load.
const CurrentSchemaVersion = "1.0.0"

// NewDocument allocates an empty, well-formed document for (repoID, snapshotID).
func NewDocument(repoID, snapshotID string) *Document {
	return &Document{
		RepoID:        repoID,
		SnapshotID:    snapshotID,
		SchemaVersion: CurrentSchemaVersion,
		Nodes:         make(map[string]*Node),
		Edges:         make(map[string]*Edge),
		Types:         make(map[string]*TypeEntity),
		Sigs:          make(map[string]*SignatureEntity),
		CFGs:          make(map[string]*CFG),
	}
}

// AddNode registers a node, overwriting any previous node with the same id
// (used by incremental regeneration of a single file).
func (d *Document) AddNode(n *Node) { d.Nodes[n.ID] = n }

// AddEdge registers an edge, keyed by its synthesized id so re-emitting an
// unchanged edge is idempotent.
func (d *Document) AddEdge(e *Edge) {
	if e.ID == "" {
		e.ID = EdgeID(e.Kind, e.SourceID, e.TargetID)
	}
	d.Edges[e.ID] = e
}

func (d *Document) AddDiagnostic(sev Severity, msg, nodeID, filePath string) {
	d.Diagnostics = append(d.Diagnostics, Diagnostic{Severity: sev, Message: msg, NodeID: nodeID, FilePath: filePath})
}

// EdgesFrom returns all edges whose source is nodeID.
func (d *Document) EdgesFrom(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range d.Edges {
		if e.SourceID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns all edges whose target is nodeID.
func (d *Document) EdgesTo(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range d.Edges {
		if e.TargetID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// NodesInFile returns every node whose FilePath equals path, used by
// per-file rebuild passes to replace a file's contribution wholesale.
func (d *Document) NodesInFile(path string) []*Node {
	var out []*Node
	for _, n := range d.Nodes {
		if n.FilePath == path {
			out = append(out, n)
		}
	}
	return out
}

// RemoveFile deletes every node/edge/signature/CFG owned by path, in
// preparation for re-adding the file's freshly generated contribution.
func (d *Document) RemoveFile(path string) {
	var toDelete []string
	for id, n := range d.Nodes {
		if n.FilePath == path {
			toDelete = append(toDelete, id)
			if n.SignatureID != "" {
				delete(d.Sigs, n.SignatureID)
			}
			delete(d.CFGs, id)
		}
	}
	for _, id := range toDelete {
		delete(d.Nodes, id)
	}
	// Drop edges whose source node no longer exists; targets pointing into
	// path are left for the caller to mark stale (cross-file concern).
	for id, e := range d.Edges {
		if _, ok := d.Nodes[e.SourceID]; !ok {
			delete(d.Edges, id)
		}
	}
}

// FilePaths returns the set of distinct file paths any node in d belongs to.
func (d *Document) FilePaths() map[string]bool {
	out := map[string]bool{}
	for _, n := range d.Nodes {
		out[n.FilePath] = true
	}
	return out
}

// Clone produces a new Document carrying snapshotID. Nodes, types,
// signatures and CFGs of d are shared through fresh copies of the
// containing maps, while every edge is duplicated into a new Edge struct
// (the shared structs are treated as immutable once a snapshot is committed,
// mirroring the teacher's linage.Merge — concatenate/copy rather than
// mutate the source). The rebuilder uses Clone as the starting point for a
// new snapshot so per-file regeneration never mutates a previously
// committed Document.
func (d *Document) Clone(snapshotID string) *Document {
	out := NewDocument(d.RepoID, snapshotID)
	out.SchemaVersion = d.SchemaVersion
	for id, n := range d.Nodes {
		out.Nodes[id] = n
	}
	for id, e := range d.Edges {
		cp := *e
		out.Edges[id] = &cp
	}
	for id, t := range d.Types {
		out.Types[id] = t
	}
	for id, s := range d.Sigs {
		out.Sigs[id] = s
	}
	for id, c := range d.CFGs {
		out.CFGs[id] = c
	}
	out.Packages = append(out.Packages, d.Packages...)
	return out
}

// WellFormed checks the universal invariants from spec §8.1: every edge's
// endpoints exist (or are External*), every signature_id points at a
// signature owned by the referring node, every CFG has one Entry/Exit.
func (d *Document) WellFormed() error {
	for _, e := range d.Edges {
		if _, ok := d.Nodes[e.SourceID]; !ok {
			return fmt.Errorf("edge %s: source %s not found", e.ID, e.SourceID)
		}
		if n, ok := d.Nodes[e.TargetID]; !ok {
			return fmt.Errorf("edge %s: target %s not found", e.ID, e.TargetID)
		} else if n == nil {
			return fmt.Errorf("edge %s: target %s is nil", e.ID, e.TargetID)
		}
	}
	for id, n := range d.Nodes {
		if n.SignatureID == "" {
			continue
		}
		sig, ok := d.Sigs[n.SignatureID]
		if !ok {
			return fmt.Errorf("node %s: signature %s not found", id, n.SignatureID)
		}
		if sig.OwnerNodeID != id {
			return fmt.Errorf("node %s: signature %s owned by %s", id, n.SignatureID, sig.OwnerNodeID)
		}
	}
	for id, c := range d.CFGs {
		if c.EntryID == "" || c.ExitID == "" {
			return fmt.Errorf("cfg %s: missing entry/exit", id)
		}
		if _, ok := c.Blocks[c.EntryID]; !ok {
			return fmt.Errorf("cfg %s: entry block missing", id)
		}
		if _, ok := c.Blocks[c.ExitID]; !ok {
			return fmt.Errorf("cfg %s: exit block missing", id)
		}
	}
	return nil
}
