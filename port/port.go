// Package port declares the storage and transport interfaces the core
// depends on without specifying a concrete backend, per spec §6.2-6.4. A
// consuming application wires a concrete adapter (SQL, object store, search
// index) behind each port; this package never imports one, grounded on the
// teacher's own graph.GraphExporter seam (viant-linager/analyzer, an
// interface the analyzer calls without knowing which store is behind it).
package port

import (
	"context"

	"github.com/viant/codeintel/change"
	"github.com/viant/codeintel/ir"
)

// IRStore persists whole IR documents, one per (repo_id, snapshot_id).
type IRStore interface {
	Save(ctx context.Context, doc *ir.Document) error
	Load(ctx context.Context, repoID, snapshotID string) (*ir.Document, error)
	ListSnapshots(ctx context.Context, repoID string) ([]string, error)
	Delete(ctx context.Context, repoID, snapshotID string) error
}

// GraphStore persists and queries the node/edge graph independently of the
// whole-document IRStore, so callers that only need graph traversal don't
// pay for a full document load.
type GraphStore interface {
	UpsertNodes(ctx context.Context, repoID, snapshotID string, nodes []*ir.Node) error
	UpsertEdges(ctx context.Context, repoID, snapshotID string, edges []*ir.Edge) error
	DeleteNodesForFiles(ctx context.Context, repoID, snapshotID string, paths []string) error
	QueryCallers(ctx context.Context, repoID, snapshotID, nodeID string) ([]*ir.Node, error)
	QueryCallees(ctx context.Context, repoID, snapshotID, nodeID string) ([]*ir.Node, error)
	QueryImports(ctx context.Context, repoID, snapshotID, filePath string) ([]string, error)
	QueryImportedBy(ctx context.Context, repoID, snapshotID, filePath string) ([]string, error)
}

// Chunk is a retrievable unit handed to search indexes — a function body, a
// doc comment, or any other span the fusion retriever (C8) can rank.
type Chunk struct {
	ID       string
	NodeID   string
	FilePath string
	Text     string
	Kind     string
}

// ChunkStore persists the chunks derived from an IR document for retrieval.
type ChunkStore interface {
	SaveChunks(ctx context.Context, repoID, snapshotID string, chunks []Chunk) error
	GetChunksByFile(ctx context.Context, repoID, snapshotID, filePath string) ([]Chunk, error)
	DeleteChunksByFile(ctx context.Context, repoID, snapshotID, filePath string) error
}

// SearchHit is one per-strategy retrieval result, ranked before fusion.
type SearchHit struct {
	ChunkID string
	Score   float64
}

// IndexAdapter wraps one retrieval strategy (lexical, symbol, embedding, ...)
// behind a uniform index/search/delete surface, per spec §6.2.
type IndexAdapter interface {
	Index(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Delete(ctx context.Context, ids []string) error
}

// ChangeSource is the change-detection port (spec §6.4): either a diff-
// providing source-control adapter or a filesystem-watcher adapter, both
// reduced to the same ChangeSet output.
type ChangeSource interface {
	Changes(ctx context.Context, repoID string) (change.ChangeSet, error)
}
