// Package query implements §6.5: the Query API facade consumed by an
// agent, CLI, or server — the one place search, navigation, impact, and
// overlay operations are exposed as a stable surface over the C1-C9
// components, independent of how a caller transports requests in.
package query

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/viant/codeintel/change"
	"github.com/viant/codeintel/codeerr"
	"github.com/viant/codeintel/fusion"
	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/overlay"
	"github.com/viant/codeintel/port"
	"github.com/viant/codeintel/resolve"
	"github.com/viant/codeintel/semantic"
)

// Location is one reference site: a file and the span within it.
type Location struct {
	FilePath string
	Span     ir.Span
	NodeID   string
}

// Subgraph is a node/edge slice of a call graph, the call_graph operation's
// result shape.
type Subgraph struct {
	Nodes []*ir.Node
	Edges []semantic.CallEdge
}

// ImpactReport is the impact operation's result: every fqn the rebuilder
// would need to revisit for a change of the given level at changedFQN.
type ImpactReport struct {
	ChangedFQN   string
	Level        change.Level
	AffectedFQNs []string
}

// RankedResults is the search operation's result: fusion.Fuse's ranking
// plus the intent it classified or was given.
type RankedResults struct {
	Intent  fusion.Intent
	Results []fusion.RankedResult
}

// Facade is the Query API entry point. It is safe for concurrent use: the
// only mutable state (overlay sessions) is guarded by its own mutex.
type Facade struct {
	Store   port.IRStore
	Indexes map[fusion.Strategy]port.IndexAdapter
	Log     *zap.Logger
	Fusion  fusion.Options

	mu       sync.Mutex
	sessions map[string]*overlaySession // patch_id -> session
}

type overlaySession struct {
	repoID string
	stack  *overlay.Stack
}

// New creates a Facade. indexes may be nil/partial — search degrades to
// whichever strategies are registered, per spec §7's graceful-degradation
// policy for fusion.
func New(store port.IRStore, indexes map[fusion.Strategy]port.IndexAdapter, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{Store: store, Indexes: indexes, Log: log, sessions: map[string]*overlaySession{}}
}

func (f *Facade) loadDoc(ctx context.Context, repoID, snapshotID string) (*ir.Document, error) {
	doc, err := f.Store.Load(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Search fuses every registered strategy's results for query under the
// given (or classified) intent.
func (f *Facade) Search(ctx context.Context, query string, limit int, intentHint *fusion.Intent) (*RankedResults, error) {
	intent := fusion.ClassifyIntent(query)
	if intentHint != nil {
		intent = *intentHint
	}

	var hits []fusion.Hit
	var failed []string
	for strategy, adapter := range f.Indexes {
		strategyHits, err := adapter.Search(ctx, query, limit)
		if err != nil {
			failed = append(failed, string(strategy))
			f.Log.Warn("query: strategy search failed", zap.String("strategy", string(strategy)), zap.Error(err))
			continue
		}
		for rank, h := range strategyHits {
			hits = append(hits, fusion.Hit{ChunkID: h.ChunkID, Rank: rank, Strategy: strategy})
		}
	}
	if len(failed) > 0 && len(failed) == len(f.Indexes) {
		return &RankedResults{Intent: intent}, &codeerr.Fusion{FailedStrategies: failed, AllFailed: true}
	}

	results := fusion.Fuse(hits, intent, f.Fusion)
	var err error
	if len(failed) > 0 {
		err = &codeerr.Fusion{FailedStrategies: failed}
	}
	return &RankedResults{Intent: intent, Results: results}, err
}

// GetDefinition resolves fqn to its defining Node in the given snapshot.
func (f *Facade) GetDefinition(ctx context.Context, repoID, snapshotID, fqn string) (*ir.Node, error) {
	doc, err := f.loadDoc(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	return definitionOf(doc, fqn)
}

func definitionOf(doc *ir.Document, fqn string) (*ir.Node, error) {
	table := resolve.BuildSymbolTable(doc)
	id, ok := table.Lookup(fqn)
	if !ok {
		return nil, &codeerr.NotFound{Kind: "definition", Ref: fqn}
	}
	return doc.Nodes[id], nil
}

// GetReferences returns every site that references fqn's definition.
func (f *Facade) GetReferences(ctx context.Context, repoID, snapshotID, fqn string) ([]Location, error) {
	doc, err := f.loadDoc(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	return referencesOf(doc, fqn)
}

func referencesOf(doc *ir.Document, fqn string) ([]Location, error) {
	def, err := definitionOf(doc, fqn)
	if err != nil {
		return nil, err
	}
	var out []Location
	for _, e := range doc.Edges {
		if e.TargetID != def.ID {
			continue
		}
		switch e.Kind {
		case ir.EdgeCalls, ir.EdgeReferences, ir.EdgeImports, ir.EdgeInherits, ir.EdgeImplements:
		default:
			continue
		}
		src, ok := doc.Nodes[e.SourceID]
		if !ok {
			continue
		}
		out = append(out, Location{FilePath: src.FilePath, Span: src.Span, NodeID: src.ID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}

// CallGraph returns every node reachable from fromFQN along CALLS edges,
// context-insensitive (spec §4.4.4); context-sensitive call graphs are not
// exposed over this facade since they require a caller-supplied
// CallContext the query-layer transport shapes don't carry.
func (f *Facade) CallGraph(ctx context.Context, repoID, snapshotID, fromFQN string) (*Subgraph, error) {
	doc, err := f.loadDoc(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	return callGraphFrom(doc, fromFQN)
}

func callGraphFrom(doc *ir.Document, fromFQN string) (*Subgraph, error) {
	def, err := definitionOf(doc, fromFQN)
	if err != nil {
		return nil, err
	}
	graph := semantic.BuildCallGraph(doc)
	reachable := map[string]bool{def.ID: true}
	for _, id := range graph.ReachableFrom(def.ID) {
		reachable[id] = true
	}

	sub := &Subgraph{}
	for id := range reachable {
		if n, ok := doc.Nodes[id]; ok {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	sort.Slice(sub.Nodes, func(i, j int) bool { return sub.Nodes[i].ID < sub.Nodes[j].ID })

	for _, ce := range graph.Edges {
		if reachable[ce.CallerID] && reachable[ce.CalleeID] {
			sub.Edges = append(sub.Edges, ce)
		}
	}
	return sub, nil
}

// Impact computes every fqn the rebuilder would revisit for a change of
// level at changedFQN (spec §4.5.2's rebuild-scope column, expressed at fqn
// rather than file granularity since callers of this API reason about
// symbols).
func (f *Facade) Impact(ctx context.Context, repoID, snapshotID, changedFQN string, level change.Level) (*ImpactReport, error) {
	doc, err := f.loadDoc(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	return impactOf(doc, changedFQN, level)
}

func impactOf(doc *ir.Document, changedFQN string, level change.Level) (*ImpactReport, error) {
	def, err := definitionOf(doc, changedFQN)
	if err != nil {
		return nil, err
	}

	report := &ImpactReport{ChangedFQN: changedFQN, Level: level}
	switch level {
	case change.LevelNone:
		// rebuild scope is "skip"; no affected fqns.
	case change.LevelBodyLocal:
		report.AffectedFQNs = []string{changedFQN}
	case change.LevelSignature:
		graph := semantic.BuildCallGraph(doc)
		for _, callerID := range graph.Callers(def.ID) {
			if n, ok := doc.Nodes[callerID]; ok {
				report.AffectedFQNs = append(report.AffectedFQNs, n.FQN)
			}
		}
	case change.LevelInterface, change.LevelGlobal:
		fdg := resolve.BuildFileDependencyGraph(doc)
		seen := map[string]bool{}
		for _, depFile := range fdg.Dependents(def.FilePath) {
			for _, n := range doc.Nodes {
				if n.FilePath == depFile && !seen[n.FQN] {
					seen[n.FQN] = true
					report.AffectedFQNs = append(report.AffectedFQNs, n.FQN)
				}
			}
		}
	}
	sort.Strings(report.AffectedFQNs)
	return report, nil
}

// PreviewRename answers preview_rename against a committed snapshot,
// without any overlay session involved.
func (f *Facade) PreviewRename(ctx context.Context, repoID, snapshotID, fromFQN, toName string) (*overlay.SpeculativeResult, error) {
	doc, err := f.loadDoc(ctx, repoID, snapshotID)
	if err != nil {
		return nil, err
	}
	view := overlay.NewStack(doc, 0).View()
	return overlay.PreviewRename(view, fromFQN, toName)
}

// OverlayApply opens a new overlay session on top of baseSnapshotID with
// edit as its only layer, returning the resulting patch_id. Every call
// starts a fresh session; it never adds a layer to an existing one.
func (f *Facade) OverlayApply(ctx context.Context, repoID, baseSnapshotID string, edit overlay.Edit) (string, error) {
	doc, err := f.loadDoc(ctx, repoID, baseSnapshotID)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stack := overlay.NewStack(doc, 0)
	patchID, _, applyErr := stack.ApplyPatch(edit)
	f.sessions[patchID] = &overlaySession{repoID: repoID, stack: stack}
	return patchID, applyErr
}

func (f *Facade) session(repoID, patchID string) (*overlaySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[patchID]
	if !ok || s.repoID != repoID {
		return nil, &codeerr.NotFound{Kind: "patch", Ref: patchID}
	}
	return s, nil
}

// OverlayPreviewRename runs preview_rename against patchID's virtual view
// instead of a committed snapshot (overlay_query, spec §6.5).
func (f *Facade) OverlayPreviewRename(repoID, patchID, fromFQN, toName string) (*overlay.SpeculativeResult, error) {
	s, err := f.session(repoID, patchID)
	if err != nil {
		return nil, err
	}
	return overlay.PreviewRename(s.stack.View(), fromFQN, toName)
}

// OverlayGetDefinition runs get_definition against patchID's virtual view.
func (f *Facade) OverlayGetDefinition(repoID, patchID, fqn string) (*ir.Node, error) {
	s, err := f.session(repoID, patchID)
	if err != nil {
		return nil, err
	}
	return definitionOf(s.stack.View().Document(), fqn)
}

// OverlayCallGraph runs call_graph against patchID's virtual view.
func (f *Facade) OverlayCallGraph(repoID, patchID, fromFQN string) (*Subgraph, error) {
	s, err := f.session(repoID, patchID)
	if err != nil {
		return nil, err
	}
	return callGraphFrom(s.stack.View().Document(), fromFQN)
}

// OverlayCommit folds patchID into a new base snapshot, persists it via the
// IR store, and ends the overlay session.
func (f *Facade) OverlayCommit(ctx context.Context, repoID, patchID, newSnapshotID string) (*ir.Document, error) {
	s, err := f.session(repoID, patchID)
	if err != nil {
		return nil, err
	}
	folded, err := s.stack.Commit(patchID, newSnapshotID)
	if err != nil {
		return nil, err
	}
	if err := f.Store.Save(ctx, folded); err != nil {
		return nil, err
	}
	f.mu.Lock()
	delete(f.sessions, patchID)
	f.mu.Unlock()
	return folded, nil
}

// OverlayRollback discards patchID without folding it.
func (f *Facade) OverlayRollback(repoID, patchID string) error {
	s, err := f.session(repoID, patchID)
	if err != nil {
		return err
	}
	if err := s.stack.Rollback(patchID); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.sessions, patchID)
	f.mu.Unlock()
	return nil
}
