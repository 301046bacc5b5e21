// Package rebuild implements C6: the two-pass incremental rebuilder and the
// snapshot lifecycle it produces. Pass 1 regenerates the IR contribution of
// every directly changed file; Pass 2 resolves the fqns Pass 1 reports as
// affected back to files and rebuilds that impact closure, bounded by a
// configurable ceiling (spec §4.6). Grounded on the teacher's
// analyzer.AnalyzeAll merge-many-PackageModels-into-one shape (here: merge
// many per-file regenerations into one Document) and on
// inspector/repository's manifest-driven file walk for reading source off
// an afs.Service. The fetch+parse stage runs on a bounded worker pool
// (golang.org/x/sync/errgroup); applying a file's generated IR into the
// shared Document happens back on the caller's goroutine, in input order,
// since ir.Document is not safe for concurrent mutation.
package rebuild

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/viant/afs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/codeintel/change"
	"github.com/viant/codeintel/codeerr"
	"github.com/viant/codeintel/config"
	"github.com/viant/codeintel/generator"
	"github.com/viant/codeintel/ir"
	"github.com/viant/codeintel/parser"
	"github.com/viant/codeintel/resolve"
	"github.com/viant/codeintel/semantic"
)

// Result is the outcome of one rebuild session.
type Result struct {
	Doc        *ir.Document
	Pass1Files []string
	Pass2Files []string
	// Failed maps a file path to the codeerr.Rebuild that contained it; the
	// file's previous IR contribution is left untouched in Doc.
	Failed    map[string]error
	Truncated bool
}

// Rebuilder owns the dependencies needed to turn a ChangeSet into a new IR
// Document: a readable filesystem, a parser port, and the per-language
// generator registry (consulted via generator.Lookup, never imported
// directly — spec §9's dispatch-table design note).
type Rebuilder struct {
	fs     afs.Service
	parser parser.Adapter
	log    *zap.Logger
	opts   config.Options
}

func New(fs afs.Service, p parser.Adapter, log *zap.Logger, opts config.Options) *Rebuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rebuilder{fs: fs, parser: p, log: log, opts: config.WithDefaults(opts)}
}

// Run executes one rebuild session: base is the previous snapshot (nil for
// a from-scratch build), root is the repository root readable via the
// Rebuilder's afs.Service, cs is the detected ChangeSet, and newSnapshotID
// names the Document Run produces. mode controls how far Pass 2's impact
// closure extends (spec §4.6).
func (r *Rebuilder) Run(ctx context.Context, root string, base *ir.Document, cs change.ChangeSet, newSnapshotID string, mode config.RebuildMode) (*Result, error) {
	var doc *ir.Document
	if base != nil {
		doc = base.Clone(newSnapshotID)
	} else {
		doc = ir.NewDocument(repoIDOf(base), newSnapshotID)
	}

	res := &Result{Doc: doc, Failed: map[string]error{}}

	pass1Files := dedupeSorted(append(append([]string{}, cs.Added...), cs.Modified...))
	for _, path := range cs.Deleted {
		doc.RemoveFile(path)
	}

	affected := map[string]bool{}
	if err := r.runPass(ctx, doc, base, root, pass1Files, res, &res.Pass1Files, affected); err != nil {
		return res, err
	}

	pass2Files := r.pass2Candidates(doc, base, mode, pass1Files, affected)
	ceiling := r.opts.ImpactPassMaxFiles
	if ceiling > 0 && len(pass2Files) > ceiling {
		res.Truncated = true
		r.log.Warn("rebuild: pass 2 impact closure exceeds ceiling, truncating",
			zap.Int("candidates", len(pass2Files)), zap.Int("ceiling", ceiling))
		pass2Files = pass2Files[:ceiling]
	}
	if err := r.runPass(ctx, doc, base, root, pass2Files, res, &res.Pass2Files, nil); err != nil {
		return res, err
	}

	symbols := resolve.BuildSymbolTable(doc)
	resolve.ResolveImports(doc, symbols)
	resolve.RewriteExternalEdges(doc, symbols)
	semantic.EmitDataFlowEdges(doc)

	allChanged := append(append([]string{}, pass1Files...), pass2Files...)
	change.MarkStale(doc, allChanged, time.Now())

	return res, nil
}

// fetched is one file's fetch+parse outcome, produced concurrently and
// applied to doc sequentially afterward.
type fetched struct {
	path string
	tree *parser.SyntaxTree
	gen  generator.Generator
	err  error
}

// runPass fetches and parses paths on a bounded worker pool, then applies
// each successfully parsed file to doc in input order — the only part of a
// pass that touches shared Document state. succeeded collects the paths
// that made it through; affected, when non-nil, collects the fqns Classify
// reports (Pass 1's contribution to Pass 2's closure).
func (r *Rebuilder) runPass(ctx context.Context, doc, base *ir.Document, root string, paths []string, res *Result, succeeded *[]string, affected map[string]bool) error {
	if len(paths) == 0 {
		return nil
	}
	results := make([]fetched, len(paths))

	workers := r.opts.WorkerPoolSize
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = fetched{path: path, err: gctx.Err()}
				return nil
			}
			tree, gen, err := r.fetchAndParse(gctx, root, path)
			results[i] = fetched{path: path, tree: tree, gen: gen, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, f := range results {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.err != nil {
			res.Failed[f.path] = &codeerr.Rebuild{FilePath: f.path, Err: f.err}
			r.log.Warn("rebuild: file failed, retaining previous IR", zap.String("path", f.path), zap.Error(f.err))
			continue
		}
		// BuildIR removes f.path's stale contribution itself before
		// regenerating it.
		if err := f.gen.BuildIR(doc, f.path, f.tree, base); err != nil {
			res.Failed[f.path] = &codeerr.Rebuild{FilePath: f.path, Err: err}
			r.log.Warn("rebuild: generate failed, retaining previous IR", zap.String("path", f.path), zap.Error(err))
			continue
		}
		*succeeded = append(*succeeded, f.path)
		if affected != nil && base != nil {
			for _, fqn := range change.Classify(base, doc, f.path).AffectedFQNs {
				affected[fqn] = true
			}
		}
	}
	return nil
}

// fetchAndParse reads and parses path; it performs no Document mutation, so
// it is safe to run concurrently across files.
func (r *Rebuilder) fetchAndParse(ctx context.Context, root, path string) (*parser.SyntaxTree, generator.Generator, error) {
	lang, ok := parser.LanguageForPath(path)
	if !ok {
		return nil, nil, fmt.Errorf("rebuild: no language mapping for %s", path)
	}
	gen, err := generator.Lookup(lang)
	if err != nil {
		return nil, nil, err
	}
	content, err := r.fs.DownloadWithURL(ctx, joinURL(root, path))
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild: read %s: %w", path, err)
	}
	tree, err := r.parser.Parse(parser.SourceFile{Path: path, Content: content}, lang)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild: parse %s: %w", path, err)
	}
	return tree, gen, nil
}

// pass2Candidates resolves Pass 1's affected fqns to the files that define
// or depend on them, honoring mode's closure depth (spec §4.6: FAST none,
// BALANCED 1-hop, DEEP 2-hop, BOOTSTRAP every file, REPAIR every file with a
// stale edge).
func (r *Rebuilder) pass2Candidates(doc, base *ir.Document, mode config.RebuildMode, pass1Files []string, affected map[string]bool) []string {
	processed := map[string]bool{}
	for _, p := range pass1Files {
		processed[p] = true
	}

	switch mode {
	case config.ModeFast:
		return nil
	case config.ModeBootstrap:
		var all []string
		for p := range doc.FilePaths() {
			if !processed[p] {
				all = append(all, p)
			}
		}
		sort.Strings(all)
		return all
	case config.ModeRepair:
		var stale []string
		seen := map[string]bool{}
		for _, e := range doc.Edges {
			if !e.Stale {
				continue
			}
			if src, ok := doc.Nodes[e.SourceID]; ok && !processed[src.FilePath] && !seen[src.FilePath] {
				seen[src.FilePath] = true
				stale = append(stale, src.FilePath)
			}
		}
		sort.Strings(stale)
		return stale
	}

	hops := 1
	if mode == config.ModeDeep {
		hops = 2
	}

	lookupBase := base
	if lookupBase == nil {
		lookupBase = doc
	}
	symbols := resolve.BuildSymbolTable(lookupBase)
	deps := resolve.BuildFileDependencyGraph(lookupBase)

	frontier := map[string]bool{}
	for fqn := range affected {
		if id, ok := symbols.Lookup(fqn); ok {
			if n, ok := lookupBase.Nodes[id]; ok {
				frontier[n.FilePath] = true
			}
		}
	}

	candidates := map[string]bool{}
	for i := 0; i < hops; i++ {
		next := map[string]bool{}
		for path := range frontier {
			for _, dependent := range deps.Dependents(path) {
				if !processed[dependent] && !candidates[dependent] {
					candidates[dependent] = true
					next[dependent] = true
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	out := make([]string, 0, len(candidates))
	for p := range candidates {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func dedupeSorted(paths []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func repoIDOf(doc *ir.Document) string {
	if doc == nil {
		return ""
	}
	return doc.RepoID
}

func joinURL(root, path string) string {
	if root == "" {
		return path
	}
	return root + "/" + path
}
