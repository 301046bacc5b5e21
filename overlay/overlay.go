// Package overlay implements C7: a mutable, layered view of uncommitted
// edits stacked on top of an immutable base ir.Document. Grounded on the
// teacher's inspector/graph/document.go Documents (an append-only,
// shadow-composition collection) and analyzer/linage/utils.go's Merge
// (layered-model merge pattern), generalized from "merge many models into
// one" to "shadow a base with a stack of deltas, newest first".
package overlay

import (
	"container/list"
	"fmt"

	"github.com/google/uuid"

	"github.com/viant/codeintel/codeerr"
	"github.com/viant/codeintel/ir"
)

// Delta is one uncommitted edit layer, per spec §4.7's exact field list.
type Delta struct {
	PatchID        string
	AddedNodes     map[string]*ir.Node
	RemovedNodeIDs map[string]bool
	AddedEdges     map[string]*ir.Edge
	RemovedEdgeIDs map[string]bool

	// Error and Diagnostics record a patch that produced an invalid state
	// (spec §4.7 "Failure mode"): the delta is still created and kept on
	// the stack, but queries over it degrade to the last good state plus
	// these diagnostics for the affected file.
	Error       bool
	Diagnostics []ir.Diagnostic
}

func newDelta(patchID string) *Delta {
	return &Delta{
		PatchID:        patchID,
		AddedNodes:     map[string]*ir.Node{},
		RemovedNodeIDs: map[string]bool{},
		AddedEdges:     map[string]*ir.Edge{},
		RemovedEdgeIDs: map[string]bool{},
	}
}

// Edit is one node- or edge-level change an apply_patch call contributes to
// a new Delta.
type Edit struct {
	AddNodes      []*ir.Node
	RemoveNodeIDs []string
	AddEdges      []*ir.Edge
	RemoveEdgeIDs []string
	// Diagnostics, when non-empty, marks the resulting delta as errored
	// (e.g. the edited file failed to parse).
	Diagnostics []ir.Diagnostic
}

// Stack is the patch stack on top of one base snapshot: layers[0] is the
// oldest (bottom), layers[len-1] is the newest (top). Default max depth 10
// (spec §4.7); beyond it the oldest layer is evicted (LRU).
type Stack struct {
	Base     *ir.Document
	MaxDepth int

	order  *list.List // patch ids, front = oldest
	layers map[string]*Delta
}

func NewStack(base *ir.Document, maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	return &Stack{Base: base, MaxDepth: maxDepth, order: list.New(), layers: map[string]*Delta{}}
}

// ApplyPatch creates a new delta from edit, pushes it onto the stack
// (evicting the oldest layer if MaxDepth is exceeded), and returns the
// resulting View plus its patch_id.
func (s *Stack) ApplyPatch(edit Edit) (patchID string, view *View, err error) {
	patchID = uuid.NewString()
	d := newDelta(patchID)
	for _, n := range edit.AddNodes {
		d.AddedNodes[n.ID] = n
	}
	for _, id := range edit.RemoveNodeIDs {
		d.RemovedNodeIDs[id] = true
	}
	for _, e := range edit.AddEdges {
		if e.ID == "" {
			e.ID = ir.EdgeID(e.Kind, e.SourceID, e.TargetID)
		}
		d.AddedEdges[e.ID] = e
	}
	for _, id := range edit.RemoveEdgeIDs {
		d.RemovedEdgeIDs[id] = true
	}
	if len(edit.Diagnostics) > 0 {
		d.Error = true
		d.Diagnostics = edit.Diagnostics
	}

	s.layers[patchID] = d
	s.order.PushBack(patchID)
	if s.order.Len() > s.MaxDepth {
		front := s.order.Front()
		evicted := front.Value.(string)
		s.order.Remove(front)
		delete(s.layers, evicted)
	}

	if d.Error {
		return patchID, s.View(), &codeerr.OverlayApply{PatchID: patchID, Err: fmt.Errorf("%d diagnostics", len(d.Diagnostics))}
	}
	return patchID, s.View(), nil
}

// orderedPatchIDs returns the stack's patch ids oldest-first.
func (s *Stack) orderedPatchIDs() []string {
	out := make([]string, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

// Commit folds patchID's delta into a new base Document (named newSnapshotID)
// and removes it from the stack; layers above it remain stacked on the new
// base. Per spec §4.7, commit is defined for the delta it names — callers
// wanting to fold the whole stack call Commit once per layer, bottom-up.
func (s *Stack) Commit(patchID, newSnapshotID string) (*ir.Document, error) {
	d, ok := s.layers[patchID]
	if !ok {
		return nil, fmt.Errorf("overlay: unknown patch %s", patchID)
	}
	folded := s.Base.Clone(newSnapshotID)
	applyDelta(folded, d)
	s.Base = folded
	s.removeLayer(patchID)
	return folded, nil
}

// Rollback discards patchID's delta without folding it. If patchID is the
// top of the stack (LIFO), this is O(1); otherwise every layer above it is
// still valid (each delta is independent of the others, so "rebuilding" is
// just re-deriving the virtual view, which View already does in O(depth)).
func (s *Stack) Rollback(patchID string) error {
	if _, ok := s.layers[patchID]; !ok {
		return fmt.Errorf("overlay: unknown patch %s", patchID)
	}
	s.removeLayer(patchID)
	return nil
}

func (s *Stack) removeLayer(patchID string) {
	delete(s.layers, patchID)
	for e := s.order.Back(); e != nil; e = e.Prev() {
		if e.Value.(string) == patchID {
			s.order.Remove(e)
			return
		}
	}
}

// View is a read-only, materialized snapshot of Base shadowed by every
// layer currently on the Stack, oldest-to-newest. It never mutates Base.
type View struct {
	doc        *ir.Document
	erroredFor map[string][]ir.Diagnostic // file path -> diagnostics from an errored delta touching it
}

// View materializes the stack's current virtual IR: start from a clone of
// Base, then apply each delta in stack order so later (newer) edits shadow
// earlier ones, per spec §4.7 "lookups check the delta first, then the
// base". An errored delta is not applied; only its diagnostics are
// recorded, so the view keeps the last good state.
func (s *Stack) View() *View {
	doc := s.Base.Clone(s.Base.SnapshotID + ":overlay")
	v := &View{doc: doc, erroredFor: map[string][]ir.Diagnostic{}}
	for _, id := range s.orderedPatchIDs() {
		d := s.layers[id]
		if d.Error {
			for _, diag := range d.Diagnostics {
				v.erroredFor[diag.FilePath] = append(v.erroredFor[diag.FilePath], diag)
			}
			continue
		}
		applyDelta(doc, d)
	}
	return v
}

func applyDelta(doc *ir.Document, d *Delta) {
	for id := range d.RemovedEdgeIDs {
		delete(doc.Edges, id)
	}
	for id := range d.RemovedNodeIDs {
		delete(doc.Nodes, id)
	}
	for id, n := range d.AddedNodes {
		doc.Nodes[id] = n
	}
	for id, e := range d.AddedEdges {
		doc.Edges[id] = e
	}
}

// Document returns the view's materialized IR document, for components
// (semantic.BuildCallGraph, fusion search, ...) that operate on a whole
// ir.Document without knowing it is a virtual overlay view.
func (v *View) Document() *ir.Document { return v.doc }

// ErrorsFor returns the diagnostics recorded for path by any errored delta
// touching it — callers use this to show "last good state plus the error"
// (spec §4.7).
func (v *View) ErrorsFor(path string) []ir.Diagnostic { return v.erroredFor[path] }
