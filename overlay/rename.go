package overlay

import (
	"fmt"
	"sort"

	"github.com/viant/codeintel/resolve"
	"github.com/viant/codeintel/semantic"
)

// EdgeRedirect describes one call-site edge a rename would retarget, from
// the old definition's node id to the new one.
type EdgeRedirect struct {
	CallerID string
	FromID   string
	ToID     string
}

// SpeculativeResult is the overlay_query("preview_rename", ...) response:
// the effect a rename would have on the call graph without mutating the
// view's underlying document (spec §4.7 "what-if" queries / §8.4 Scenario 6).
type SpeculativeResult struct {
	AffectedSites        int
	RedirectedEdges      []EdgeRedirect
	UnresolvedReferences int
}

// PreviewRename answers "if fromFQN were renamed to toName, what would
// change": every CALLS edge into fromFQN's definition is counted as an
// affected site and reported as redirected onto a synthesized node id for
// toName, since toName does not exist in the view yet. No node or edge in
// view is mutated — the caller only materializes this if they go on to call
// ApplyPatch/Commit with the corresponding Edit.
func PreviewRename(v *View, fromFQN, toName string) (*SpeculativeResult, error) {
	doc := v.Document()
	table := resolve.BuildSymbolTable(doc)
	defID, ok := table.Lookup(fromFQN)
	if !ok {
		return nil, fmt.Errorf("overlay: %s has no definition in this view", fromFQN)
	}

	graph := semantic.BuildCallGraph(doc)
	result := &SpeculativeResult{}
	newID := defID + "#renamed:" + toName
	for _, ce := range graph.Edges {
		if ce.CalleeID != defID {
			continue
		}
		result.AffectedSites++
		result.RedirectedEdges = append(result.RedirectedEdges, EdgeRedirect{
			CallerID: ce.CallerID,
			FromID:   defID,
			ToID:     newID,
		})
	}

	// A reference is unresolved if it names fromFQN as a raw target but was
	// never rewired onto defID by resolve.RewriteExternalEdges — i.e. it
	// still points at a synthesized External* node after resolution ran.
	for _, e := range doc.Edges {
		raw, _ := e.Attrs["raw"].(string)
		if raw != fromFQN {
			continue
		}
		target, ok := doc.Nodes[e.TargetID]
		if !ok || target.FQN != fromFQN {
			result.UnresolvedReferences++
		}
	}

	sort.Slice(result.RedirectedEdges, func(i, j int) bool {
		return result.RedirectedEdges[i].CallerID < result.RedirectedEdges[j].CallerID
	})
	return result, nil
}
