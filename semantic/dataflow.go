package semantic

import "github.com/viant/codeintel/ir"

// EmitDataFlowEdges walks every CFG in doc and, for each Variable/Field node
// a block reads or writes, emits a READS/WRITES edge from the CFG's owning
// function/method node (not from the block). Block-granular only; no
// SSA-level tracking.
func EmitDataFlowEdges(doc *ir.Document) {
	for ownerID, cfg := range doc.CFGs {
		// CFG blocks have no corresponding ir.Node of their own (CFGs are a
		// separate owned collection, see ir.CFG); data-flow edges are
		// attributed to the owning function/method node instead.
		for _, b := range cfg.Blocks {
			for _, varID := range b.UsedVariableIDs {
				doc.AddEdge(&ir.Edge{Kind: ir.EdgeReads, SourceID: ownerID, TargetID: varID})
			}
			for _, varID := range b.DefinedVariableIDs {
				doc.AddEdge(&ir.Edge{Kind: ir.EdgeWrites, SourceID: ownerID, TargetID: varID})
			}
		}
	}
}
