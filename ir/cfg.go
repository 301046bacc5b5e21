package ir

// BlockKind enumerates CFG basic-block kinds (spec §3.5).
type BlockKind string

const (
	BlockEntry      BlockKind = "Entry"
	BlockExit       BlockKind = "Exit"
	BlockPlain      BlockKind = "Block"
	BlockCondition  BlockKind = "Condition"
	BlockLoopHeader BlockKind = "LoopHeader"
	BlockTry        BlockKind = "Try"
	BlockCatch      BlockKind = "Catch"
	BlockFinally    BlockKind = "Finally"
)

// CFGEdgeKind enumerates control-flow edge kinds.
type CFGEdgeKind string

const (
	CFGNormal      CFGEdgeKind = "NORMAL"
	CFGTrueBranch  CFGEdgeKind = "TRUE_BRANCH"
	CFGFalseBranch CFGEdgeKind = "FALSE_BRANCH"
	CFGException   CFGEdgeKind = "EXCEPTION"
	CFGLoopBack    CFGEdgeKind = "LOOP_BACK"
)

// Block is one basic block of a function's control-flow graph.
type Block struct {
	ID                 string
	Kind               BlockKind
	Span               Span
	DefinedVariableIDs []string
	UsedVariableIDs    []string
}

// CFGEdge connects two blocks within one CFG.
type CFGEdge struct {
	FromBlockID string
	ToBlockID   string
	Kind        CFGEdgeKind
}

// CFG is the control-flow graph of one function/method/lambda. Invariants
// (spec §3.5): exactly one Entry and one Exit; every block reachable from
// Entry; every block reaches Exit along at least one path unless it sits on
// an infinite-loop-only path.
type CFG struct {
	ID         string // matches the owning Node's id
	EntryID    string
	ExitID     string
	Blocks     map[string]*Block
	Edges      []CFGEdge
}

// NewCFG allocates an empty CFG with its mandatory Entry/Exit blocks.
func NewCFG(ownerNodeID string) *CFG {
	entry := &Block{ID: ownerNodeID + "#entry", Kind: BlockEntry}
	exit := &Block{ID: ownerNodeID + "#exit", Kind: BlockExit}
	return &CFG{
		ID:      ownerNodeID,
		EntryID: entry.ID,
		ExitID:  exit.ID,
		Blocks: map[string]*Block{
			entry.ID: entry,
			exit.ID:  exit,
		},
	}
}

// AddBlock registers a block and returns it.
func (c *CFG) AddBlock(b *Block) *Block {
	c.Blocks[b.ID] = b
	return b
}

// Connect records a control-flow edge between two already-registered blocks.
func (c *CFG) Connect(from, to string, kind CFGEdgeKind) {
	c.Edges = append(c.Edges, CFGEdge{FromBlockID: from, ToBlockID: to, Kind: kind})
}

// successors returns the blocks directly reachable from id.
func (c *CFG) successors(id string) []string {
	var out []string
	for _, e := range c.Edges {
		if e.FromBlockID == id {
			out = append(out, e.ToBlockID)
		}
	}
	return out
}

// predecessors returns the blocks with an edge into id.
func (c *CFG) predecessors(id string) []string {
	var out []string
	for _, e := range c.Edges {
		if e.ToBlockID == id {
			out = append(out, e.FromBlockID)
		}
	}
	return out
}

// ReachableFromEntry reports whether every block is reachable from Entry,
// part of the CFG well-formedness invariant (spec §8.1).
func (c *CFG) ReachableFromEntry() bool {
	seen := map[string]bool{c.EntryID: true}
	queue := []string{c.EntryID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range c.successors(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	for id := range c.Blocks {
		if !seen[id] {
			return false
		}
	}
	return true
}

// ReachesExit reports whether every block has a path to Exit, unless it is
// only reachable along a path with no exit edge at all (an infinite loop),
// which the spec explicitly permits.
func (c *CFG) ReachesExit() bool {
	seen := map[string]bool{c.ExitID: true}
	queue := []string{c.ExitID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range c.predecessors(cur) {
			if !seen[prev] {
				seen[prev] = true
				queue = append(queue, prev)
			}
		}
	}
	for id, b := range c.Blocks {
		if seen[id] {
			continue
		}
		if len(c.successors(id)) == 0 && b.Kind != BlockExit {
			// Dead-end block with no exit edge and no successors at all is
			// not an infinite loop; it is a well-formedness defect.
			return false
		}
	}
	return true
}
