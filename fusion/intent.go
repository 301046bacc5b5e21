// Package fusion implements C8: intent classification, per-intent weight
// profiles, and weighted Reciprocal Rank Fusion with consensus boosting
// over heterogeneous per-strategy search results. No teacher repo or pack
// example implements a retrieval layer; this package is built in the
// teacher's general idiom (small structs, functional-options-free plain
// constructors, table-driven _test.go files) and is verified directly
// against spec.md's worked example rather than against a corpus file.
package fusion

import "strings"

// Intent is one of the five query intents §4.8.1 classifies into.
type Intent string

const (
	IntentCodeSearch    Intent = "code_search"
	IntentSymbolNav     Intent = "symbol_nav"
	IntentConceptSearch Intent = "concept_search"
	IntentFlowTrace     Intent = "flow_trace"
	IntentRepoOverview  Intent = "repo_overview"
)

// classifyRule is one priority-ordered rule: if any of Contains appears in
// the (lowercased) query, Intent wins.
type classifyRule struct {
	Intent   Intent
	Contains []string
}

// rules are examined in order; the first match wins (§4.8.1). Symbol
// navigation and flow tracing are checked before the broader concept/search
// buckets since a query like "call graph of Foo" should resolve to
// flow_trace, not concept_search, even though "of" is generic.
var rules = []classifyRule{
	{Intent: IntentFlowTrace, Contains: []string{"call graph", "calls ", "caller", "callee", "trace", "data flow", "dataflow", "reachable"}},
	{Intent: IntentSymbolNav, Contains: []string{"def ", "class ", "go to definition", "definition of", "references to", "find symbol"}},
	{Intent: IntentRepoOverview, Contains: []string{"overview", "architecture", "how is this repo", "what does this project", "structure of"}},
	{Intent: IntentConceptSearch, Contains: []string{"how does", "how to", "why does", "what is the purpose", "explain"}},
}

// ClassifyIntent maps a query string to an Intent, rules in priority order,
// defaulting to code_search when nothing matches (§4.8.1).
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, needle := range r.Contains {
			if strings.Contains(q, needle) {
				return r.Intent
			}
		}
	}
	return IntentCodeSearch
}

// Weights is a per-strategy weight profile; spec §4.8.2 requires these sum
// to 1.0 per intent.
type Weights struct {
	Vector float64
	Lexical float64
	Symbol  float64
	Graph   float64
}

// profiles is the fixed per-intent weight table of §4.8.2.
var profiles = map[Intent]Weights{
	IntentSymbolNav:     {Vector: 0.20, Lexical: 0.20, Symbol: 0.60, Graph: 0.00},
	IntentCodeSearch:    {Vector: 0.40, Lexical: 0.30, Symbol: 0.20, Graph: 0.10},
	IntentConceptSearch: {Vector: 0.50, Lexical: 0.20, Symbol: 0.10, Graph: 0.20},
	IntentFlowTrace:     {Vector: 0.20, Lexical: 0.10, Symbol: 0.30, Graph: 0.40},
	IntentRepoOverview:  {Vector: 0.30, Lexical: 0.20, Symbol: 0.20, Graph: 0.30},
}

// WeightsFor returns intent's fixed weight profile, falling back to
// code_search's profile for an unrecognized intent.
func WeightsFor(intent Intent) Weights {
	if w, ok := profiles[intent]; ok {
		return w
	}
	return profiles[IntentCodeSearch]
}

func (w Weights) forStrategy(s Strategy) float64 {
	switch s {
	case StrategyVector:
		return w.Vector
	case StrategyLexical:
		return w.Lexical
	case StrategySymbol:
		return w.Symbol
	case StrategyGraph:
		return w.Graph
	default:
		return 0
	}
}
