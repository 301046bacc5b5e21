package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent_DefaultsToCodeSearch(t *testing.T) {
	assert.Equal(t, IntentCodeSearch, ClassifyIntent("parse json file"))
}

func TestClassifyIntent_SymbolNav(t *testing.T) {
	assert.Equal(t, IntentSymbolNav, ClassifyIntent("definition of RetrieverConfig"))
}

func TestClassifyIntent_FlowTrace(t *testing.T) {
	assert.Equal(t, IntentFlowTrace, ClassifyIntent("show me the call graph of process"))
}

func TestWeightsFor_SumToOne(t *testing.T) {
	for _, intent := range []Intent{IntentCodeSearch, IntentSymbolNav, IntentConceptSearch, IntentFlowTrace, IntentRepoOverview} {
		w := WeightsFor(intent)
		sum := w.Vector + w.Lexical + w.Symbol + w.Graph
		assert.InDelta(t, 1.0, sum, 1e-9, "intent %s", intent)
	}
}

// TestFuse_SymbolNavScenario reproduces spec §4.8.5 Scenario 5 exactly:
// config.py ranked 0 by symbol, 3 by vector, 1 by lexical, under symbol_nav
// intent, should score ~0.0164 pre-boost and ~0.0199 after the n=3
// consensus boost, beating a vector-only competitor at rank 0 (~0.00333).
func TestFuse_SymbolNavScenario(t *testing.T) {
	hits := []Hit{
		{ChunkID: "config.py", Rank: 0, Strategy: StrategySymbol},
		{ChunkID: "config.py", Rank: 3, Strategy: StrategyVector},
		{ChunkID: "config.py", Rank: 1, Strategy: StrategyLexical},
		{ChunkID: "other.py", Rank: 0, Strategy: StrategyVector},
	}

	results := Fuse(hits, IntentSymbolNav, Options{})
	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(results) == 2, "expected 2 fused chunks")

	var configResult, otherResult RankedResult
	for _, r := range results {
		switch r.ChunkID {
		case "config.py":
			configResult = r
		case "other.py":
			otherResult = r
		}
	}

	assert.InDelta(t, 0.0164, configResult.Score, 0.0005)
	assert.InDelta(t, 1.212, configResult.Boost, 0.001)
	assert.InDelta(t, 0.0199, configResult.FinalScore, 0.0005)

	assert.InDelta(t, 0.00333, otherResult.Score, 0.0001)
	assert.Equal(t, 1.0, otherResult.Boost)

	// config.py must win the final ranking.
	assert.Equal(t, "config.py", results[0].ChunkID)
	assert.Greater(t, configResult.FinalScore, otherResult.FinalScore)
}

func TestFuse_ZeroWeightStrategyIsIgnored(t *testing.T) {
	hits := []Hit{{ChunkID: "a", Rank: 0, Strategy: StrategyGraph}}
	// symbol_nav weights graph at 0.00, so a lone graph hit contributes nothing.
	results := Fuse(hits, IntentSymbolNav, Options{})
	assert.Empty(t, results)
}

func TestFuse_DeterministicForSameInputs(t *testing.T) {
	hits := []Hit{
		{ChunkID: "a", Rank: 0, Strategy: StrategyVector},
		{ChunkID: "b", Rank: 1, Strategy: StrategyVector},
	}
	r1 := Fuse(hits, IntentCodeSearch, Options{})
	r2 := Fuse(hits, IntentCodeSearch, Options{})
	assert.Equal(t, r1, r2)
}

func TestRetune_NudgesWeightTowardPositiveSignal(t *testing.T) {
	log := NewLog(4, 0.1)
	due := false
	for i := 0; i < 4; i++ {
		due = log.Record(Feedback{Intent: IntentCodeSearch, ChunkID: "a", Strategy: StrategySymbol, Positive: true})
	}
	assert.True(t, due)

	tuned := log.Retune(IntentCodeSearch)
	base := WeightsFor(IntentCodeSearch)
	assert.Greater(t, tuned.Symbol, base.Symbol)
	sum := tuned.Vector + tuned.Lexical + tuned.Symbol + tuned.Graph
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRetune_NoSignalLeavesProfileUnchanged(t *testing.T) {
	log := NewLog(10, 0.1)
	tuned := log.Retune(IntentConceptSearch)
	base := WeightsFor(IntentConceptSearch)
	assert.Equal(t, base, tuned)
}

func TestMath_SanityOfConsensusShape(t *testing.T) {
	// Guards the sqrt-shaped boost doesn't silently become linear: n=5
	// should boost less than 5x what n=2 does relative to their deltas.
	b2 := 1 + 0.15*math.Sqrt(1)
	b5 := 1 + 0.15*math.Sqrt(4)
	assert.Less(t, (b5-1)/(b2-1), 5.0)
}
