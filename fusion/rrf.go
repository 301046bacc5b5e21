package fusion

import (
	"math"
	"sort"
)

// Strategy identifies one of the four per-strategy search backends §4.8
// fuses over.
type Strategy string

const (
	StrategyVector  Strategy = "vector"
	StrategyLexical Strategy = "lexical"
	StrategySymbol  Strategy = "symbol"
	StrategyGraph   Strategy = "graph"
)

// Hit is one entry in a single strategy's ranked result list: rank is
// 0-indexed per §4.8.3.
type Hit struct {
	ChunkID  string
	Rank     int
	Strategy Strategy
}

// RankedResult is one chunk's fused output: its weighted-RRF score, the
// consensus boost applied, and the final score the results are sorted by.
type RankedResult struct {
	ChunkID      string
	Score        float64
	Boost        float64
	FinalScore   float64
	Strategies   []Strategy // distinct strategies this chunk appeared in, sorted
}

// Options configures the fusion pass; zero values fall back to spec
// defaults (k=60, c=0.15) so callers can pass a zero Options for the
// common case.
type Options struct {
	K float64 // RRF smoothing constant, default 60
	C float64 // consensus boost coefficient, default 0.15
}

func (o Options) withDefaults() Options {
	if o.K == 0 {
		o.K = 60
	}
	if o.C == 0 {
		o.C = 0.15
	}
	return o
}

// Fuse combines per-strategy hit lists into one ranking using weighted RRF
// (§4.8.3) plus consensus boosting (§4.8.4), deterministic for the same
// inputs (spec §5 "fusion determinism").
func Fuse(hits []Hit, intent Intent, opts Options) []RankedResult {
	opts = opts.withDefaults()
	w := WeightsFor(intent)

	type accum struct {
		score      float64
		strategies map[Strategy]bool
	}
	byChunk := map[string]*accum{}
	var order []string // first-seen order, so results are built independent of map iteration; ties sort by chunk id below

	for _, h := range hits {
		sw := w.forStrategy(h.Strategy)
		if sw == 0 {
			continue
		}
		a, ok := byChunk[h.ChunkID]
		if !ok {
			a = &accum{strategies: map[Strategy]bool{}}
			byChunk[h.ChunkID] = a
			order = append(order, h.ChunkID)
		}
		a.score += sw / (opts.K + float64(h.Rank))
		a.strategies[h.Strategy] = true
	}

	results := make([]RankedResult, 0, len(byChunk))
	for _, chunkID := range order {
		a := byChunk[chunkID]
		n := len(a.strategies)
		boost := 1.0
		if n >= 2 {
			boost = 1 + opts.C*math.Sqrt(float64(n-1))
		}
		strategies := make([]Strategy, 0, n)
		for s := range a.strategies {
			strategies = append(strategies, s)
		}
		sort.Slice(strategies, func(i, j int) bool { return strategies[i] < strategies[j] })

		results = append(results, RankedResult{
			ChunkID:    chunkID,
			Score:      a.score,
			Boost:      boost,
			FinalScore: a.score * boost,
			Strategies: strategies,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	return results
}
