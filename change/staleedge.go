package change

import (
	"time"

	"github.com/viant/codeintel/ir"
)

// MarkStale marks every edge whose source node lives in one of changedPaths
// and whose target lives in a different file as stale, per spec §4.5.3.
// Edges wholly within a changed file are not marked — they are regenerated
// outright by the rebuilder, not lazily revalidated.
func MarkStale(doc *ir.Document, changedPaths []string, now time.Time) (marked int) {
	changed := map[string]bool{}
	for _, p := range changedPaths {
		changed[p] = true
	}
	for _, e := range doc.Edges {
		src, ok := doc.Nodes[e.SourceID]
		if !ok || !changed[src.FilePath] {
			continue
		}
		dst, ok := doc.Nodes[e.TargetID]
		if ok && dst.FilePath == src.FilePath {
			continue
		}
		if e.Stale {
			continue
		}
		e.Stale = true
		e.StaleAt = now.UnixNano()
		marked++
	}
	return marked
}

// ValidateStale performs the lazy, on-query check: a stale edge whose target
// no longer exists is removed; one whose target still exists is cleared of
// its stale flag (revalidated).
func ValidateStale(doc *ir.Document) (removed, revalidated int) {
	var toRemove []string
	for id, e := range doc.Edges {
		if !e.Stale {
			continue
		}
		if _, ok := doc.Nodes[e.TargetID]; !ok {
			toRemove = append(toRemove, id)
			continue
		}
		e.Stale = false
		e.StaleAt = 0
		revalidated++
	}
	for _, id := range toRemove {
		delete(doc.Edges, id)
	}
	return len(toRemove), revalidated
}

// SweepExpiredStale removes stale edges older than ttl as of now — the
// background task spec §4.5.3 describes, defaulting to a 24h TTL
// (config.Options.StaleEdgeTTL).
func SweepExpiredStale(doc *ir.Document, ttl time.Duration, now time.Time) (swept int) {
	cutoff := now.Add(-ttl).UnixNano()
	var toRemove []string
	for id, e := range doc.Edges {
		if e.Stale && e.StaleAt > 0 && e.StaleAt < cutoff {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(doc.Edges, id)
	}
	return len(toRemove)
}
