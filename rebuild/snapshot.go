package rebuild

import (
	"sort"
	"time"
)

// Snapshot is the lifecycle metadata kept alongside each IR document —
// distinct from ir.Document itself, which carries only the content a query
// needs, not retention bookkeeping.
type Snapshot struct {
	RepoID     string
	SnapshotID string
	CreatedAt  time.Time
	// Tagged snapshots are kept forever regardless of count/age (spec
	// §4.6's "keep tagged forever" retention exception) — e.g. a release
	// branch HEAD a caller has pinned for reproducible queries.
	Tagged bool
}

// RetentionPolicy mirrors spec §4.6's snapshot lifecycle defaults:
// an untagged snapshot is kept only while it is both among the newest Count
// snapshots and newer than MaxAge (a zero bound is not applied); Tagged ones
// are always excluded from eviction.
type RetentionPolicy struct {
	Count  int
	MaxAge time.Duration
}

// EnforceRetentionPolicy returns the snapshots that fall outside policy and
// should be garbage collected, newest-first within snapshots so the caller
// can report what's being kept. Grounded on the teacher ecosystem's
// BeginRun-time EnforceRetentionPolicy call (internal/db/api.go): retention
// is enforced proactively, not as a separate cron-only sweep, though a
// caller may also invoke this on a schedule.
func EnforceRetentionPolicy(snapshots []Snapshot, policy RetentionPolicy, now time.Time) (toEvict []Snapshot) {
	kept := make([]Snapshot, len(snapshots))
	copy(kept, snapshots)
	sort.Slice(kept, func(i, j int) bool { return kept[i].CreatedAt.After(kept[j].CreatedAt) })

	cutoff := now
	if policy.MaxAge > 0 {
		cutoff = now.Add(-policy.MaxAge)
	}

	for i, s := range kept {
		if s.Tagged {
			continue
		}
		withinCount := policy.Count <= 0 || i < policy.Count
		withinAge := policy.MaxAge <= 0 || s.CreatedAt.After(cutoff)
		if withinCount && withinAge {
			continue
		}
		toEvict = append(toEvict, s)
	}
	return toEvict
}

// GCPlan names what a cascading snapshot deletion removes — every
// dependent row (chunks, graph nodes, mappings) deleted alongside the
// Document itself, per spec §4.6's "garbage collection cascades to
// dependent rows... in a single transaction". The core does not own a
// transaction manager (no concrete backend, spec §6.2); GCPlan instead
// names the scope a storage-port-backed transaction must cover.
type GCPlan struct {
	RepoID       string
	SnapshotID   string
	DropChunks   bool
	DropGraph    bool
	DropMappings bool
}

// PlanGC builds the cascade plan for evicting a snapshot — every adapter
// behind port.IRStore/port.GraphStore/port.ChunkStore must be invoked for
// the same (repo_id, snapshot_id) inside one transaction.
func PlanGC(s Snapshot) GCPlan {
	return GCPlan{RepoID: s.RepoID, SnapshotID: s.SnapshotID, DropChunks: true, DropGraph: true, DropMappings: true}
}
