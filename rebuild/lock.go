package rebuild

import (
	"sync"
	"time"

	"github.com/viant/codeintel/codeerr"
)

// heldLock is one in-progress rebuild session's claim on a repo.
type heldLock struct {
	snapshotID string
	expiresAt  time.Time
}

// LockManager guarantees at most one active rebuilder per repo_id at any
// instant (spec §4.7), grounded on the teacher ecosystem's
// TransactionManager single-in-flight-transaction guard
// (core/transaction.go's "transaction already in progress" check), extended
// with the TTL-and-disposition behavior spec §4.6/§4.7 additionally require.
type LockManager struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[string]*heldLock
	newer map[string]time.Time // repoID -> request time of the current holder's Acquire
}

func NewLockManager(ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &LockManager{ttl: ttl, held: map[string]*heldLock{}, newer: map[string]time.Time{}}
}

// Acquire attempts to claim repoID for snapshotID. A held, unexpired lock on
// the same snapshotID yields LockDeduped; on a different snapshotID it
// yields LockSuperseded if requestedAt is newer than the current holder's
// recorded request, else LockQueued.
func (m *LockManager) Acquire(repoID, snapshotID string, requestedAt, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, held := m.held[repoID]
	if held && now.Before(cur.expiresAt) {
		if cur.snapshotID == snapshotID {
			return false, &codeerr.Lock{RepoID: repoID, SnapshotID: snapshotID, Disposition: codeerr.LockDeduped}
		}
		prevRequest := m.newer[repoID]
		if requestedAt.After(prevRequest) {
			return false, &codeerr.Lock{RepoID: repoID, SnapshotID: snapshotID, Disposition: codeerr.LockSuperseded}
		}
		return false, &codeerr.Lock{RepoID: repoID, SnapshotID: snapshotID, Disposition: codeerr.LockQueued}
	}

	m.held[repoID] = &heldLock{snapshotID: snapshotID, expiresAt: now.Add(m.ttl)}
	m.newer[repoID] = requestedAt
	return true, nil
}

// Extend renews the TTL for a lock snapshotID currently holds and reports
// whether it did. Nothing in this package calls it: Rebuilder.Run neither
// acquires, extends nor releases a lock.
func (m *LockManager) Extend(repoID, snapshotID string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.held[repoID]
	if !ok || cur.snapshotID != snapshotID {
		return false
	}
	cur.expiresAt = now.Add(m.ttl)
	return true
}

// Release frees repoID's lock if snapshotID holds it, whatever the session's
// outcome (success, failure, or cancellation); for any other snapshotID it
// does nothing.
func (m *LockManager) Release(repoID, snapshotID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.held[repoID]; ok && cur.snapshotID == snapshotID {
		delete(m.held, repoID)
	}
}
