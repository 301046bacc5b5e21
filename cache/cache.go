// Package cache implements C9: the three-tier cache over IR bundles, graph
// nodes/relations, and parsed trees (spec §4.9). L1 is an in-process LRU
// with pinning for files open in a workspace; L2 (distributed) and L3
// (persistent/authoritative) are abstract ports this package defines but
// does not implement, matching the other storage ports in `port` — the
// concrete backend is an operator choice, not a core concern.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entry is one cached value: the IR bundle for a file, a graph node, a
// relation set, or a parsed tree, opaque to the cache itself.
type Entry struct {
	Key   string
	Value any
}

// L1 is an in-process LRU keyed by string, with pinning: a pinned key is
// never evicted regardless of recency, matching spec's "pinning for files
// currently open in a workspace".
type L1 struct {
	mu       sync.Mutex
	maxEntries int
	order    *list.List // list of *l1Item, front = most-recently-used
	index    map[string]*list.Element
	pinned   map[string]bool
	metrics  *Metrics
}

type l1Item struct {
	key   string
	value any
}

// NewL1 creates an L1 cache holding at most maxEntries unpinned+pinned
// entries combined, except that pinned entries are never evicted: when only
// pinned entries remain over the limit, the cache holds more than
// maxEntries. maxEntries<=0 means unbounded (eviction never runs).
func NewL1(maxEntries int, m *Metrics) *L1 {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &L1{
		maxEntries: maxEntries,
		order:      list.New(),
		index:      map[string]*list.Element{},
		pinned:     map[string]bool{},
		metrics:    m,
	}
}

// Get returns key's value and moves it to the front of the LRU order.
func (c *L1) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.metrics.observeMiss(tierL1)
		return nil, false
	}
	c.order.MoveToFront(el)
	c.metrics.observeHit(tierL1)
	return el.Value.(*l1Item).value, true
}

// Set inserts or updates key, evicting the least-recently-used unpinned
// entry if the cache is at capacity.
func (c *L1) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		el.Value.(*l1Item).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&l1Item{key: key, value: value})
	c.index[key] = el
	c.evictIfNeeded()
}

// Pin marks key as not evictable until Unpin is called, even if it is (or
// becomes) the least-recently-used entry.
func (c *L1) Pin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned[key] = true
}

// Unpin clears a pinning set by Pin; key becomes evictable again under the
// normal LRU order.
func (c *L1) Unpin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pinned, key)
}

// evictIfNeeded drops the oldest unpinned entry until at or under capacity.
// Must be called with mu held.
func (c *L1) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}
	for c.order.Len() > c.maxEntries {
		el := c.order.Back()
		for el != nil && c.pinned[el.Value.(*l1Item).key] {
			el = el.Prev()
		}
		if el == nil {
			// every entry is pinned; nothing can be evicted.
			return
		}
		item := el.Value.(*l1Item)
		c.order.Remove(el)
		delete(c.index, item.key)
		c.metrics.observeEvict(tierL1)
	}
}

// InvalidatePrefix drops every key starting with prefix (e.g. "repo1:"),
// including pinned ones — an explicit commit/overlay-apply invalidation
// overrides pinning (spec §4.9 "a commit... invalidates cache keys
// prefixed with r:* in L1 and L2").
func (c *L1) InvalidatePrefix(prefix string) (evicted int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var toRemove []*list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		if strings.HasPrefix(el.Value.(*l1Item).key, prefix) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		item := el.Value.(*l1Item)
		c.order.Remove(el)
		delete(c.index, item.key)
		delete(c.pinned, item.key)
		evicted++
	}
	return evicted
}

// InvalidateKey drops exactly one key (file-scoped invalidation).
func (c *L1) InvalidateKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.index, key)
	delete(c.pinned, key)
}

// RepoPrefix builds the "repo_id:" key prefix spec §4.9 invalidates on
// commit/overlay-apply.
func RepoPrefix(repoID string) string { return repoID + ":" }

// Tier identifies one of the three cache tiers for metrics and for L2/L3's
// port interfaces below.
type Tier string

const (
	tierL1 Tier = "l1"
	tierL2 Tier = "l2"
	tierL3 Tier = "l3"
)

// L2 is the distributed-cache port (spec §4.9's "cluster-shared" tier);
// L3 is the persistent/authoritative port. Both are defined here rather
// than in `port` since they are cache-specific (lazy-populate, ceiling-
// bound eviction) rather than generic storage ports.
type L2 interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	InvalidateKey(ctx context.Context, key string) error
}

type L3 interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Metrics wraps the per-tier hit/miss/eviction counters, grounded on the
// teacher ecosystem's promhttp-exposed process metrics (vjache-cie's
// cmd/cie/index.go registers a promhttp handler the same way; this adds
// the counters an operator would scrape through it).
type Metrics struct {
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
	evicts  *prometheus.CounterVec
}

// NewMetrics registers the cache counters against reg; when reg is nil the
// counters are created but registered with no registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeintel_cache_hits_total",
			Help: "Cache hits by tier.",
		}, []string{"tier"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeintel_cache_misses_total",
			Help: "Cache misses by tier.",
		}, []string{"tier"}),
		evicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeintel_cache_evictions_total",
			Help: "Cache evictions by tier.",
		}, []string{"tier"}),
	}
}

func (m *Metrics) observeHit(t Tier) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) observeMiss(t Tier) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) observeEvict(t Tier) {
	if m == nil {
		return
	}
	m.evicts.WithLabelValues(string(t)).Inc()
}
