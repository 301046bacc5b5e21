package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL1_GetSetRoundTrip(t *testing.T) {
	c := NewL1(10, nil)
	c.Set("repo1:a.go", "ir-bundle-a")
	v, ok := c.Get("repo1:a.go")
	require.True(t, ok)
	assert.Equal(t, "ir-bundle-a", v)

	_, ok = c.Get("repo1:missing")
	assert.False(t, ok)
}

func TestL1_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewL1(2, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most-recently-used; b is LRU
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestL1_PinnedEntrySurvivesEviction(t *testing.T) {
	c := NewL1(1, nil)
	c.Set("open-file.go", "bundle")
	c.Pin("open-file.go")
	c.Set("other.go", "bundle2")

	_, ok := c.Get("open-file.go")
	assert.True(t, ok, "pinned entry must not be evicted even past capacity")
}

func TestL1_InvalidatePrefixDropsPinnedToo(t *testing.T) {
	c := NewL1(10, nil)
	c.Set("repo1:a.go", "a")
	c.Set("repo1:b.go", "b")
	c.Set("repo2:a.go", "other-repo")
	c.Pin("repo1:a.go")

	evicted := c.InvalidatePrefix(RepoPrefix("repo1"))
	assert.Equal(t, 2, evicted)

	_, ok := c.Get("repo1:a.go")
	assert.False(t, ok, "commit/overlay-apply invalidation overrides pinning")
	_, ok = c.Get("repo2:a.go")
	assert.True(t, ok, "other repos' keys are untouched")
}

func TestL1_InvalidateKeyIsFileScoped(t *testing.T) {
	c := NewL1(10, nil)
	c.Set("repo1:a.go", "a")
	c.Set("repo1:b.go", "b")
	c.InvalidateKey("repo1:a.go")

	_, ok := c.Get("repo1:a.go")
	assert.False(t, ok)
	_, ok = c.Get("repo1:b.go")
	assert.True(t, ok)
}

func TestL1_UnboundedWhenMaxEntriesIsZero(t *testing.T) {
	c := NewL1(0, nil)
	for i := 0; i < 1000; i++ {
		c.Set(string(rune(i)), i)
	}
	_, ok := c.Get(string(rune(0)))
	assert.True(t, ok, "no eviction should run when maxEntries<=0")
}
