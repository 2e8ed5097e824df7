package lru_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/edgarvault/pkg/alg/lru"
)

const (
	// testMaxEntries is the default max entries for count-based tests.
	testMaxEntries = 100

	// smallMaxEntries limits the cache to 3 entries for eviction tests.
	smallMaxEntries = 3

	// testConcurrentGoroutines is the number of goroutines for concurrency tests.
	testConcurrentGoroutines = 50

	// testConcurrentOps is the number of operations per goroutine.
	testConcurrentOps = 100
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](testMaxEntries))

	got, found := cache.Get(1)
	assert.False(t, found)
	assert.Empty(t, got)

	cache.Put(1, "hello")

	got, found = cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "hello", got)
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](smallMaxEntries))

	cache.Put(1, "a")
	cache.Put(2, "b")
	cache.Put(3, "c")

	// Access key 1 to make it recently used.
	cache.Get(1)

	// Adding key 4 should evict key 2 (LRU).
	cache.Put(4, "d")

	_, found := cache.Peek(2)
	assert.False(t, found, "key 2 should be evicted (LRU)")

	for _, key := range []int{1, 3, 4} {
		_, found = cache.Peek(key)
		assert.True(t, found, "key %d should still exist", key)
	}

	assert.Equal(t, smallMaxEntries, cache.Len())
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestCache_DuplicatePut(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](testMaxEntries))

	cache.Put(1, "first")
	cache.Put(1, "second")

	got, found := cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "second", got, "duplicate Put should update value")
	assert.Equal(t, 1, cache.Len())
}

func TestCache_PeekKeepsRecency(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, string](smallMaxEntries))

	cache.Put(1, "a")
	cache.Put(2, "b")
	cache.Put(3, "c")

	_, found := cache.Peek(1)
	require.True(t, found)

	cache.Put(4, "d")

	_, found = cache.Peek(1)
	assert.False(t, found, "peek must not promote key 1")
	assert.Zero(t, cache.Stats().Hits)
}

func TestCache_CloneFunc_DetachesSlices(t *testing.T) {
	t.Parallel()

	cloneSlice := func(v []string) []string { return append([]string(nil), v...) }
	cache := lru.New(
		lru.WithMaxEntries[string, []string](testMaxEntries),
		lru.WithCloneFunc[string, []string](cloneSlice),
	)

	original := []string{"x", "y"}
	cache.Put("k", original)
	original[0] = "mutated"

	got, found := cache.Get("k")
	require.True(t, found)
	assert.Equal(t, []string{"x", "y"}, got)

	got[1] = "mutated"

	again, _ := cache.Get("k")
	assert.Equal(t, []string{"x", "y"}, again)
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[int, int](testMaxEntries))

	cache.Put(1, 1)
	cache.Get(1)
	cache.Get(1)
	cache.Get(2)

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, testMaxEntries, stats.MaxEntries)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 1e-9)
	assert.Zero(t, lru.Stats{}.HitRate())
}

func TestCache_PanicsWithoutLimit(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { lru.New[int, int]() })
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := lru.New(lru.WithMaxEntries[string, int](testMaxEntries))

	var wg sync.WaitGroup

	for g := range testConcurrentGoroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for op := range testConcurrentOps {
				key := strconv.Itoa((g * op) % (testMaxEntries * 2))
				cache.Put(key, op)
				cache.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), testMaxEntries)
}
