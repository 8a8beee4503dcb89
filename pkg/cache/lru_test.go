package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/cache"
)

func TestNew_InvalidCapacity(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{0, -1} {
		_, err := cache.New[string, int](capacity)
		assert.ErrorIs(t, err, cache.ErrInvalidCapacity)
	}
	assert.Panics(t, func() { cache.MustNew[string, int](0) })
}

func TestLRU_GetPut(t *testing.T) {
	t.Parallel()
	c := cache.MustNew[string, int](2)

	assert.False(t, c.Put("a", 1))
	assert.False(t, c.Put("b", 2))

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used.
	assert.True(t, c.Put("c", 3))
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"c", "a"}, c.Keys())

	assert.False(t, c.Put("a", 10), "update does not evict")
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_PeekKeepsRecency(t *testing.T) {
	t.Parallel()
	c := cache.MustNew[int, string](2)
	c.Put(1, "one")
	c.Put(2, "two")

	v, ok := c.Peek(1)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	c.Put(3, "three")
	_, ok = c.Peek(1)
	assert.False(t, ok, "peek must not protect an entry from eviction")
}

func TestLRU_OnEvict(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := cache.MustNew[string, int](2, cache.WithOnEvict(func(k string, v int) {
		evicted = append(evicted, fmt.Sprintf("%s=%d", k, v))
	}))

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	assert.True(t, c.Remove("b"))
	assert.False(t, c.Remove("b"))
	c.Purge()

	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, evicted)
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Keys())
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()
	c := cache.MustNew[int, int](50)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				c.Put(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
