package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	cache := NewCache[string](2)

	cache.Put("a", "1")
	cache.Put("b", "2")

	v, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// "b" is now least recently used and gets evicted.
	cache.Put("c", "3")

	_, ok = cache.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Size())
}

func TestCache_PutReplaces(t *testing.T) {
	cache := NewCache[int](2)

	cache.Put("a", 1)
	cache.Put("a", 2)

	v, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, cache.Size())
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := NewCache[int](4)

	cache.Put("a", 1)
	cache.Put("b", 2)

	assert.True(t, cache.Delete("a"))
	assert.False(t, cache.Delete("a"))

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
	_, ok := cache.Get("b")
	assert.False(t, ok)
}
