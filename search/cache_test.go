package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otomedia/oto/domain"
)

func TestPoolKeyDeterministic(t *testing.T) {
	folders := []domain.MusicFolder{{ID: 1}, {ID: 7}}
	a := poolKey("songs", 50, folders, "Rock")
	b := poolKey("songs", 50, folders, "Rock")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, poolKey("songs", 40, folders, "Rock"))
	assert.NotEqual(t, a, poolKey("albums_id3", 50, folders, "Rock"))
	assert.NotEqual(t, a, poolKey("songs", 50, folders, "Jazz"))
	assert.NotEqual(t, a, poolKey("songs", 50, []domain.MusicFolder{{ID: 1}}, "Rock"))
}

func TestResultCacheGetPut(t *testing.T) {
	c := newResultCache(2)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	c.Put("b", 2)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "a" was touched, so "b" is evicted first
	c.Put("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestResultCacheOverwriteAndClear(t *testing.T) {
	c := newResultCache(2)
	c.Put("a", 1)
	c.Put("a", 2)
	v, _ := c.Get("a")
	assert.Equal(t, 2, v)

	c.Clear()
	_, ok := c.Get("a")
	assert.False(t, ok)
}
