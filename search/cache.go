package search

import (
	"container/list"
	"strconv"
	"strings"
	"sync"

	"github.com/otomedia/oto/domain"
)

// resultCache is a small locked LRU holding random-selection pools so that
// paging through a random listing walks one stable shuffle instead of
// reshuffling per page. Scan sessions clear it.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value interface{}
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		order:    list.New(),
		entries:  map[string]*list.Element{},
	}
}

func (c *resultCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *resultCache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = map[string]*list.Element{}
}

// poolKey derives the cache key for one random pool: kind and pool size,
// the folder scope, and any extra narrowing terms. Identical requests on
// different pages hash to the same pool.
func poolKey(kind string, poolMax int, folders []domain.MusicFolder, extra ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(poolMax))
	b.WriteByte('[')
	for i, f := range folders {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(f.ID))
	}
	for _, e := range extra {
		b.WriteByte(',')
		b.WriteString(e)
	}
	b.WriteByte(']')
	return b.String()
}
