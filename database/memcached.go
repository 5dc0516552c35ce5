package database

import (
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Cache keys shared by the API and the warm-up jobs
const (
	KeyPublicStats     = "forum-public-stats"
	KeyTopContributors = "forum-top-contributors"
	KeyTags            = "forum-tags"
)

// Cacher stores JSON documents for a short time
type Cacher interface {
	GetJSON(key string, v any) bool
	SetJSON(key string, v any)
	Delete(keys ...string)
}

// Cache is a Cacher backed by Memcached
type Cache struct {
	Mem *memcache.Client
	ttl int32
}

// NewCache connects to the Memcached servers at url
func NewCache(url string, ttl time.Duration) *Cache {
	return &Cache{Mem: memcache.New(url), ttl: int32(ttl.Seconds())}
}

// GetJSON decodes the cached value into v, a miss or any
// error returns false
func (c *Cache) GetJSON(key string, v any) bool {
	item, err := c.Mem.Get(key)
	if err != nil {
		return false
	}

	return json.Unmarshal(item.Value, v) == nil
}

// SetJSON permits to set a temporary value, on the cache
// via Memcached
func (c *Cache) SetJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	c.Mem.Set(&memcache.Item{
		Key:        key,
		Value:      data,
		Expiration: c.ttl,
	})
}

// Delete invalidates keys
func (c *Cache) Delete(keys ...string) {
	for _, key := range keys {
		c.Mem.Delete(key)
	}
}
