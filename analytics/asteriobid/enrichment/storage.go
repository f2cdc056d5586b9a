package enrichment

import (
	"github.com/coocood/freecache"
)

// Storage persists UTM values across page views, one key per UTM
// parameter. A missing key reads as the empty string.
type Storage interface {
	Get(key string) string
	Set(key, value string) error
}

// LocalCache is the default Storage, an in-process freecache. Hosts with
// real durable storage supply their own implementation.
type LocalCache struct {
	cache *freecache.Cache
}

func NewLocalCache(sizeBytes int) *LocalCache {
	return &LocalCache{cache: freecache.NewCache(sizeBytes)}
}

func (c *LocalCache) Get(key string) string {
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		return ""
	}
	return string(value)
}

func (c *LocalCache) Set(key, value string) error {
	return c.cache.Set([]byte(key), []byte(value), 0)
}
