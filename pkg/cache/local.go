package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Local is an in-process TTL cache used in front of Redis and Postgres for
// small, hot per-user values.
type Local struct {
	store *gocache.Cache
}

// NewLocal builds a cache whose entries expire after ttl. Expired entries are
// purged every 2*ttl.
func NewLocal(ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Local{store: gocache.New(ttl, 2*ttl)}
}

// Get returns the cached value for key.
func (l *Local) Get(key string) (interface{}, bool) {
	return l.store.Get(key)
}

// Set stores value under key with the default TTL.
func (l *Local) Set(key string, value interface{}) {
	l.store.SetDefault(key, value)
}

// Delete drops key.
func (l *Local) Delete(key string) {
	l.store.Delete(key)
}

// Len reports the number of items, expired ones included until the next purge.
func (l *Local) Len() int {
	return l.store.ItemCount()
}

// Flush empties the cache.
func (l *Local) Flush() {
	l.store.Flush()
}
