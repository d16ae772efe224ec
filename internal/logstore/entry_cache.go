package logstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// EntryCache caches parsed log lines keyed by generation and line index.
// Lines of the active log are immutable once written, so a cached entry is
// valid until the store starts a new generation. Eviction is based on LRU and
// LFU policies. Entries handed out are shared; callers must not mutate them.
type EntryCache struct {
	cache *ristretto.Cache
}

func NewEntryCache(cache *ristretto.Cache) *EntryCache {
	return &EntryCache{cache: cache}
}

func (c *EntryCache) Get(generation uint64, index int64) (Entry, error) {
	value, found := c.cache.Get(entryCacheKey(generation, index))
	if !found {
		return Entry{}, ErrKeyNotFound
	}
	entry, ok := value.(Entry)
	if !ok {
		return Entry{}, fmt.Errorf("value not of expected type %T returned from cache", value)
	}
	return entry, nil
}

func (c *EntryCache) Put(generation uint64, index int64, entry Entry) error {
	if !c.cache.Set(entryCacheKey(generation, index), entry, 1) {
		return ErrSetFailed
	}
	return nil
}

// Wait blocks until pending sets are applied. Only tests need it.
func (c *EntryCache) Wait() {
	c.cache.Wait()
}

func entryCacheKey(generation uint64, index int64) string {
	return fmt.Sprintf("%d:%d", generation, index)
}

var (
	ErrKeyNotFound = errors.New("entry not found within the cache")
	ErrSetFailed   = errors.New("failed to set entry in cache")
)
