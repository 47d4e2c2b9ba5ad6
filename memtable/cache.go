package memtable

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/lsmkit/arenaskl/internal"
)

// TableCache caches reopened frozen memtables in memory. Frozen tables
// are immutable, so a handle returned by Get stays usable after the
// cache evicts the table: each handle carries a reference, and the
// backing mapping is released only when the cache's reference and every
// handle's reference have been dropped.
type TableCache struct {
	dir   string
	cache *lru.Cache
}

func NewTableCache(dir string, capacity int) (*TableCache, error) {
	var tc TableCache
	tc.dir = dir
	cache, err := lru.NewWithEvict(capacity, func(_, value interface{}) {
		_ = value.(*MemTable).DecrRef()
	})
	if err != nil {
		return nil, err
	}
	tc.cache = cache
	return &tc, nil
}

// Get returns the frozen memtable with the given file number, reopening
// it on a cache miss. The caller owns one reference on the returned
// table and releases it with DecrRef when done.
func (tc *TableCache) Get(fileNumber uint64) (*MemTable, error) {
	if table, ok := tc.cache.Get(fileNumber); ok {
		t := table.(*MemTable)
		t.IncrRef()
		return t, nil
	}
	table, err := Open(internal.TableFileName(tc.dir, fileNumber))
	if err != nil {
		return nil, err
	}
	// One reference for the caller on top of the cache's own.
	table.IncrRef()
	tc.cache.Add(fileNumber, table)
	return table, nil
}

// Evict drops a table from the cache, releasing the cache's reference.
func (tc *TableCache) Evict(fileNumber uint64) {
	tc.cache.Remove(fileNumber)
}

// Close evicts everything.
func (tc *TableCache) Close() {
	tc.cache.Purge()
}
