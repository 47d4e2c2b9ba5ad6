package memtable

import (
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/lsmkit/arenaskl/arena"
	"github.com/lsmkit/arenaskl/internal"
	"github.com/lsmkit/arenaskl/skiplist"
)

// MemTable is the write buffer of an LSM engine: a versioned key-value
// index over an arena-backed lock-free skiplist. Writers append new
// versions of keys; readers pick the versions visible at their snapshot.
// A deletion is an ordinary entry with KTypeDeletion; nothing is ever
// physically removed until the whole table is discarded.
type MemTable struct {
	table *skiplist.SkipList
	arena *arena.Arena

	// The filter only accelerates negative point lookups; correctness
	// never depends on it. It has its own lock so filter maintenance
	// does not serialize the skiplist itself.
	mu     sync.Mutex
	filter *bloom.BloomFilter

	ref    atomic.Int32
	frozen atomic.Bool
}

// New creates a memtable on the backend selected by opts. Zero-valued
// fields fall back to their defaults.
func New(opts *Options) (*MemTable, error) {
	o := *DefaultOptions()
	if opts != nil {
		o.Path = opts.Path
		o.Anonymous = opts.Anonymous
		if opts.Capacity != 0 {
			o.Capacity = opts.Capacity
		}
		if opts.BloomEntries != 0 {
			o.BloomEntries = opts.BloomEntries
		}
		if opts.BloomFalsePositiveRate != 0 {
			o.BloomFalsePositiveRate = opts.BloomFalsePositiveRate
		}
	}
	opts = &o

	var (
		a   *arena.Arena
		err error
	)
	switch {
	case opts.Path != "":
		a, err = arena.Create(opts.Path, opts.Capacity)
	case opts.Anonymous:
		a, err = arena.NewAnon(opts.Capacity)
	default:
		a, err = arena.New(opts.Capacity)
	}
	if err != nil {
		return nil, err
	}

	table, err := skiplist.New(a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	m := &MemTable{
		table:  table,
		arena:  a,
		filter: bloom.NewWithEstimates(opts.BloomEntries, opts.BloomFalsePositiveRate),
	}
	m.ref.Store(1)
	return m, nil
}

// Open reopens a file-backed memtable persisted by a previous process.
// The result is frozen: reopened tables exist to be read and flushed, not
// written. The membership filter is rebuilt by a single scan.
func Open(path string) (*MemTable, error) {
	a, err := arena.Open(path)
	if err != nil {
		return nil, err
	}
	table, err := skiplist.Open(a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	m := &MemTable{
		table:  table,
		arena:  a,
		filter: bloom.NewWithEstimates(DefaultOptions().BloomEntries, DefaultOptions().BloomFalsePositiveRate),
	}
	m.ref.Store(1)
	m.frozen.Store(true)

	iter := table.NewIterator(internal.MaxVersion)
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		m.filter.Add(iter.UserKey())
	}
	return m, nil
}

// Add inserts a new version of userKey. Versions wider than 56 bits do
// not fit the packed trailer and panic. The only ordinary failure is
// arena.ErrArenaFull, which tells the caller to freeze this table and
// start a new one.
func (m *MemTable) Add(version uint64, valueType internal.ValueType, userKey, value []byte) error {
	if m.frozen.Load() {
		return ErrTableFrozen
	}
	key := internal.NewInternalKey(userKey, version, valueType)
	if err := m.table.Put(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	m.filter.Add(userKey)
	m.mu.Unlock()
	return nil
}

// Get returns the value of the newest version of userKey visible at
// maxVersion. A visible deletion entry reports the key as absent.
func (m *MemTable) Get(userKey []byte, maxVersion uint64) ([]byte, bool) {
	m.mu.Lock()
	miss := !m.filter.Test(userKey)
	m.mu.Unlock()
	if miss {
		return nil, false
	}

	key, value, ok := m.table.Get(userKey, maxVersion)
	if !ok {
		return nil, false
	}
	if key.ExtractValueType() == internal.KTypeDeletion {
		return nil, false
	}
	return value, true
}

// NewIterator returns a snapshot cursor that yields, for each user key,
// only the newest version visible at maxVersion, skipping deleted keys.
func (m *MemTable) NewIterator(maxVersion uint64) *Iterator {
	return newIterator(m.table.NewIterator(maxVersion), maxVersion)
}

// NewRawIterator returns the underlying version-filtered skiplist cursor,
// which surfaces every visible version of every key. Compaction wants this
// view; point readers want NewIterator.
func (m *MemTable) NewRawIterator(maxVersion uint64) *skiplist.Iterator {
	return m.table.NewIterator(maxVersion)
}

// ApproximateMemoryUsage returns the arena bytes consumed so far.
func (m *MemTable) ApproximateMemoryUsage() uint64 {
	return m.table.MemoryUsage()
}

// Empty reports whether the table holds no entries.
func (m *MemTable) Empty() bool {
	return m.table.Empty()
}

// Freeze makes the table immutable. Writes issued after Freeze returns
// fail with ErrTableFrozen; in-flight writes that already passed the
// frozen check complete normally.
func (m *MemTable) Freeze() {
	m.frozen.Store(true)
}

// Frozen reports whether the table has been frozen.
func (m *MemTable) Frozen() bool {
	return m.frozen.Load()
}

// Flush persists a file-backed table's header and data to stable
// storage. No-op for heap and anonymous tables.
func (m *MemTable) Flush() error {
	return m.arena.Flush()
}

// Sync forces dirty data pages to stable storage without updating the
// header. No-op for heap and anonymous tables.
func (m *MemTable) Sync() error {
	return m.arena.Sync()
}

// IncrRef adds a reference to the table. Every holder balances it with
// DecrRef; the backing region is released when the last reference drops.
func (m *MemTable) IncrRef() {
	m.ref.Add(1)
}

// DecrRef releases one reference. The caller must not use the table
// afterwards; the region is closed when the count reaches zero.
func (m *MemTable) DecrRef() error {
	if m.ref.Add(-1) > 0 {
		return nil
	}
	return m.arena.Close()
}

// Close releases the creating reference. The region itself is released
// only once every IncrRef holder has called DecrRef.
func (m *MemTable) Close() error {
	return m.DecrRef()
}
