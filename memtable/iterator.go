package memtable

import (
	"github.com/lsmkit/arenaskl/internal"
	"github.com/lsmkit/arenaskl/skiplist"
)

// Iterator is the snapshot view of a memtable: for each user key it
// yields only the newest version visible at the snapshot, and it hides
// keys whose newest visible version is a deletion. Forward-only; range
// scans wanting every version use the raw skiplist iterator.
type Iterator struct {
	input      *skiplist.Iterator
	maxVersion uint64
}

func newIterator(input *skiplist.Iterator, maxVersion uint64) *Iterator {
	if maxVersion > internal.MaxVersion {
		maxVersion = internal.MaxVersion
	}
	return &Iterator{input: input, maxVersion: maxVersion}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.input.Valid()
}

// SeekToFirst positions at the first live user key.
func (it *Iterator) SeekToFirst() {
	it.input.SeekToFirst()
	it.settle(nil)
}

// Seek positions at the first live user key >= userKey.
func (it *Iterator) Seek(userKey []byte) {
	it.input.Seek(internal.NewInternalKey(userKey, it.maxVersion, internal.KTypeValue))
	it.settle(nil)
}

// Next advances to the next live user key.
// REQUIRES: Valid()
func (it *Iterator) Next() {
	cur := it.input.UserKey()
	it.input.Next()
	it.settle(cur)
}

// Key returns the current user key.
// REQUIRES: Valid()
func (it *Iterator) Key() internal.UserKey {
	return it.input.UserKey()
}

// Value returns the value of the current key's newest visible version.
// REQUIRES: Valid()
func (it *Iterator) Value() []byte {
	return it.input.Value()
}

// Version returns the version the current entry was written at.
// REQUIRES: Valid()
func (it *Iterator) Version() uint64 {
	return it.input.Version()
}

// settle advances the input cursor until it rests on the newest visible
// version of a live user key different from prev. Older versions of a key
// sort directly after the newest one, so they are recognized by user-key
// equality alone.
func (it *Iterator) settle(prev internal.UserKey) {
	for it.input.Valid() {
		key := it.input.Key()
		userKey := key.ExtractUserKey()
		if prev != nil && internal.UserKeyCompare(userKey, prev) == 0 {
			it.input.Next()
			continue
		}
		if key.ExtractValueType() == internal.KTypeDeletion {
			prev = userKey
			it.input.Next()
			continue
		}
		return
	}
}
