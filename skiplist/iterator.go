package skiplist

import "github.com/lsmkit/arenaskl/internal"

// Iterator is a cursor over the list's level-0 chain. It observes a
// moving frontier: entries inserted after the iterator was created may or
// may not be seen, but entries never appear out of order or twice.
//
// Entries whose version exceeds maxVersion are skipped, which is how
// snapshot reads are implemented: a reader bounded to its snapshot
// version simply never observes newer versions, even though the nodes are
// physically present.
type Iterator struct {
	list       *SkipList
	nd         *node
	maxVersion uint64
}

// NewIterator returns a cursor bounded to entries with version <=
// maxVersion. Pass internal.MaxVersion to observe everything.
func (s *SkipList) NewIterator(maxVersion uint64) *Iterator {
	return &Iterator{list: s, maxVersion: maxVersion}
}

// Valid reports whether the iterator is positioned at a real entry.
func (it *Iterator) Valid() bool {
	return it.nd != nil && it.nd != it.list.head
}

// Key returns the internal key at the current position.
// REQUIRES: Valid()
func (it *Iterator) Key() internal.InternalKey {
	return it.nd.key(it.list.arena)
}

// Value returns the value at the current position.
// REQUIRES: Valid()
func (it *Iterator) Value() []byte {
	return it.nd.value(it.list.arena)
}

// UserKey returns the user portion of the current key.
// REQUIRES: Valid()
func (it *Iterator) UserKey() internal.UserKey {
	return it.Key().ExtractUserKey()
}

// Version returns the version of the current entry.
// REQUIRES: Valid()
func (it *Iterator) Version() uint64 {
	return it.Key().ExtractVersion()
}

// SeekToFirst positions at the first visible entry.
func (it *Iterator) SeekToFirst() {
	it.nd = it.list.getNext(it.list.head, 0)
	it.skipForward()
}

// SeekToLast positions at the last visible entry.
func (it *Iterator) SeekToLast() {
	it.nd = it.list.findLast()
	it.skipBackward()
}

// Seek positions at the first visible entry with key >= target.
func (it *Iterator) Seek(target internal.InternalKey) {
	it.nd = it.list.findGreaterOrEqual(target)
	it.skipForward()
}

// SeekForPrev positions at the last visible entry with key <= target.
func (it *Iterator) SeekForPrev(target internal.InternalKey) {
	it.nd = it.list.findLessThan(target, true)
	it.skipBackward()
}

// Next advances to the next visible entry.
// REQUIRES: Valid()
func (it *Iterator) Next() {
	it.nd = it.list.getNext(it.nd, 0)
	it.skipForward()
}

// Prev retreats to the previous visible entry. The level-0 chain carries
// no back-links, so this re-descends from the head bounded by the current
// key, which keeps Prev O(log n).
// REQUIRES: Valid()
func (it *Iterator) Prev() {
	it.nd = it.list.findLessThan(it.nd.key(it.list.arena), false)
	it.skipBackward()
}

func (it *Iterator) visible() bool {
	return it.nd.key(it.list.arena).ExtractVersion() <= it.maxVersion
}

func (it *Iterator) skipForward() {
	for it.Valid() && !it.visible() {
		it.nd = it.list.getNext(it.nd, 0)
	}
}

func (it *Iterator) skipBackward() {
	for it.Valid() && !it.visible() {
		it.nd = it.list.findLessThan(it.nd.key(it.list.arena), false)
	}
}
