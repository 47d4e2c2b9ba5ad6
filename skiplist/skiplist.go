package skiplist

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"unsafe"

	"github.com/lsmkit/arenaskl/arena"
	"github.com/lsmkit/arenaskl/internal"
)

// ErrKeyTooLarge is returned for keys longer than the node layout can
// record. Such keys indicate caller misuse, not arena pressure.
var ErrKeyTooLarge = errors.New("key exceeds maximum length")

// SkipList is a lock-free ordered index over internal keys, with all node
// storage bump-allocated from a single arena. Any number of goroutines may
// insert and read concurrently; there are no locks anywhere, only CAS on
// tower slots and on the height counter.
//
// Keys carry a version trailer (see internal.InternalKey) and equal user
// keys order newest-version-first, so a forward scan reaches the most
// recent visible version of each key before any older one. Nodes are never
// deleted; the whole structure is discarded by dropping its arena.
type SkipList struct {
	height atomic.Int32
	head   *node
	arena  *arena.Arena
}

// New builds an empty skiplist on the given arena. The head sentinel is
// the arena's first allocation and its offset is recorded as the arena
// root, which is what Open uses to find the list again in a persisted
// region.
func New(a *arena.Arena) (*SkipList, error) {
	head, headOffset, err := newNode(a, nil, nil, maxHeight)
	if err != nil {
		return nil, fmt.Errorf("allocate head sentinel: %w", err)
	}
	a.SetRoot(headOffset)
	s := &SkipList{head: head, arena: a}
	s.height.Store(1)
	return s, nil
}

// Open rebuilds a skiplist over a reopened persisted arena. The recorded
// height is not trusted; it is recomputed from the head tower.
func Open(a *arena.Arena) (*SkipList, error) {
	headOffset := a.Root()
	if headOffset == 0 {
		return nil, fmt.Errorf("%w: region has no root record", arena.ErrCorruptRegion)
	}
	head := (*node)(a.Pointer(headOffset))
	if head.height != maxHeight {
		return nil, fmt.Errorf("%w: head sentinel height %d", arena.ErrCorruptRegion, head.height)
	}
	s := &SkipList{head: head, arena: a}
	h := maxHeight
	for h > 1 && head.getNextOffset(h-1) == 0 {
		h--
	}
	s.height.Store(int32(h))
	return s, nil
}

// Height returns the current tower height of the list.
func (s *SkipList) Height() int32 {
	return s.height.Load()
}

// Empty reports whether the list holds no entries.
func (s *SkipList) Empty() bool {
	return s.getNext(s.head, 0) == nil
}

// MemoryUsage returns the number of arena bytes consumed so far.
func (s *SkipList) MemoryUsage() uint64 {
	return s.arena.Size()
}

func (s *SkipList) randomHeight() int {
	h := 1
	for h < maxHeight && rand.Intn(4) == 0 {
		h++
	}
	return h
}

func (s *SkipList) getNext(nd *node, level int) *node {
	offset := nd.getNextOffset(level)
	if offset == 0 {
		return nil
	}
	return (*node)(s.arena.Pointer(offset))
}

func (s *SkipList) nodeOffset(nd *node) uint32 {
	if nd == nil {
		return 0
	}
	return s.arena.OffsetOf(unsafe.Pointer(nd))
}

// Put links a new node carrying key and value. Exact duplicates of an
// already present key+version are permitted and link immediately before
// the existing equal node. The only failure is arena exhaustion, which
// leaves the list exactly as it was.
func (s *SkipList) Put(key internal.InternalKey, value []byte) error {
	if len(key) > math.MaxUint16 {
		return ErrKeyTooLarge
	}

	listHeight := int(s.Height())
	var prev [maxHeight + 1]*node
	var next [maxHeight + 1]*node
	prev[listHeight] = s.head
	for i := listHeight - 1; i >= 0; i-- {
		prev[i], next[i] = s.findSpliceForLevel(key, prev[i+1], i)
	}

	height := s.randomHeight()
	nd, ndOffset, err := newNode(s.arena, key, value, height)
	if err != nil {
		return err
	}

	// Raise the recorded list height before linking the upper levels so
	// concurrent searches descend from the correct starting level.
	listHeight = int(s.Height())
	for height > listHeight {
		if s.height.CompareAndSwap(int32(listHeight), int32(height)) {
			break
		}
		listHeight = int(s.Height())
	}

	for i := 0; i < height; i++ {
		for {
			if prev[i] == nil {
				// No splice was computed for this level: the node is
				// taller than the height the search started from.
				prev[i], next[i] = s.findSpliceForLevel(key, s.head, i)
			}
			nextOffset := s.nodeOffset(next[i])
			nd.tower[i].Store(nextOffset)
			if prev[i].casNextOffset(i, nextOffset, ndOffset) {
				break
			}
			// A concurrent insert won the race at this level. The old
			// predecessor still sorts before key, so re-walk from it
			// rather than from the head.
			prev[i], next[i] = s.findSpliceForLevel(key, prev[i], i)
		}
	}
	return nil
}

// Get returns the newest entry for userKey whose version is at most
// maxVersion. The returned key carries the entry's exact version and
// value type; callers decide what a deletion entry means.
func (s *SkipList) Get(userKey []byte, maxVersion uint64) (internal.InternalKey, []byte, bool) {
	// A read bound above the largest encodable version means "see
	// everything".
	if maxVersion > internal.MaxVersion {
		maxVersion = internal.MaxVersion
	}
	seek := internal.NewInternalKey(userKey, maxVersion, internal.KTypeValue)
	nd := s.findGreaterOrEqual(seek)
	if nd == nil {
		return nil, nil, false
	}
	key := nd.key(s.arena)
	if internal.UserKeyCompare(key.ExtractUserKey(), userKey) != 0 {
		return nil, nil, false
	}
	return key, nd.value(s.arena), true
}

// findSpliceForLevel walks forward from before at the given level and
// returns the pair of nodes key belongs between. before must sort
// strictly before key. An existing equal key stops the walk, so a
// duplicate links in front of it.
func (s *SkipList) findSpliceForLevel(key internal.InternalKey, before *node, level int) (*node, *node) {
	for {
		next := s.getNext(before, level)
		if next == nil {
			return before, nil
		}
		if internal.InternalKeyCompare(key, next.key(s.arena)) <= 0 {
			return before, next
		}
		before = next
	}
}

// findGreaterOrEqual returns the first node whose key is >= key, or nil.
func (s *SkipList) findGreaterOrEqual(key internal.InternalKey) *node {
	cur := s.head
	level := int(s.Height()) - 1
	for {
		next := s.getNext(cur, level)
		if next == nil {
			if level > 0 {
				level--
				continue
			}
			return nil
		}
		cmp := internal.InternalKeyCompare(key, next.key(s.arena))
		if cmp > 0 {
			cur = next
			continue
		}
		if cmp == 0 {
			return next
		}
		if level > 0 {
			level--
			continue
		}
		return next
	}
}

// findLessThan returns the last node whose key is < key, or <= key when
// allowEqual is set. Returns nil when no such node exists.
func (s *SkipList) findLessThan(key internal.InternalKey, allowEqual bool) *node {
	cur := s.head
	level := int(s.Height()) - 1
	for {
		next := s.getNext(cur, level)
		if next != nil {
			cmp := internal.InternalKeyCompare(key, next.key(s.arena))
			if cmp == 0 && allowEqual {
				return next
			}
			if cmp > 0 {
				cur = next
				continue
			}
		}
		if level > 0 {
			level--
			continue
		}
		if cur == s.head {
			return nil
		}
		return cur
	}
}

// findLast returns the last node in the list, or nil when empty.
func (s *SkipList) findLast() *node {
	cur := s.head
	level := int(s.Height()) - 1
	for {
		next := s.getNext(cur, level)
		if next != nil {
			cur = next
			continue
		}
		if level > 0 {
			level--
			continue
		}
		if cur == s.head {
			return nil
		}
		return cur
	}
}
