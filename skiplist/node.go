package skiplist

import (
	"sync/atomic"
	"unsafe"

	"github.com/lsmkit/arenaskl/arena"
	"github.com/lsmkit/arenaskl/internal"
)

const (
	maxHeight = 20

	offsetSize = uint32(unsafe.Sizeof(atomic.Uint32{}))

	// Nodes are aligned on 64-bit boundaries so tower slots stay
	// naturally aligned for atomic access.
	nodeAlign = uint32(unsafe.Sizeof(uint64(0)))
)

// MaxNodeSize is the memory footprint of a node of maximum height.
const MaxNodeSize = uint32(unsafe.Sizeof(node{}))

// node is the arena-resident representation of one entry. The payload
// fields are written exactly once, before the node is published by a CAS
// on a predecessor's tower slot; after publication only tower slots ever
// change, and only via CAS.
type node struct {
	keyOffset uint32
	keySize   uint16
	height    uint16

	valueOffset uint32
	valueSize   uint32

	// Most nodes never reach the full tower height, since the
	// probability of each successive level drops exponentially. The
	// allocation is truncated to height slots so the unused ones are
	// never backed by arena memory.
	tower [maxHeight]atomic.Uint32
}

// newNode allocates a node of the given height plus its key and value
// bytes. On arena exhaustion the partial reservation is simply abandoned;
// nothing references it because the node was never linked.
func newNode(a *arena.Arena, key internal.InternalKey, value []byte, height int) (*node, uint32, error) {
	// The truncated tower slots are never touched, but the node overlay
	// below types the full struct, so they must stay addressable. Passing
	// the truncation as overflow keeps the overlay inside the region.
	truncated := uint32(maxHeight-height) * offsetSize
	offset, err := a.Allocate(MaxNodeSize-truncated, nodeAlign, truncated)
	if err != nil {
		return nil, 0, err
	}
	nd := (*node)(a.Pointer(offset))
	nd.height = uint16(height)
	if err := nd.setKey(a, key); err != nil {
		return nil, 0, err
	}
	if err := nd.setValue(a, value); err != nil {
		return nil, 0, err
	}
	return nd, offset, nil
}

func (nd *node) setKey(a *arena.Arena, key []byte) error {
	offset, err := a.Allocate(uint32(len(key)), 1, 0)
	if err != nil {
		return err
	}
	copy(a.Resolve(offset, uint32(len(key))), key)
	nd.keyOffset = offset
	nd.keySize = uint16(len(key))
	return nil
}

func (nd *node) setValue(a *arena.Arena, value []byte) error {
	offset, err := a.Allocate(uint32(len(value)), 1, 0)
	if err != nil {
		return err
	}
	copy(a.Resolve(offset, uint32(len(value))), value)
	nd.valueOffset = offset
	nd.valueSize = uint32(len(value))
	return nil
}

func (nd *node) key(a *arena.Arena) internal.InternalKey {
	return internal.InternalKey(a.Resolve(nd.keyOffset, uint32(nd.keySize)))
}

func (nd *node) value(a *arena.Arena) []byte {
	return a.Resolve(nd.valueOffset, nd.valueSize)
}

func (nd *node) getNextOffset(h int) uint32 {
	return nd.tower[h].Load()
}

func (nd *node) casNextOffset(h int, old, new uint32) bool {
	return nd.tower[h].CompareAndSwap(old, new)
}
