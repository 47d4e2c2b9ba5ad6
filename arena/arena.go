package arena

import (
	"sync/atomic"
	"unsafe"
)

// Offset 0 is reserved as the nil offset, so heap-backed and anonymous
// regions begin allocating at 1. File-backed regions begin after the
// header page instead.
const reservedHeapOffset = 1

type kind uint8

const (
	kindHeap kind = iota
	kindAnon
	kindFile
)

// Arena is a fixed-capacity bump allocator over a contiguous byte region.
// Allocation is a single fetch-add on an atomic cursor, so any number of
// goroutines may allocate concurrently without locks. Nothing is ever
// freed individually; the region is released as one unit by Close.
//
// Offsets handed out by Allocate are stable for the lifetime of the arena
// (and, for the file backend, across reopen), which is what lets the
// skiplist link nodes by offset instead of by pointer.
type Arena struct {
	n    atomic.Uint64
	buf  []byte
	kind kind
	fd   int
	path string

	// Offset of the owning structure's root record, persisted in the
	// header of file-backed regions. Written once before first Flush.
	root uint32
}

// New creates a heap-backed arena with the given capacity in bytes.
func New(capacity uint32) (*Arena, error) {
	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}
	a := &Arena{buf: make([]byte, capacity), kind: kindHeap, fd: -1}
	a.n.Store(reservedHeapOffset)
	return a, nil
}

// Allocate reserves size bytes aligned to align (a power of two) and
// returns the offset of the reservation. It fails with ErrArenaFull once
// the capacity is exhausted; the failure is permanent and must not be
// retried against the same arena.
//
// overflow bytes past the reservation are required to be addressable but
// are not consumed; the cursor does not advance over them. A caller that
// overlays a struct wider than its truncated reservation passes the
// truncation as overflow so the overlay never extends past the region.
func (a *Arena) Allocate(size, align, overflow uint32) (uint32, error) {
	if a.n.Load() > uint64(len(a.buf)) {
		return 0, ErrArenaFull
	}

	// Pad the reservation so the result can be aligned downward without
	// leaving the reserved range.
	padded := uint64(size) + uint64(align) - 1
	newSize := a.n.Add(padded)
	if newSize+uint64(overflow) > uint64(len(a.buf)) {
		return 0, ErrArenaFull
	}

	offset := (uint32(newSize) - size) &^ (align - 1)
	return offset, nil
}

// Resolve maps an offset to the size bytes it addresses. Offset 0
// resolves to nil.
func (a *Arena) Resolve(offset, size uint32) []byte {
	if offset == 0 {
		return nil
	}
	return a.buf[offset : offset+size : offset+size]
}

// Pointer maps an offset to the live address of its first byte.
// Offset 0 maps to nil.
func (a *Arena) Pointer(offset uint32) unsafe.Pointer {
	if offset == 0 {
		return nil
	}
	return unsafe.Pointer(&a.buf[offset])
}

// OffsetOf is the inverse of Pointer for addresses inside the region.
func (a *Arena) OffsetOf(p unsafe.Pointer) uint32 {
	if p == nil {
		return 0
	}
	return uint32(uintptr(p) - uintptr(unsafe.Pointer(&a.buf[0])))
}

// Size returns the number of bytes allocated so far.
func (a *Arena) Size() uint64 {
	n := a.n.Load()
	if n > uint64(len(a.buf)) {
		// A failed over-limit allocation may leave the cursor past the
		// end; the usable size is still the capacity.
		return uint64(len(a.buf))
	}
	return n
}

// Capacity returns the total size of the region in bytes.
func (a *Arena) Capacity() uint64 {
	return uint64(len(a.buf))
}

// SetRoot records the offset of the owning structure's root record. For
// file-backed regions it is persisted by the next Flush.
func (a *Arena) SetRoot(offset uint32) {
	a.root = offset
}

// Root returns the offset recorded by SetRoot, or restored by Open.
func (a *Arena) Root() uint32 {
	return a.root
}
