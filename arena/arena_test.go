package arena

import (
	"errors"
	"testing"
)

func Test_AllocateAligned(t *testing.T) {
	a, err := New(1024)
	if err != nil {
		t.Fatal(err)
	}
	for _, align := range []uint32{1, 4, 8} {
		offset, err := a.Allocate(16, align, 0)
		if err != nil {
			t.Fatal(err)
		}
		if offset == 0 {
			t.Fatal("offset 0 is reserved and must never be returned")
		}
		if offset%align != 0 {
			t.Fatalf("offset %d not aligned to %d", offset, align)
		}
	}
}

func Test_AllocateDoesNotOverlap(t *testing.T) {
	a, err := New(1024)
	if err != nil {
		t.Fatal(err)
	}
	o1, err := a.Allocate(8, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	o2, err := a.Allocate(8, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o2 < o1+8 {
		t.Fatalf("allocations overlap: %d then %d", o1, o2)
	}
	copy(a.Resolve(o1, 8), "11111111")
	copy(a.Resolve(o2, 8), "22222222")
	if string(a.Resolve(o1, 8)) != "11111111" {
		t.Fatal("first allocation clobbered by second")
	}
}

func Test_AllocateOutOfSpace(t *testing.T) {
	a, err := New(64)
	if err != nil {
		t.Fatal(err)
	}
	offset, err := a.Allocate(32, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Allocate(64, 1, 0); !errors.Is(err, ErrArenaFull) {
		t.Fatalf("want ErrArenaFull, got %v", err)
	}
	// Earlier allocations stay valid after a failed one.
	buf := a.Resolve(offset, 32)
	if len(buf) != 32 {
		t.Fatal("prior allocation no longer resolvable")
	}
	// The arena never recovers.
	if _, err := a.Allocate(1, 1, 0); !errors.Is(err, ErrArenaFull) {
		t.Fatalf("want ErrArenaFull, got %v", err)
	}
}

func Test_AllocateOverflowReservation(t *testing.T) {
	// A reservation whose overlay would extend past the region must fail
	// even though the consumed bytes alone would fit.
	a, err := New(64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Allocate(40, 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Allocate(16, 1, 16); !errors.Is(err, ErrArenaFull) {
		t.Fatalf("want ErrArenaFull, got %v", err)
	}

	// The same reservation without the overflow requirement fits.
	b, err := New(64)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Allocate(40, 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Allocate(16, 1, 0); err != nil {
		t.Fatal(err)
	}
}

func Test_InvalidCapacity(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("want ErrInvalidCapacity, got %v", err)
	}
	if _, err := NewAnon(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("want ErrInvalidCapacity, got %v", err)
	}
}

func Test_ResolveNil(t *testing.T) {
	a, err := New(64)
	if err != nil {
		t.Fatal(err)
	}
	if a.Resolve(0, 8) != nil {
		t.Fatal("offset 0 must resolve to nil")
	}
	if a.Pointer(0) != nil {
		t.Fatal("offset 0 must map to a nil pointer")
	}
}

func Test_OffsetOfRoundTrip(t *testing.T) {
	a, err := New(128)
	if err != nil {
		t.Fatal(err)
	}
	offset, err := a.Allocate(16, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.OffsetOf(a.Pointer(offset)); got != offset {
		t.Fatalf("OffsetOf(Pointer(%d)) = %d", offset, got)
	}
}

func Test_AnonBackend(t *testing.T) {
	a, err := NewAnon(1 << 16)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	offset, err := a.Allocate(5, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	copy(a.Resolve(offset, 5), "hello")
	if string(a.Resolve(offset, 5)) != "hello" {
		t.Fatal("anonymous mapping did not hold data")
	}
	// Flush and Sync are no-ops but must not fail.
	if err := a.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := a.Sync(); err != nil {
		t.Fatal(err)
	}
}
