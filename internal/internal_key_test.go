package internal

import (
	"bytes"
	"testing"
)

func Test_InternalKeyRoundTrip(t *testing.T) {
	key := NewInternalKey([]byte("answer"), 42, KTypeValue)
	if string(key.ExtractUserKey()) != "answer" {
		t.Fatalf("user key = %q", key.ExtractUserKey())
	}
	if v := key.ExtractVersion(); v != 42 {
		t.Fatalf("version = %d", v)
	}
	if vt := key.ExtractValueType(); vt != KTypeValue {
		t.Fatalf("value type = %d", vt)
	}

	del := NewInternalKey([]byte("answer"), 42, KTypeDeletion)
	if vt := del.ExtractValueType(); vt != KTypeDeletion {
		t.Fatalf("value type = %d", vt)
	}
	if v := del.ExtractVersion(); v != 42 {
		t.Fatalf("version = %d", v)
	}
}

func Test_InternalKeyCompare(t *testing.T) {
	a1 := NewInternalKey([]byte("a"), 1, KTypeValue)
	a2 := NewInternalKey([]byte("a"), 2, KTypeValue)
	b1 := NewInternalKey([]byte("b"), 1, KTypeValue)

	// User keys order ascending.
	if InternalKeyCompare(a1, b1) >= 0 {
		t.Fatal("expected a < b")
	}
	// Equal user keys order version descending: newest first.
	if InternalKeyCompare(a2, a1) >= 0 {
		t.Fatal("expected version 2 to sort before version 1")
	}
	if InternalKeyCompare(a1, a1) != 0 {
		t.Fatal("expected equal keys to compare equal")
	}

	// At equal version a value entry sorts before a deletion entry.
	av := NewInternalKey([]byte("a"), 1, KTypeValue)
	ad := NewInternalKey([]byte("a"), 1, KTypeDeletion)
	if InternalKeyCompare(av, ad) >= 0 {
		t.Fatal("expected value entry to sort before deletion entry")
	}
}

func Test_TrailerByteOrderMatchesNumericOrder(t *testing.T) {
	// The comparator relies on raw trailer bytes ordering versions
	// descending; check against a plain bytes.Compare.
	lo := NewInternalKey([]byte("k"), 10, KTypeValue)
	hi := NewInternalKey([]byte("k"), 1000, KTypeValue)
	if bytes.Compare(hi, lo) >= 0 {
		t.Fatal("higher version must sort earlier byte-wise")
	}
}

func Test_SameUserKey(t *testing.T) {
	a := NewInternalKey([]byte("key"), 1, KTypeValue)
	b := NewInternalKey([]byte("key"), 9, KTypeDeletion)
	c := NewInternalKey([]byte("key2"), 1, KTypeValue)
	if !SameUserKey(a, b) {
		t.Fatal("same user key not detected")
	}
	if SameUserKey(a, c) {
		t.Fatal("different user keys reported equal")
	}
}

func Test_VersionOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a version wider than 56 bits")
		}
	}()
	NewInternalKey([]byte("key"), MaxVersion+1, KTypeValue)
}
