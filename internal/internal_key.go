package internal

import (
	"bytes"
	"math"
)

// UserKey is only used by callers to interact with the memtable.
// InternalKey is used for all internal ordering and storage.

type ValueType uint8

const (
	KTypeDeletion ValueType = 0x0
	KTypeValue    ValueType = 0x1
)

// MaxVersion is the largest version number an internal key can carry.
// Versions use 56 bits; the low 8 bits of the tag hold the value type.
const MaxVersion uint64 = (1 << 56) - 1

const TrailerSize = 8

// UserKey | original key |
type UserKey []byte

func UserKeyCompare(a, b UserKey) int {
	return bytes.Compare(a, b)
}

// InternalKey = UserKey + (version + type)(8B)
//
// The trailer is encoded as MaxUint64 - ((version << 8) | type) in big-endian,
// so comparing trailer bytes lexicographically orders equal user keys by
// version descending: the newest version of a key is the first one a forward
// scan reaches. This ordering is what gives snapshot reads their semantics,
// so it must stay consistent with InternalKeyCompare.
type InternalKey []byte

func NewInternalKey(userKey []byte, version uint64, t ValueType) InternalKey {
	if version > MaxVersion {
		// A wider version would shift into the type byte and corrupt
		// the trailer ordering.
		panic("internal: version overflows the packed trailer")
	}
	p := make([]byte, len(userKey)+TrailerSize)
	copy(p, userKey)
	EncodeFixed64BE(p[len(userKey):], math.MaxUint64-PackVersionAndType(version, t))
	return p
}

func PackVersionAndType(version uint64, t ValueType) uint64 {
	return version<<8 | uint64(t)
}

func InternalKeyCompare(a, b InternalKey) int {
	la, lb := len(a), len(b)
	if r := bytes.Compare(a[:la-TrailerSize], b[:lb-TrailerSize]); r != 0 {
		return r
	}
	return bytes.Compare(a[la-TrailerSize:], b[lb-TrailerSize:])
}

func (ik InternalKey) ExtractUserKey() UserKey {
	return UserKey(ik[0 : len(ik)-TrailerSize])
}

func (ik InternalKey) tag() uint64 {
	return math.MaxUint64 - DecodeFixed64BE(ik[len(ik)-TrailerSize:])
}

func (ik InternalKey) ExtractVersion() uint64 {
	return ik.tag() >> 8
}

func (ik InternalKey) ExtractValueType() ValueType {
	return ValueType(ik.tag() & 0xFF)
}

func SameUserKey(a, b InternalKey) bool {
	return UserKeyCompare(a.ExtractUserKey(), b.ExtractUserKey()) == 0
}
