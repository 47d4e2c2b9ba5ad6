package internal

import "encoding/binary"

func EncodeFixed32(dst []byte, value uint32) {
	binary.LittleEndian.PutUint32(dst, value)
}

func EncodeFixed64(dst []byte, value uint64) {
	binary.LittleEndian.PutUint64(dst, value)
}

func DecodeFixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

func DecodeFixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// Big-endian fixed64 for internal key trailers, so that the raw byte order
// of the trailer matches the numeric order of the packed tag.
func EncodeFixed64BE(dst []byte, value uint64) {
	binary.BigEndian.PutUint64(dst, value)
}

func DecodeFixed64BE(src []byte) uint64 {
	return binary.BigEndian.Uint64(src)
}
