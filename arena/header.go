package arena

import (
	"bytes"
	"fmt"

	"github.com/lsmkit/arenaskl/internal"
)

// On-disk layout of a file-backed region:
//
//	| header page (4096B) | raw arena bytes ... |
//
// Allocation offsets are file offsets, so the first allocatable offset is
// headerPageSize. The header occupies a whole page so that header rewrites
// never dirty a data page.
//
//	| magic(4B) | format_version(4B) | header_size(4B) |
//	| region_size(8B) | allocated(8B) | root_offset(4B) |
const (
	headerPageSize = 4096
	headerSize     = 32

	formatVersion uint32 = 1
)

var magic = []byte("ASKL")

const (
	offMagic         = 0
	offFormatVersion = 4
	offHeaderSize    = 8
	offRegionSize    = 12
	offAllocated     = 20
	offRoot          = 28
)

func encodeHeader(dst []byte, regionSize, allocated uint64, root uint32) {
	copy(dst[offMagic:], magic)
	internal.EncodeFixed32(dst[offFormatVersion:], formatVersion)
	internal.EncodeFixed32(dst[offHeaderSize:], headerSize)
	internal.EncodeFixed64(dst[offRegionSize:], regionSize)
	internal.EncodeFixed64(dst[offAllocated:], allocated)
	internal.EncodeFixed32(dst[offRoot:], root)
}

// validateHeader checks a header read from an existing file against the
// actual file size and returns the persisted allocation cursor and root
// offset. Every failure wraps ErrCorruptRegion.
func validateHeader(h []byte, fileSize int64) (allocated uint64, root uint32, err error) {
	if !bytes.Equal(h[offMagic:offMagic+4], magic) {
		return 0, 0, fmt.Errorf("%w: got %q", ErrInvalidMagic, h[offMagic:offMagic+4])
	}
	if v := internal.DecodeFixed32(h[offFormatVersion:]); v != formatVersion {
		return 0, 0, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, v, formatVersion)
	}
	if hs := internal.DecodeFixed32(h[offHeaderSize:]); hs != headerSize {
		return 0, 0, fmt.Errorf("%w: unexpected header size %d", ErrCorruptRegion, hs)
	}
	if rs := internal.DecodeFixed64(h[offRegionSize:]); rs != uint64(fileSize) {
		return 0, 0, fmt.Errorf("%w: region size %d does not match file size %d",
			ErrCorruptRegion, rs, fileSize)
	}
	allocated = internal.DecodeFixed64(h[offAllocated:])
	if allocated < headerPageSize || allocated > uint64(fileSize) {
		return 0, 0, fmt.Errorf("%w: allocation cursor %d out of range", ErrCorruptRegion, allocated)
	}
	root = internal.DecodeFixed32(h[offRoot:])
	if uint64(root) >= uint64(fileSize) {
		return 0, 0, fmt.Errorf("%w: root offset %d out of range", ErrCorruptRegion, root)
	}
	return allocated, root, nil
}
