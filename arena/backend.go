package arena

import (
	"crypto/rand"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"syscall"
)

// NewAnon creates an arena backed by an anonymous memory mapping. It
// behaves like a heap arena but keeps the region off the Go heap, which
// is useful for very large memtables.
func NewAnon(capacity uint32) (*Arena, error) {
	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}
	buf, err := syscall.Mmap(-1, 0, int(capacity),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap anonymous region: %w", err)
	}
	a := &Arena{buf: buf, kind: kindAnon, fd: -1}
	a.n.Store(reservedHeapOffset)
	return a, nil
}

// Create creates a file-backed arena at path with the given data
// capacity. The file is created as a temp file, sized, given a valid
// header and fsynced before being renamed into place, so a crash during
// creation never leaves a half-built region behind.
func Create(path string, capacity uint32) (*Arena, error) {
	// Offsets are 32-bit, so the region including its header page must
	// stay addressable by a uint32.
	if capacity == 0 || capacity > math.MaxUint32-headerPageSize {
		return nil, ErrInvalidCapacity
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	regionSize := int64(headerPageSize) + int64(capacity)

	randBytes := make([]byte, 8)
	_, _ = rand.Read(randBytes)
	tmpPath := fmt.Sprintf("%s.tmp.%x", path, randBytes)

	fd, err := syscall.Open(tmpPath, syscall.O_RDWR|syscall.O_CREAT|syscall.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if err := syscall.Ftruncate(fd, regionSize); err != nil {
		_ = syscall.Close(fd)
		_ = syscall.Unlink(tmpPath)
		return nil, fmt.Errorf("ftruncate: %w", err)
	}

	header := make([]byte, headerSize)
	encodeHeader(header, uint64(regionSize), headerPageSize, 0)
	if _, err := syscall.Pwrite(fd, header, 0); err != nil {
		_ = syscall.Close(fd)
		_ = syscall.Unlink(tmpPath)
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := syscall.Fsync(fd); err != nil {
		_ = syscall.Close(fd)
		_ = syscall.Unlink(tmpPath)
		return nil, fmt.Errorf("fsync: %w", err)
	}
	_ = syscall.Close(fd)

	if err := syscall.Rename(tmpPath, path); err != nil {
		_ = syscall.Unlink(tmpPath)
		return nil, fmt.Errorf("rename: %w", err)
	}

	return mmapRegion(path, regionSize, headerPageSize, 0)
}

// Open reopens a previously created file-backed arena. The header is
// validated before the region is mapped; a region that fails validation
// is refused with an error wrapping ErrCorruptRegion. The allocation
// cursor resumes from the value recorded by the last Flush.
func Open(path string) (*Arena, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open region: %w", err)
	}

	var stat syscall.Stat_t
	if err := syscall.Fstat(fd, &stat); err != nil {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("stat region: %w", err)
	}
	if stat.Size < headerPageSize {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("%w: file size %d is smaller than the header page",
			ErrCorruptRegion, stat.Size)
	}

	header := make([]byte, headerSize)
	if n, err := syscall.Pread(fd, header, 0); err != nil || n != headerSize {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("%w: short header read", ErrCorruptRegion)
	}
	allocated, root, err := validateHeader(header, stat.Size)
	if err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	_ = syscall.Close(fd)

	a, err := mmapRegion(path, stat.Size, allocated, root)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func mmapRegion(path string, regionSize int64, allocated uint64, root uint32) (*Arena, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open region: %w", err)
	}
	buf, err := syscall.Mmap(fd, 0, int(regionSize),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("mmap region: %w", err)
	}
	a := &Arena{buf: buf, kind: kindFile, fd: fd, path: path, root: root}
	a.n.Store(allocated)
	return a, nil
}

// Flush rewrites the header with the current allocation cursor and root
// offset and forces the region to stable storage. It is a no-op for heap
// and anonymous arenas. The skiplist never calls Flush itself; durability
// scheduling belongs to the caller.
func (a *Arena) Flush() error {
	if a.kind != kindFile {
		return nil
	}
	encodeHeader(a.buf[:headerSize], uint64(len(a.buf)), a.Size(), a.root)
	return a.Sync()
}

// Sync forces dirty pages of a file-backed region to stable storage
// without touching the header.
func (a *Arena) Sync() error {
	if a.kind != kindFile {
		return nil
	}
	// MAP_SHARED pages live in the page cache, so fsync on the backing
	// file covers writes made through the mapping.
	if err := syscall.Fsync(a.fd); err != nil {
		return fmt.Errorf("fsync region: %w", err)
	}
	return nil
}

// Close releases the region. File-backed regions are flushed, unmapped
// and their descriptor closed; the arena must not be used afterwards.
func (a *Arena) Close() error {
	switch a.kind {
	case kindHeap:
		a.buf = nil
		return nil
	case kindAnon:
		buf := a.buf
		a.buf = nil
		return syscall.Munmap(buf)
	default:
		flushErr := a.Flush()
		buf := a.buf
		a.buf = nil
		if err := syscall.Munmap(buf); err != nil {
			_ = syscall.Close(a.fd)
			return err
		}
		if err := syscall.Close(a.fd); err != nil {
			return err
		}
		return flushErr
	}
}
