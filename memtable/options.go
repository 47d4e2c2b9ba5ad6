package memtable

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
)

type Options struct {
	// Capacity is the arena size in bytes for this memtable. The arena
	// never grows: once it is exhausted Add returns arena.ErrArenaFull
	// and the caller must rotate to a fresh memtable.
	// Default value is 64MB.
	Capacity uint32

	// Path, if non-empty, backs the memtable with a memory-mapped file
	// at that location so its contents survive process restarts. The
	// empty default keeps the memtable on the heap.
	Path string

	// Anonymous backs the memtable with an anonymous memory mapping
	// instead of the heap. Ignored when Path is set.
	Anonymous bool

	// BloomEntries is the expected number of distinct user keys, used to
	// size the membership filter that short-circuits negative lookups.
	// Default value is 100000.
	BloomEntries uint

	// BloomFalsePositiveRate is the target false positive rate of the
	// membership filter. Default value is 0.01.
	BloomFalsePositiveRate float64
}

// DefaultOptions sets a list of recommended options for good performance.
func DefaultOptions() *Options {
	var option Options
	option.Capacity = 64 * MB
	option.BloomEntries = 100000
	option.BloomFalsePositiveRate = 0.01
	return &option
}
