package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrArenaFull is returned when an allocation does not fit in the
	// remaining capacity. The arena never grows; the caller must roll over
	// to a fresh arena.
	ErrArenaFull = errors.New("allocation failed because arena is full")

	// ErrInvalidCapacity is returned when an arena is constructed with a
	// capacity too small to hold anything.
	ErrInvalidCapacity = errors.New("arena capacity must be positive")

	// ErrCorruptRegion is the common base of all header validation
	// failures when reopening a persisted region. A region that fails
	// validation must not be used.
	ErrCorruptRegion = errors.New("arena region failed header validation")

	ErrInvalidMagic    = fmt.Errorf("invalid magic: %w", ErrCorruptRegion)
	ErrVersionMismatch = fmt.Errorf("format version mismatch: %w", ErrCorruptRegion)
)
