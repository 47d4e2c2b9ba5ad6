package memtable

import "errors"

// ErrTableFrozen is returned when attempting to write to a frozen
// memtable. Frozen tables are immutable and only await flushing.
var ErrTableFrozen = errors.New("memtable is frozen")
