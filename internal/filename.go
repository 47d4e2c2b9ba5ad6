package internal

import "fmt"

// TableFileName returns the backing file path for a file-backed memtable.
func TableFileName(dir string, number uint64) string {
	return fmt.Sprintf("%s/%06d.mem", dir, number)
}
