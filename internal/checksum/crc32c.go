// Package checksum implements the CRC32C (Castagnoli) checksum used to
// verify a segment's commit header against its pre-header payload.
//
// Reference: pc_crc32c.h/pc_crc32c.c from the original C prototype for
// the checksum's role in the commit protocol, and the teacher's own
// internal/checksum/crc32c.go for the Extend chaining shape: hash/crc32's
// Update already applies the standard algorithm's implicit invert-at-entry
// and invert-at-exit, so Extend(0, data) chained across calls equals
// Value(data) for the concatenation of those data slices with no separate
// seed or finalize step.
package checksum

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// Value computes the CRC32C checksum of data in one shot.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, table)
}

// Extend computes the CRC32C of concat(A, data) where state is the
// CRC32C of A (or 0 to start a new stream), for streaming a checksum
// across multiple reads without buffering them all.
func Extend(state uint32, data []byte) uint32 {
	return crc32.Update(state, table, data)
}
