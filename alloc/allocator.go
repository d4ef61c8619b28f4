// Package alloc implements a rotating first-fit allocator over a flash
// device's segments, skipping bad and non-free sectors.
//
// Reference: pc_alloc.h/pc_alloc.c from the original C prototype. Like
// the appender, this assumes a single writer — there is no locking
// because only the DB facade's flush path calls Acquire.
package alloc

import (
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/status"
	"github.com/embeddb/pointdb/segment"
)

// Allocator hands out free segment bases in rotation, starting the
// search from wherever the previous Acquire left off.
type Allocator struct {
	f           *flash.Device
	sectorCount uint32
	nextIndex   uint32
}

// New creates an allocator over f, starting the search at sector 0.
func New(f *flash.Device) (*Allocator, error) {
	if f.SectorBytes() == 0 {
		return nil, fmt.Errorf("alloc: flash device has zero sector size: %w", status.ErrInvalidArg)
	}
	return &Allocator{
		f:           f,
		sectorCount: f.SectorCount(),
	}, nil
}

// Acquire returns the base address of the next free segment, advancing
// the rotation pointer. "Free" means the segment's commit page is fully
// erased (never committed). Returns ErrNoSpace if every segment is
// either bad or already committed.
func (a *Allocator) Acquire() (uint32, error) {
	if a.sectorCount == 0 {
		return 0, fmt.Errorf("alloc: zero sectors: %w", status.ErrInvalidArg)
	}

	for step := uint32(0); step < a.sectorCount; step++ {
		idx := (a.nextIndex + step) % a.sectorCount
		if a.f.IsBad(idx) {
			continue
		}

		base := idx * a.f.SectorBytes()
		if segment.IsHeaderErased(a.f, base) {
			a.nextIndex = (idx + 1) % a.sectorCount
			return base, nil
		}
	}
	return 0, status.ErrNoSpace
}
