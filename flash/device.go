// Package flash models a NOR-like flash device: erase-by-sector,
// program-by-page, bits only transition 1→0 between erases, with
// per-sector wear counters and bad-sector flags.
//
// Reference: pc_flash.h/pc_flash_sim.c from the original C prototype.
// This is a host-side, in-memory model — it exists so segment/alloc/
// recovery can be written and tested against the device's contract
// without depending on a particular physical transport (SPI NOR, QSPI,
// memory-mapped XIP). A production build would satisfy the same Device
// behavior over a real bus; nothing above this package assumes memory.
package flash

import (
	"fmt"
	"math"

	"github.com/embeddb/pointdb/internal/status"
)

// Device is an in-memory NOR flash simulator with configurable geometry.
//
// Concurrency: Device is not safe for concurrent use by multiple writers.
// The system as a whole assumes a single appender/allocator owns program
// and erase calls; Read may be called concurrently with those only if the
// caller has its own synchronization, since a read racing a program call
// on overlapping bytes is undefined in real NOR flash too.
type Device struct {
	mem []byte

	sectorBytes uint32
	progBytes   uint32
	sectorCount uint32
	erasedVal   byte

	wear []uint32
	bad  []bool
}

// Options configures a new Device.
type Options struct {
	TotalBytes  uint32
	SectorBytes uint32
	ProgBytes   uint32
	ErasedVal   byte // usually 0xFF
}

// Validate checks geometry invariants: sector and program sizes are
// powers of two, total is a multiple of sector size, and program
// granularity evenly divides the sector size.
func (o Options) Validate() error {
	if o.TotalBytes == 0 || o.SectorBytes == 0 || o.ProgBytes == 0 {
		return fmt.Errorf("flash: zero-sized geometry field: %w", status.ErrInvalidArg)
	}
	if o.SectorBytes&(o.SectorBytes-1) != 0 || o.ProgBytes&(o.ProgBytes-1) != 0 {
		return fmt.Errorf("flash: sector_bytes and prog_bytes must be powers of two: %w", status.ErrInvalidArg)
	}
	if o.TotalBytes%o.SectorBytes != 0 {
		return fmt.Errorf("flash: total_bytes not a multiple of sector_bytes: %w", status.ErrInvalidArg)
	}
	if o.SectorBytes%o.ProgBytes != 0 {
		return fmt.Errorf("flash: sector_bytes not a multiple of prog_bytes: %w", status.ErrInvalidArg)
	}
	return nil
}

// New creates an in-memory flash device, with every byte set to
// ErasedVal. Returns ErrInvalidArg if the geometry is inconsistent.
func New(opts Options) (*Device, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sectors := opts.TotalBytes / opts.SectorBytes
	mem := make([]byte, opts.TotalBytes)
	for i := range mem {
		mem[i] = opts.ErasedVal
	}

	return &Device{
		mem:         mem,
		sectorBytes: opts.SectorBytes,
		progBytes:   opts.ProgBytes,
		sectorCount: sectors,
		erasedVal:   opts.ErasedVal,
		wear:        make([]uint32, sectors),
		bad:         make([]bool, sectors),
	}, nil
}

// TotalBytes returns the device's total capacity.
func (d *Device) TotalBytes() uint32 { return uint32(len(d.mem)) }

// SectorBytes returns the erase granularity.
func (d *Device) SectorBytes() uint32 { return d.sectorBytes }

// ProgBytes returns the program granularity.
func (d *Device) ProgBytes() uint32 { return d.progBytes }

// SectorCount returns the number of sectors.
func (d *Device) SectorCount() uint32 { return d.sectorCount }

// ErasedVal returns the byte value a freshly erased cell reads as.
func (d *Device) ErasedVal() byte { return d.erasedVal }

func aligned(x, a uint32) bool {
	if a == 0 {
		return x == 0
	}
	return x%a == 0
}

func (d *Device) addrToSector(addr uint32) uint32 {
	return addr / d.sectorBytes
}

func (d *Device) rangeInBounds(addr, length uint32) bool {
	end := uint64(addr) + uint64(length)
	return end <= uint64(len(d.mem))
}

func (d *Device) rangeHitsBad(addr, length uint32) bool {
	if length == 0 {
		return false
	}
	start := d.addrToSector(addr)
	end := d.addrToSector(addr + length - 1)
	if end >= d.sectorCount {
		return true
	}
	for s := start; s <= end; s++ {
		if d.bad[s] {
			return true
		}
	}
	return false
}

// Read copies len(out) bytes starting at addr into out. Bounds and
// bad-sector state are checked; bad sectors return ErrFlashIO.
func (d *Device) Read(addr uint32, out []byte) error {
	length := uint32(len(out))
	if !d.rangeInBounds(addr, length) {
		return fmt.Errorf("flash: read out of bounds at addr=%d len=%d: %w", addr, length, status.ErrInvalidArg)
	}
	if length == 0 {
		return nil
	}
	if d.rangeHitsBad(addr, length) {
		return fmt.Errorf("flash: read hits bad sector at addr=%d: %w", addr, status.ErrFlashIO)
	}
	copy(out, d.mem[addr:addr+length])
	return nil
}

// Program writes data at addr. addr and len(data) must be multiples of
// ProgBytes, and no bit may transition 0→1 (the destination must have
// been erased first). Program effectively ANDs data into the existing
// bytes, matching real NOR flash semantics.
func (d *Device) Program(addr uint32, data []byte) error {
	length := uint32(len(data))
	if length == 0 {
		return nil
	}
	if !d.rangeInBounds(addr, length) {
		return fmt.Errorf("flash: program out of bounds at addr=%d len=%d: %w", addr, length, status.ErrInvalidArg)
	}
	if !aligned(addr, d.progBytes) || !aligned(length, d.progBytes) {
		return fmt.Errorf("flash: program not page-aligned at addr=%d len=%d: %w", addr, length, status.ErrInvalidArg)
	}
	if d.rangeHitsBad(addr, length) {
		return fmt.Errorf("flash: program hits bad sector at addr=%d: %w", addr, status.ErrFlashIO)
	}

	dst := d.mem[addr : addr+length]
	for i, newb := range data {
		oldb := dst[i]
		if (^oldb)&newb != 0 {
			return fmt.Errorf("flash: program attempted 0->1 bit transition at addr=%d+%d: %w", addr, i, status.ErrInvalidArg)
		}
	}
	for i, newb := range data {
		dst[i] &= newb
	}
	return nil
}

// EraseSector resets a whole sector to ErasedVal and bumps its wear
// counter (saturating at math.MaxUint32).
func (d *Device) EraseSector(sectorIndex uint32) error {
	if sectorIndex >= d.sectorCount {
		return fmt.Errorf("flash: erase sector %d out of range: %w", sectorIndex, status.ErrInvalidArg)
	}
	if d.bad[sectorIndex] {
		return fmt.Errorf("flash: erase sector %d is bad: %w", sectorIndex, status.ErrFlashIO)
	}

	base := sectorIndex * d.sectorBytes
	for i := uint32(0); i < d.sectorBytes; i++ {
		d.mem[base+i] = d.erasedVal
	}
	if d.wear[sectorIndex] != math.MaxUint32 {
		d.wear[sectorIndex]++
	}
	return nil
}

// MarkBad marks or clears a sector's bad flag.
func (d *Device) MarkBad(sectorIndex uint32, isBad bool) error {
	if sectorIndex >= d.sectorCount {
		return fmt.Errorf("flash: mark bad sector %d out of range: %w", sectorIndex, status.ErrInvalidArg)
	}
	d.bad[sectorIndex] = isBad
	return nil
}

// IsBad reports whether a sector is flagged bad. An out-of-range index
// is treated as bad, matching the C reference's conservative default.
func (d *Device) IsBad(sectorIndex uint32) bool {
	if sectorIndex >= d.sectorCount {
		return true
	}
	return d.bad[sectorIndex]
}

// RawBytes returns a copy of the device's entire byte contents,
// bypassing the bad-sector checks Read enforces. It exists for test
// tooling that needs to snapshot raw state — e.g. simulating power
// loss mid-sequence — not for use on a production read/write path.
func (d *Device) RawBytes() []byte {
	out := make([]byte, len(d.mem))
	copy(out, d.mem)
	return out
}

// RestoreRawBytes overwrites the device's entire byte contents from a
// previously captured RawBytes snapshot. len(b) must equal
// TotalBytes(). Like RawBytes, this is test tooling, not a
// production operation: real NOR flash cannot un-erase or un-program
// itself.
func (d *Device) RestoreRawBytes(b []byte) error {
	if uint32(len(b)) != d.TotalBytes() {
		return fmt.Errorf("flash: RestoreRawBytes length %d != TotalBytes %d: %w", len(b), d.TotalBytes(), status.ErrInvalidArg)
	}
	copy(d.mem, b)
	return nil
}

// WearStats returns the minimum, maximum, and average erase count across
// all sectors.
func (d *Device) WearStats() (min, max, avg uint32) {
	if d.sectorCount == 0 {
		return 0, 0, 0
	}
	var sum uint64
	min = math.MaxUint32
	for _, w := range d.wear {
		if w < min {
			min = w
		}
		if w > max {
			max = w
		}
		sum += uint64(w)
	}
	avg = uint32(sum / uint64(d.sectorCount))
	return min, max, avg
}
