package segment

import (
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/status"
)

// Appender writes any number of blocks into one segment's pre-header
// region, buffering partial program pages, then commits the segment
// header last. It assumes a single writer — matching the flusher's
// ownership of one open segment at a time.
//
// Reference: pc_appender.h/pc_appender.c from the original C prototype.
type Appender struct {
	f    *flash.Device
	base uint32
	prog uint32
	preH uint32

	page    []byte // staged program page, prefilled with the erased value
	pageOff uint32 // bytes staged in page [0..prog]
	segOff  uint32 // total bytes written into the pre-header [0..preH]

	tsMin       uint32
	tsMax       uint32
	recordCount uint32

	seqno uint32
	open  bool
}

// Open erases the segment at base and returns a ready-to-append Appender.
func Open(f *flash.Device, base uint32, seqno uint32) (*Appender, error) {
	if err := Erase(f, base); err != nil {
		return nil, err
	}

	prog := CommitPageBytes(f)
	page := make([]byte, prog)
	for i := range page {
		page[i] = f.ErasedVal()
	}

	return &Appender{
		f:     f,
		base:  base,
		prog:  prog,
		preH:  PreHeaderBytes(f),
		page:  page,
		tsMin: 0xFFFFFFFF,
		seqno: seqno,
		open:  true,
	}, nil
}

func (a *Appender) flushPage() error {
	if a.pageOff == 0 {
		return nil
	}
	addr := a.base + (a.segOff - a.pageOff)
	if addr%a.prog != 0 {
		return fmt.Errorf("segment: staged page address %d not page-aligned: %w", addr, status.ErrInvalidArg)
	}
	if err := a.f.Program(addr, a.page); err != nil {
		return err
	}
	for i := range a.page {
		a.page[i] = a.f.ErasedVal()
	}
	a.pageOff = 0
	return nil
}

func (a *Appender) emitBytes(src []byte) error {
	for len(src) > 0 {
		space := a.prog - a.pageOff
		chunk := uint32(len(src))
		if chunk > space {
			chunk = space
		}

		copy(a.page[a.pageOff:], src[:chunk])
		a.pageOff += chunk
		a.segOff += chunk
		src = src[chunk:]

		if a.segOff > a.preH {
			return status.ErrNoSpace
		}
		if a.pageOff == a.prog {
			if err := a.flushPage(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AppendBlock writes one block (header plus points) sharing a single
// metric/series. If the block would not fit in the remaining pre-header
// space, nothing is written and ErrNoSpace is returned — the caller
// (typically the DB facade) is expected to commit the current segment
// and retry on a fresh one.
func (a *Appender) AppendBlock(metricID, seriesID uint16, points []Point) error {
	if !a.open {
		return fmt.Errorf("segment: append on closed appender: %w", status.ErrInvalidArg)
	}
	if len(points) == 0 {
		return fmt.Errorf("segment: append with zero points: %w", status.ErrInvalidArg)
	}

	need := uint32(BlockHeaderSize) + uint32(len(points))*PointSize
	// Conservative fit check: since preH is a multiple of prog, the last
	// page touched by this block stays within preH iff segOff+need<=preH.
	if a.segOff+need > a.preH {
		return status.ErrNoSpace
	}

	hdr := BlockHeader{
		MetricID:   metricID,
		SeriesID:   seriesID,
		StartTS:    points[0].TS,
		PointCount: uint32(len(points)),
	}
	encodedHdr := hdr.encode()
	if err := a.emitBytes(encodedHdr[:]); err != nil {
		return err
	}

	for _, p := range points {
		if p.TS < a.tsMin {
			a.tsMin = p.TS
		}
		if p.TS > a.tsMax {
			a.tsMax = p.TS
		}
		encoded := p.encode()
		if err := a.emitBytes(encoded[:]); err != nil {
			return err
		}
	}

	a.recordCount += uint32(len(points))
	return nil
}

// Commit flushes any partially staged page and writes the segment
// commit header with the accumulated stats, closing the appender. A
// closed appender must not be reused.
func (a *Appender) Commit(typ Type) error {
	if !a.open {
		return fmt.Errorf("segment: commit on closed appender: %w", status.ErrInvalidArg)
	}
	if a.pageOff != 0 {
		if err := a.flushPage(); err != nil {
			return err
		}
	}

	tsMin := a.tsMin
	if tsMin == 0xFFFFFFFF {
		tsMin = 0
	}

	if err := Commit(a.f, a.base, typ, a.seqno, tsMin, a.tsMax, a.recordCount); err != nil {
		return err
	}
	a.open = false
	return nil
}

// BytesRemaining returns how many bytes remain in the pre-header region.
// Bytes staged in a page that hasn't been programmed yet count as used.
func (a *Appender) BytesRemaining() uint32 {
	if a.segOff > a.preH {
		return 0
	}
	return a.preH - a.segOff
}

// IsOpen reports whether the appender has not yet been committed.
func (a *Appender) IsOpen() bool { return a.open }

// Base returns the segment base address this appender is writing into.
func (a *Appender) Base() uint32 { return a.base }

// Seqno returns the segment sequence number this appender will commit with.
func (a *Appender) Seqno() uint32 { return a.seqno }
