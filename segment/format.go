// Package segment implements the 4 KB segment format and header-last
// atomic commit protocol used to durably record blocks of points on a
// flash.Device.
//
// Layout of one segment (one erase sector, e.g. 4096 bytes):
//
//	[ base .......................... base+preH-1 ][ base+preH .. base+S-1 ]
//	|<------ pre-header region -------------------->|<--- commit page ---->|
//	  block headers + point payloads + 0xFF padding    segment commit header
//
// S is the sector size and preH = S - P where P is the program page size
// (the commit page occupies exactly the final program page). The commit
// header's CRC32C covers the entire pre-header region exactly as present
// on flash at commit time, including any untouched 0xFF padding — so
// verify only needs to recompute that one checksum and compare.
//
// Reference: pc_logseg.h/pc_logseg.c from the original C prototype.
package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/checksum"
	"github.com/embeddb/pointdb/internal/parity"
	"github.com/embeddb/pointdb/internal/status"
)

// Magic identifies this format: 'P' 'C' 'D' '1'.
const Magic uint32 = 0x50434431

// Version is the current on-flash format version.
const Version uint16 = 1

// Type enumerates the kind of content a segment carries.
type Type uint16

const (
	// TypeData is a data segment: block headers plus point payloads.
	TypeData Type = 1
	// TypeIndex is a snapshot/index segment. Reserved; not produced by
	// this package today.
	TypeIndex Type = 2
	// TypeEpoch is an epoch marker used for bounded recovery. Reserved;
	// not produced by this package today.
	TypeEpoch Type = 3
)

// HeaderSize is the encoded size of Header in bytes. It must be no
// larger than the device's program page size — the commit header is
// written in a single Program call.
const HeaderSize = 32

// Header is the commit header written to the last program page of a
// segment. Its presence (as opposed to an all-erased page) plus a
// matching CRC32C over the pre-header region is what makes a segment
// "committed" rather than in-flight.
type Header struct {
	Magic       uint32
	Version     uint16
	Type        Type
	Seqno       uint32
	TsMin       uint32
	TsMax       uint32
	RecordCount uint32
	CRC32C      uint32

	// Parity8 is an additive, non-authoritative diagnostic: the XOR
	// parity of the pre-header region, computed alongside the CRC. It
	// is never consulted by Verify — a CRC mismatch alone determines
	// corruption — but a caller doing a cheap pre-scan over many
	// segments can compare Parity8 before paying for a full CRC pass.
	Parity8 uint8
}

func (h Header) encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.LittleEndian.PutUint32(buf[8:12], h.Seqno)
	binary.LittleEndian.PutUint32(buf[12:16], h.TsMin)
	binary.LittleEndian.PutUint32(buf[16:20], h.TsMax)
	binary.LittleEndian.PutUint32(buf[20:24], h.RecordCount)
	binary.LittleEndian.PutUint32(buf[24:28], h.CRC32C)
	buf[28] = h.Parity8
	// buf[29:32] reserved, left zero.
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Type:        Type(binary.LittleEndian.Uint16(buf[6:8])),
		Seqno:       binary.LittleEndian.Uint32(buf[8:12]),
		TsMin:       binary.LittleEndian.Uint32(buf[12:16]),
		TsMax:       binary.LittleEndian.Uint32(buf[16:20]),
		RecordCount: binary.LittleEndian.Uint32(buf[20:24]),
		CRC32C:      binary.LittleEndian.Uint32(buf[24:28]),
		Parity8:     buf[28],
	}
}

func isAligned(x, a uint32) bool {
	if a == 0 {
		return x == 0
	}
	return x%a == 0
}

// SegmentBytes returns the erase-sector size, i.e. the full segment size.
func SegmentBytes(f *flash.Device) uint32 { return f.SectorBytes() }

// CommitPageBytes returns the program page size, i.e. the commit page size.
func CommitPageBytes(f *flash.Device) uint32 { return f.ProgBytes() }

// PreHeaderBytes returns the size of the pre-header payload region.
func PreHeaderBytes(f *flash.Device) uint32 { return SegmentBytes(f) - CommitPageBytes(f) }

// Erase erases the sector containing the segment at base. base must be
// sector-aligned.
func Erase(f *flash.Device, base uint32) error {
	seg := SegmentBytes(f)
	if !isAligned(base, seg) {
		return fmt.Errorf("segment: base %d not sector-aligned: %w", base, status.ErrInvalidArg)
	}
	return f.EraseSector(base / seg)
}

// ProgramData writes data into the pre-header region at base+offset. The
// write must be page-aligned and must not cross into the commit page.
func ProgramData(f *flash.Device, base, offset uint32, data []byte) error {
	seg := SegmentBytes(f)
	prog := CommitPageBytes(f)
	preH := PreHeaderBytes(f)

	if !isAligned(base, seg) {
		return fmt.Errorf("segment: base %d not sector-aligned: %w", base, status.ErrInvalidArg)
	}
	length := uint32(len(data))
	if offset+length > preH {
		return fmt.Errorf("segment: write at offset %d len %d crosses commit page: %w", offset, length, status.ErrInvalidArg)
	}
	if !isAligned(base+offset, prog) || !isAligned(length, prog) {
		return fmt.Errorf("segment: write at offset %d len %d not page-aligned: %w", offset, length, status.ErrInvalidArg)
	}
	return f.Program(base+offset, data)
}

// CRCRegion recomputes the CRC32C over the full pre-header region
// [base, base+preH), reading it back page by page to avoid a large
// temporary buffer. It also returns the XOR parity of the same bytes,
// since both are single-pass scans over identical data.
func CRCRegion(f *flash.Device, base uint32) (crc uint32, par uint8, err error) {
	seg := SegmentBytes(f)
	prog := CommitPageBytes(f)
	preH := PreHeaderBytes(f)
	if !isAligned(base, seg) {
		return 0, 0, fmt.Errorf("segment: base %d not sector-aligned: %w", base, status.ErrInvalidArg)
	}

	var state uint32
	var parState uint8
	buf := make([]byte, prog)
	for off := uint32(0); off < preH; off += prog {
		if err := f.Read(base+off, buf); err != nil {
			return 0, 0, err
		}
		state = checksum.Extend(state, buf)
		parState = parity.Update(parState, buf)
	}
	return state, parState, nil
}

// Commit computes the CRC32C (and parity) over the current pre-header
// region and writes the commit header to the final program page. This
// single Program call is the atomic linearization point: before it, the
// segment reads as uncommitted on recovery; after it, it reads as
// committed with the given stats.
func Commit(f *flash.Device, base uint32, typ Type, seqno, tsMin, tsMax, recordCount uint32) error {
	seg := SegmentBytes(f)
	prog := CommitPageBytes(f)
	preH := PreHeaderBytes(f)
	if !isAligned(base, seg) {
		return fmt.Errorf("segment: base %d not sector-aligned: %w", base, status.ErrInvalidArg)
	}

	crc, par, err := CRCRegion(f, base)
	if err != nil {
		return err
	}

	hdr := Header{
		Magic:       Magic,
		Version:     Version,
		Type:        typ,
		Seqno:       seqno,
		TsMin:       tsMin,
		TsMax:       tsMax,
		RecordCount: recordCount,
		CRC32C:      crc,
		Parity8:     par,
	}
	encoded := hdr.encode()

	page := make([]byte, prog)
	for i := range page {
		page[i] = 0xFF
	}
	copy(page, encoded[:])

	headerAddr := base + preH
	if !isAligned(headerAddr, prog) {
		return fmt.Errorf("segment: header address %d not page-aligned: %w", headerAddr, status.ErrInvalidArg)
	}
	return f.Program(headerAddr, page)
}

// IsHeaderErased reports whether the commit page is still fully at the
// erased value, i.e. no header has been written yet.
func IsHeaderErased(f *flash.Device, base uint32) bool {
	seg := SegmentBytes(f)
	prog := CommitPageBytes(f)
	preH := PreHeaderBytes(f)
	if !isAligned(base, seg) {
		return true
	}
	page := make([]byte, prog)
	if err := f.Read(base+preH, page); err != nil {
		return true
	}
	erased := f.ErasedVal()
	for _, b := range page {
		if b != erased {
			return false
		}
	}
	return true
}

// Verify reads and validates the segment at base: the commit page must
// hold a header with matching magic/version, and the CRC32C recomputed
// over the pre-header region must match the stored value. Returns
// ErrCorrupt if the commit page is entirely erased, or if the header or
// CRC are invalid.
func Verify(f *flash.Device, base uint32) (Header, error) {
	seg := SegmentBytes(f)
	prog := CommitPageBytes(f)
	preH := PreHeaderBytes(f)
	if !isAligned(base, seg) {
		return Header{}, fmt.Errorf("segment: base %d not sector-aligned: %w", base, status.ErrInvalidArg)
	}

	page := make([]byte, prog)
	if err := f.Read(base+preH, page); err != nil {
		return Header{}, err
	}

	erased := f.ErasedVal()
	allErased := true
	for _, b := range page {
		if b != erased {
			allErased = false
			break
		}
	}
	if allErased {
		return Header{}, fmt.Errorf("segment: commit page at base %d is erased: %w", base, status.ErrCorrupt)
	}

	hdr := decodeHeader(page)
	if hdr.Magic != Magic || hdr.Version != Version {
		return Header{}, fmt.Errorf("segment: bad magic/version at base %d: %w", base, status.ErrCorrupt)
	}

	crc, _, err := CRCRegion(f, base)
	if err != nil {
		return Header{}, err
	}
	if crc != hdr.CRC32C {
		return Header{}, fmt.Errorf("segment: crc mismatch at base %d: %w", base, status.ErrCorrupt)
	}

	return hdr, nil
}
