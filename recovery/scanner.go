// Package recovery implements the forward recovery scanner: a linear,
// idempotent pass over every segment that reports which ones are
// validly committed.
//
// Reference: pc_recover.h/pc_recover.c from the original C prototype.
package recovery

import (
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/status"
	"github.com/embeddb/pointdb/segment"
)

// Summary describes one valid, committed segment.
type Summary struct {
	Base        uint32
	Type        segment.Type
	Seqno       uint32
	TsMin       uint32
	TsMax       uint32
	RecordCount uint32
}

// ScanAll walks every sector-aligned segment in ascending base order and
// collects summaries for the ones that verify as committed. Bad
// sectors, uncommitted (erased commit page) segments, and corrupt
// segments are silently skipped — the scan never writes to the device
// and never fails on an individual bad segment. maxOut caps how many
// summaries are returned; pass 0 for unlimited.
func ScanAll(f *flash.Device, maxOut int) ([]Summary, error) {
	seg := f.SectorBytes()
	total := f.TotalBytes()
	if seg == 0 || total == 0 {
		return nil, fmt.Errorf("recovery: flash device has zero geometry: %w", status.ErrInvalidArg)
	}

	var out []Summary
	for base := uint32(0); base+seg <= total; base += seg {
		sectorIndex := base / seg
		if f.IsBad(sectorIndex) {
			continue
		}
		if segment.IsHeaderErased(f, base) {
			continue
		}

		hdr, err := segment.Verify(f, base)
		if err != nil {
			continue
		}

		out = append(out, Summary{
			Base:        base,
			Type:        hdr.Type,
			Seqno:       hdr.Seqno,
			TsMin:       hdr.TsMin,
			TsMax:       hdr.TsMax,
			RecordCount: hdr.RecordCount,
		})
		if maxOut > 0 && len(out) >= maxOut {
			break
		}
	}
	return out, nil
}
