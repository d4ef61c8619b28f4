package segment

import (
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/status"
)

// WriteBlock erases the segment at base, writes a single block (one
// metric/series, all given points), and commits — a one-shot
// convenience wrapper around Appender for callers that only ever write
// one block per segment.
//
// Reference: pc_block_write_segment in pc_block_writer.c.
func WriteBlock(f *flash.Device, base uint32, metricID, seriesID uint16, points []Point, seqno uint32) error {
	if len(points) == 0 {
		return fmt.Errorf("segment: write block with zero points: %w", status.ErrInvalidArg)
	}

	preH := PreHeaderBytes(f)
	prog := CommitPageBytes(f)
	need := uint32(BlockHeaderSize) + uint32(len(points))*PointSize
	padded := ((need + prog - 1) / prog) * prog
	if padded > preH {
		return status.ErrNoSpace
	}

	a, err := Open(f, base, seqno)
	if err != nil {
		return err
	}
	if err := a.AppendBlock(metricID, seriesID, points); err != nil {
		return err
	}
	return a.Commit(TypeData)
}
