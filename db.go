// Package pointdb is an append-only time-series log for NOR-flash
// sensor devices: one lock-free producer enqueues (metric, series,
// timestamp, value) samples into an SPSC ring, and a single flusher
// drains that ring into 4 KB flash segments using the header-last
// atomic commit protocol in package segment.
//
// Reference: pc_api.h/pc_api.c from the original C prototype — this
// file is the Go equivalent of pc_db_t and its pc_db_*/pc_write/
// pc_query_latest functions.
package pointdb

import (
	"errors"
	"fmt"

	"github.com/embeddb/pointdb/alloc"
	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/logging"
	"github.com/embeddb/pointdb/internal/status"
	"github.com/embeddb/pointdb/recovery"
	"github.com/embeddb/pointdb/ring"
	"github.com/embeddb/pointdb/segment"
)

// Sample is one in-RAM point waiting to be flushed to flash.
type Sample struct {
	TS       uint32
	MetricID uint16
	SeriesID uint16
	Value    float32
}

// DB is the facade over the ring, the segment allocator, and the
// currently-open appender.
//
// Concurrency: Write is safe to call from a single producer goroutine
// concurrently with FlushOnce/FlushUntilEmpty/QueryLatest running on a
// single flusher goroutine — that is the SPSC contract the ring
// provides. FlushOnce, FlushUntilEmpty, and QueryLatest are not safe to
// call concurrently with each other; the system assumes one flusher.
type DB struct {
	flash *flash.Device
	ring  *ring.Ring[Sample]
	alloc *alloc.Allocator
	log   logging.Logger

	maxScanSegments int
	blockMaxPoints  int

	appender *segment.Appender
	nextSeq  uint32
}

// Open constructs a DB over the given options.
func Open(opts Options) (*DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a, err := alloc.New(opts.Flash)
	if err != nil {
		return nil, err
	}

	return &DB{
		flash:           opts.Flash,
		ring:            ring.New[Sample](opts.RingCapacity),
		alloc:           a,
		log:             opts.Logger,
		maxScanSegments: opts.MaxScanSegments,
		blockMaxPoints:  opts.BlockMaxPoints,
		nextSeq:         opts.SeqStart,
	}, nil
}

// Close releases the DB. It does not flush or commit an open segment —
// callers that want a durable final state must call FlushUntilEmpty
// first.
func (db *DB) Close() error {
	db.appender = nil
	return nil
}

// Write enqueues one sample into the ring. Returns ErrBusy if the ring
// is full; the caller may retry later.
func (db *DB) Write(metricID, seriesID uint16, ts uint32, value float32) error {
	s := Sample{TS: ts, MetricID: metricID, SeriesID: seriesID, Value: value}
	if n := db.ring.Push([]Sample{s}); n != 1 {
		return status.ErrBusy
	}
	return nil
}

// popSameSeries drains up to cap samples from the ring, stopping as
// soon as a sample's (metric, series) differs from the first one
// popped, or the ring goes empty.
func popSameSeries(r *ring.Ring[Sample], cap int) []Sample {
	first, ok := r.Peek()
	if !ok {
		return nil
	}
	out := make([]Sample, 1, cap)
	buf := make([]Sample, 1)
	r.Pop(buf)
	out[0] = buf[0]

	for len(out) < cap {
		next, ok := r.Peek()
		if !ok {
			break
		}
		if next.MetricID != first.MetricID || next.SeriesID != first.SeriesID {
			break
		}
		r.Pop(buf)
		out = append(out, buf[0])
	}
	return out
}

func toSegmentPoints(samples []Sample) []segment.Point {
	points := make([]segment.Point, len(samples))
	for i, s := range samples {
		points[i] = segment.Point{TS: s.TS, Value: s.Value}
	}
	return points
}

func (db *DB) openAppender() error {
	base, err := db.alloc.Acquire()
	if err != nil {
		return err
	}
	a, err := segment.Open(db.flash, base, db.nextSeq)
	if err != nil {
		return err
	}
	db.nextSeq++
	db.appender = a
	return nil
}

// FlushOnce drains at most one block's worth of same-series samples
// from the ring and appends them to the current (or a freshly acquired)
// segment. If the block would not fit in the current segment, the
// current segment is committed and a new one is acquired and retried
// once. Returns nil even when the ring was empty.
func (db *DB) FlushOnce() error {
	if db.ring.IsEmpty() {
		return nil
	}

	if db.appender == nil {
		if err := db.openAppender(); err != nil {
			return err
		}
	}

	samples := popSameSeries(db.ring, db.blockMaxPoints)
	if len(samples) == 0 {
		return nil
	}
	metric := samples[0].MetricID
	series := samples[0].SeriesID
	points := toSegmentPoints(samples)

	err := db.appender.AppendBlock(metric, series, points)
	if errors.Is(err, status.ErrNoSpace) {
		if commitErr := db.appender.Commit(segment.TypeData); commitErr != nil {
			return commitErr
		}
		db.log.Infof("%ssegment %d committed (seqno=%d)", logging.NSDB, db.appender.Base(), db.appender.Seqno())
		db.appender = nil

		if err := db.openAppender(); err != nil {
			return err
		}
		err = db.appender.AppendBlock(metric, series, points)
	}
	return err
}

// FlushUntilEmpty drains the ring entirely, one FlushOnce call at a
// time, then commits the current segment (if any) to finalize it.
func (db *DB) FlushUntilEmpty() error {
	for !db.ring.IsEmpty() {
		if err := db.FlushOnce(); err != nil {
			return err
		}
	}
	if db.appender != nil && db.appender.IsOpen() {
		if err := db.appender.Commit(segment.TypeData); err != nil {
			return err
		}
		db.log.Infof("%ssegment %d committed (seqno=%d)", logging.NSDB, db.appender.Base(), db.appender.Seqno())
		db.appender = nil
	}
	return nil
}

// scanSegmentLatest decodes blocks sequentially within one segment's
// pre-header region until recordCount points have been consumed,
// tracking the maximum-timestamp sample matching metricID.
func scanSegmentLatest(f *flash.Device, base uint32, recordCount uint32, metricID uint16) (ts uint32, value float32, found bool, err error) {
	preH := segment.PreHeaderBytes(f)

	var off uint32
	var seen uint32
	hdrBuf := make([]byte, segment.BlockHeaderSize)
	ptBuf := make([]byte, segment.PointSize)

	for seen < recordCount && off < preH {
		if off+segment.BlockHeaderSize > preH {
			break
		}
		if err := f.Read(base+off, hdrBuf); err != nil {
			return 0, 0, false, err
		}
		bh := segment.DecodeBlockHeader(hdrBuf)
		off += segment.BlockHeaderSize

		for i := uint32(0); i < bh.PointCount; i++ {
			if off+segment.PointSize > preH {
				return 0, 0, false, fmt.Errorf("pointdb: block overruns pre-header at base %d: %w", base, status.ErrCorrupt)
			}
			if err := f.Read(base+off, ptBuf); err != nil {
				return 0, 0, false, err
			}
			pt := segment.DecodePoint(ptBuf)
			off += segment.PointSize

			if bh.MetricID == metricID && pt.TS >= ts {
				ts = pt.TS
				value = pt.Value
				found = true
			}
			seen++
			if seen >= recordCount {
				break
			}
		}
	}
	return ts, value, found, nil
}

// QueryLatest returns the sample with the maximum timestamp recorded
// for metricID across the committed segments the recovery scan returns,
// which are at most Options.MaxScanSegments, taken in ascending base
// order. Returns ErrMetricUnknown if none of them contains a sample for
// that metric.
func (db *DB) QueryLatest(metricID uint16) (ts uint32, value float32, err error) {
	summaries, err := recovery.ScanAll(db.flash, db.maxScanSegments)
	if err != nil {
		return 0, 0, err
	}

	var found bool
	for _, s := range summaries {
		segTS, segVal, segFound, err := scanSegmentLatest(db.flash, s.Base, s.RecordCount, metricID)
		if err != nil {
			continue
		}
		if segFound && (!found || segTS >= ts) {
			ts = segTS
			value = segVal
			found = true
		}
	}
	if !found {
		return 0, 0, status.ErrMetricUnknown
	}
	return ts, value, nil
}

// RingLoad returns the current number of samples queued in the ring,
// for monitoring/backpressure decisions.
func (db *DB) RingLoad() uint32 { return db.ring.Len() }
