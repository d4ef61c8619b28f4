package pointdb

import (
	"fmt"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/logging"
	"github.com/embeddb/pointdb/internal/status"
)

// maxScanSegmentsDefault bounds how many committed segments QueryLatest
// will inspect. The original embedded implementation hardcoded this at
// 16 via a fixed-size stack buffer; here it is a configurable default,
// raised to cover larger devices, with the bound documented rather than
// silently imposed.
const maxScanSegmentsDefault = 64

// blockMaxPointsDefault caps how many same-series points FlushOnce packs
// into a single block per call.
const blockMaxPointsDefault = 128

// Options configures a DB.
type Options struct {
	// Flash is the backing device. Required.
	Flash *flash.Device

	// RingCapacity is the SPSC ring's element capacity. Zero selects the
	// default of 256; any other value that is not a power of two is
	// rounded up to the next power of two.
	RingCapacity uint32

	// SeqStart is the initial segment sequence number handed to the
	// first opened appender.
	SeqStart uint32

	// MaxScanSegments bounds how many committed segments QueryLatest
	// inspects. Zero means use the default of 64.
	MaxScanSegments int

	// BlockMaxPoints caps how many points FlushOnce packs into a single
	// block. Zero means use the default of 128.
	BlockMaxPoints int

	// Logger receives diagnostic messages. Nil means discard.
	Logger logging.Logger
}

func nextPow2(x uint32) uint32 {
	if x == 0 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}

// Validate fills in defaults and checks required fields.
func (o *Options) Validate() error {
	if o.Flash == nil {
		return fmt.Errorf("pointdb: Options.Flash is required: %w", status.ErrInvalidArg)
	}
	o.Logger = logging.OrDefault(o.Logger)

	if o.RingCapacity == 0 {
		o.RingCapacity = 256
	} else if o.RingCapacity&(o.RingCapacity-1) != 0 {
		rounded := nextPow2(o.RingCapacity)
		o.Logger.Infof("%sRingCapacity %d is not a power of two, rounding up to %d", logging.NSDB, o.RingCapacity, rounded)
		o.RingCapacity = rounded
	}
	if o.MaxScanSegments == 0 {
		o.MaxScanSegments = maxScanSegmentsDefault
	}
	if o.BlockMaxPoints == 0 {
		o.BlockMaxPoints = blockMaxPointsDefault
	}
	return nil
}
