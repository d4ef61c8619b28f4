// Package status defines the closed set of result codes shared by every
// layer of the flash log, mirrored as Go sentinel errors so callers use
// errors.Is rather than comparing integer codes.
//
// The set is closed deliberately: a handful of these (RETRY, TooManySeries,
// InvalidRange, FlashWear, Unsupported, IterEnd) are reserved for future
// transports or features and are never returned by this package's own
// code today, but they stay part of the taxonomy so callers written
// against it don't need to change when those features land.
package status

import "errors"

var (
	// ErrBusy is returned when the SPSC ring is full on Write.
	ErrBusy = errors.New("status: ring is full")

	// ErrRetry is reserved for transient transport failures; unused in
	// this in-memory/NOR-flash implementation.
	ErrRetry = errors.New("status: retry")

	// ErrNoSpace is returned when no free segment is available, or a
	// block cannot fit into the current segment's pre-header region.
	ErrNoSpace = errors.New("status: no space")

	// ErrMetricUnknown is returned when a query finds no matching sample.
	ErrMetricUnknown = errors.New("status: metric unknown")

	// ErrTooManySeries is reserved; unused in the core implementation.
	ErrTooManySeries = errors.New("status: too many series")

	// ErrInvalidRange is reserved; unused in the core implementation.
	ErrInvalidRange = errors.New("status: invalid range")

	// ErrCorrupt is returned on magic/version mismatch, CRC mismatch, or
	// when verify finds no header present at all.
	ErrCorrupt = errors.New("status: corrupt segment")

	// ErrFlashIO is returned when a bad sector intersects a read, program,
	// or erase.
	ErrFlashIO = errors.New("status: flash i/o error")

	// ErrFlashWear is reserved; unused in the core implementation.
	ErrFlashWear = errors.New("status: flash wear exceeded")

	// ErrInvalidArg is returned for alignment violations, out-of-bounds
	// access, an attempted 0-to-1 bit transition, or a nil/empty input.
	ErrInvalidArg = errors.New("status: invalid argument")

	// ErrUnsupported is reserved; unused in the core implementation.
	ErrUnsupported = errors.New("status: unsupported")

	// ErrIterEnd is reserved; unused in the core implementation.
	ErrIterEnd = errors.New("status: iterator end")
)
