// Package flashsim is test tooling for simulating power loss against a
// flash.Device: take a snapshot mid-sequence, let the write under test
// continue, then restore the snapshot to roll the device back to that
// point and run a recovery scan against it as if the process had
// restarted right there.
//
// Reference: rockyardkv's internal/testutil/syncpoint.go, which captures
// state at a named point so a test can stop execution and inspect it.
// This package borrows that "capture a point, then tear the test back to
// it" shape without the concurrency machinery syncpoint needs, since the
// append path under test here is single-threaded.
package flashsim

import "github.com/embeddb/pointdb/flash"

// Snapshot is a point-in-time copy of a flash.Device's raw contents.
type Snapshot struct {
	mem []byte
}

// Take captures f's current byte contents.
func Take(f *flash.Device) Snapshot {
	return Snapshot{mem: f.RawBytes()}
}

// Restore overwrites f with the snapshot's captured contents,
// simulating a restart after power was lost at the instant Take was
// called — any Program or EraseSector calls made on f between Take and
// Restore are undone.
func (s Snapshot) Restore(f *flash.Device) error {
	return f.RestoreRawBytes(s.mem)
}
