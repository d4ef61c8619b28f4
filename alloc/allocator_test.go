package alloc

import (
	"errors"
	"testing"

	"github.com/embeddb/pointdb/flash"
	"github.com/embeddb/pointdb/internal/status"
	"github.com/embeddb/pointdb/segment"
)

func newTestFlash(t *testing.T, sectors uint32) *flash.Device {
	t.Helper()
	f, err := flash.New(flash.Options{
		TotalBytes:  sectors * 4096,
		SectorBytes: 4096,
		ProgBytes:   256,
		ErasedVal:   0xFF,
	})
	if err != nil {
		t.Fatalf("flash.New: %v", err)
	}
	return f
}

// Property 8: consecutive acquires return strictly different bases until
// no-space; bad sectors are never returned; free sectors come back in
// rotation order starting at next_index.
func TestAcquire_RotatesAndSkipsBad(t *testing.T) {
	f := newTestFlash(t, 4)
	if err := f.MarkBad(1, true); err != nil {
		t.Fatalf("MarkBad: %v", err)
	}
	a, err := New(f)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seen := map[uint32]bool{}
	var order []uint32
	for i := 0; i < 3; i++ {
		base, err := a.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if seen[base] {
			t.Fatalf("Acquire returned duplicate base %d", base)
		}
		seen[base] = true
		order = append(order, base)

		// Commit the segment so it's no longer "free"; Acquire has no
		// side effect of its own beyond advancing next_index.
		if err := segment.WriteBlock(f, base, 1, 0, []segment.Point{{TS: 1, Value: 1}}, uint32(i)); err != nil {
			t.Fatalf("WriteBlock %d: %v", i, err)
		}
	}

	want := []uint32{0, 2 * 4096, 3 * 4096}
	for i, w := range want {
		if order[i] != w {
			t.Errorf("order[%d] = %d, want %d", i, order[i], w)
		}
	}

	// Exhausted: sector 1 is bad, others all now committed.
	if _, err := a.Acquire(); !errors.Is(err, status.ErrNoSpace) {
		t.Errorf("Acquire after exhaustion: want ErrNoSpace, got %v", err)
	}
}

func TestAcquire_OnlyReturnsFreeSegments(t *testing.T) {
	f := newTestFlash(t, 2)
	// Commit segment 0 directly so it's no longer "free".
	if err := segment.WriteBlock(f, 0, 1, 0, []segment.Point{{TS: 1, Value: 1}}, 1); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	a, err := New(f)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base, err := a.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if base != 4096 {
		t.Errorf("Acquire returned committed segment %d, want 4096", base)
	}
}

func TestAcquire_AllBadIsNoSpace(t *testing.T) {
	f := newTestFlash(t, 2)
	if err := f.MarkBad(0, true); err != nil {
		t.Fatalf("MarkBad: %v", err)
	}
	if err := f.MarkBad(1, true); err != nil {
		t.Fatalf("MarkBad: %v", err)
	}
	a, err := New(f)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Acquire(); !errors.Is(err, status.ErrNoSpace) {
		t.Errorf("want ErrNoSpace, got %v", err)
	}
}
