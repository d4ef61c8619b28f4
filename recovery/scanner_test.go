package recovery

import (
	"reflect"
	"testing"

	"github.com/embeddb/pointdb/flash"
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

func TestScanAll_EmptyDeviceReturnsZero(t *testing.T) {
	f := newTestFlash(t, 3)
	got, err := ScanAll(f, 0)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d summaries on empty device, want 0", len(got))
	}
}

func TestScanAll_SkipsUncommittedCorruptAndBad(t *testing.T) {
	f := newTestFlash(t, 4)

	// Segment 0: committed, valid.
	if err := segment.WriteBlock(f, 0, 1, 0, []segment.Point{{TS: 1, Value: 1}}, 10); err != nil {
		t.Fatalf("WriteBlock 0: %v", err)
	}

	// Segment 1: left erased (uncommitted).

	// Segment 2: committed then tampered to force a CRC mismatch.
	base2 := uint32(2 * 4096)
	if err := segment.WriteBlock(f, base2, 1, 0, []segment.Point{{TS: 2, Value: 2}}, 11); err != nil {
		t.Fatalf("WriteBlock 2: %v", err)
	}
	tamper := make([]byte, 256)
	for i := range tamper {
		tamper[i] = 0x00
	}
	if err := f.Program(base2, tamper); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	// Segment 3: marked bad after being committed.
	base3 := uint32(3 * 4096)
	if err := segment.WriteBlock(f, base3, 1, 0, []segment.Point{{TS: 3, Value: 3}}, 12); err != nil {
		t.Fatalf("WriteBlock 3: %v", err)
	}
	if err := f.MarkBad(3, true); err != nil {
		t.Fatalf("MarkBad: %v", err)
	}

	got, err := ScanAll(f, 0)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1: %+v", len(got), got)
	}
	if got[0].Base != 0 || got[0].Seqno != 10 {
		t.Errorf("unexpected summary: %+v", got[0])
	}
}

func TestScanAll_AscendingBaseOrder(t *testing.T) {
	f := newTestFlash(t, 3)
	for i, base := range []uint32{0, 4096, 2 * 4096} {
		if err := segment.WriteBlock(f, base, 1, 0, []segment.Point{{TS: uint32(i), Value: 1}}, uint32(i)); err != nil {
			t.Fatalf("WriteBlock %d: %v", i, err)
		}
	}
	got, err := ScanAll(f, 0)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	var bases []uint32
	for _, s := range got {
		bases = append(bases, s.Base)
	}
	want := []uint32{0, 4096, 2 * 4096}
	if !reflect.DeepEqual(bases, want) {
		t.Errorf("bases = %v, want %v", bases, want)
	}
}

// Property 9: scan_all is idempotent.
func TestScanAll_Idempotent(t *testing.T) {
	f := newTestFlash(t, 3)
	for i, base := range []uint32{0, 4096} {
		if err := segment.WriteBlock(f, base, 1, 0, []segment.Point{{TS: uint32(i), Value: 1}}, uint32(i)); err != nil {
			t.Fatalf("WriteBlock %d: %v", i, err)
		}
	}
	first, err := ScanAll(f, 0)
	if err != nil {
		t.Fatalf("ScanAll first: %v", err)
	}
	second, err := ScanAll(f, 0)
	if err != nil {
		t.Fatalf("ScanAll second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ScanAll not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestScanAll_RespectsMaxOut(t *testing.T) {
	f := newTestFlash(t, 3)
	for i, base := range []uint32{0, 4096, 2 * 4096} {
		if err := segment.WriteBlock(f, base, 1, 0, []segment.Point{{TS: uint32(i), Value: 1}}, uint32(i)); err != nil {
			t.Fatalf("WriteBlock %d: %v", i, err)
		}
	}
	got, err := ScanAll(f, 2)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d summaries, want 2 (capped)", len(got))
	}
}
