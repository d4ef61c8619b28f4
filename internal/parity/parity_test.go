package parity

import (
	"math/rand"
	"testing"
)

func TestValueKnown(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint8
	}{
		{"empty", []byte{}, 0},
		{"single", []byte{0x5A}, 0x5A},
		{"pair_cancels", []byte{0xFF, 0xFF}, 0x00},
		{"ascending", []byte{0x01, 0x02, 0x03}, 0x01 ^ 0x02 ^ 0x03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Value(tt.data); got != tt.want {
				t.Errorf("Value(%v) = 0x%02x, want 0x%02x", tt.data, got, tt.want)
			}
		})
	}
}

func TestUpdateMatchesOneShot(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(2048)
		data := make([]byte, n)
		rng.Read(data)

		want := Value(data)

		state := uint8(0)
		off := 0
		for off < len(data) {
			chunk := 1 + rng.Intn(32)
			if off+chunk > len(data) {
				chunk = len(data) - off
			}
			state = Update(state, data[off:off+chunk])
			off += chunk
		}
		if state != want {
			t.Fatalf("trial %d: streaming = 0x%02x, want 0x%02x", trial, state, want)
		}
	}
}
