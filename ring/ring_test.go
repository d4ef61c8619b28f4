package ring

import (
	"math/rand"
	"sync"
	"testing"
)

func TestNew_RejectsNonPowerOfTwo(t *testing.T) {
	if New[int](3) != nil {
		t.Error("New(3) should return nil")
	}
	if New[int](0) != nil {
		t.Error("New(0) should return nil")
	}
	if New[int](8) == nil {
		t.Error("New(8) should succeed")
	}
}

func TestPushPop_Basic(t *testing.T) {
	r := New[int](4)
	if n := r.Push([]int{1, 2, 3}); n != 3 {
		t.Fatalf("Push = %d, want 3", n)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	out := make([]int, 2)
	if n := r.Pop(out); n != 2 {
		t.Fatalf("Pop = %d, want 2", n)
	}
	if out[0] != 1 || out[1] != 2 {
		t.Errorf("Pop contents = %v, want [1 2]", out)
	}
}

func TestPush_StopsAtCapacity(t *testing.T) {
	r := New[int](4)
	if n := r.Push([]int{1, 2, 3, 4, 5}); n != 4 {
		t.Fatalf("Push = %d, want 4 (capped)", n)
	}
	if !r.IsFull() {
		t.Error("ring should be full")
	}
	if n := r.Push([]int{6}); n != 0 {
		t.Errorf("Push on full ring = %d, want 0", n)
	}
}

func TestPop_EmptyReturnsZero(t *testing.T) {
	r := New[int](4)
	out := make([]int, 2)
	if n := r.Pop(out); n != 0 {
		t.Errorf("Pop on empty = %d, want 0", n)
	}
	if !r.IsEmpty() {
		t.Error("fresh ring should be empty")
	}
}

func TestWraparound(t *testing.T) {
	r := New[int](4)
	r.Push([]int{1, 2, 3})
	out := make([]int, 3)
	r.Pop(out)
	// Now head=3, tail=3. Push 3 more, which wraps around the backing array.
	if n := r.Push([]int{4, 5, 6}); n != 3 {
		t.Fatalf("Push after wrap = %d, want 3", n)
	}
	got := make([]int, 3)
	if n := r.Pop(got); n != 3 {
		t.Fatalf("Pop after wrap = %d, want 3", n)
	}
	want := []int{4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPeek_DoesNotConsume(t *testing.T) {
	r := New[int](4)
	r.Push([]int{42})
	v, ok := r.Peek()
	if !ok || v != 42 {
		t.Fatalf("Peek = (%d, %v), want (42, true)", v, ok)
	}
	if r.Len() != 1 {
		t.Error("Peek should not consume the element")
	}
}

func TestClear(t *testing.T) {
	r := New[int](4)
	r.Push([]int{1, 2})
	r.Clear()
	if !r.IsEmpty() {
		t.Error("ring should be empty after Clear")
	}
}

// Property 6: for any interleaving of single-producer pushes and
// single-consumer pops totaling N, the consumer receives exactly the
// concatenation of what was pushed, in order, no duplicates, no losses.
func TestSPSC_ConcurrentProducerConsumer(t *testing.T) {
	const capacity = 64
	const total = 20000

	r := New[int](capacity)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(1))
		i := 0
		for i < total {
			batch := 1 + rng.Intn(8)
			if i+batch > total {
				batch = total - i
			}
			elems := make([]int, batch)
			for j := range elems {
				elems[j] = i + j
			}
			pushed := 0
			for pushed < len(elems) {
				n := r.Push(elems[pushed:])
				pushed += int(n)
			}
			i += batch
		}
	}()

	got := make([]int, 0, total)
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(2))
		buf := make([]int, 16)
		for len(got) < total {
			n := r.Pop(buf[:1+rng.Intn(15)])
			got = append(got, buf[:n]...)
		}
	}()

	wg.Wait()

	if len(got) != total {
		t.Fatalf("received %d elements, want %d", len(got), total)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("element %d = %d, want %d (order/loss/duplicate violation)", i, v, i)
		}
	}
}
