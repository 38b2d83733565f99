package bus

import (
	"fmt"
	"testing"
)

func TestRingOrderAcrossWraparound(t *testing.T) {
	r := newWordRing(8)
	if !r.Push([]uint32{1, 2, 3, 4, 5}) {
		t.Fatal("push of 5 into empty ring of 8 failed")
	}
	out := make([]uint32, 3)
	if n := r.Pop(out); n != 3 {
		t.Fatalf("popped %d words, wanted 3", n)
	}
	// Tail is now past the midpoint, so this push wraps.
	if !r.Push([]uint32{6, 7, 8, 9, 10}) {
		t.Fatal("wrapping push failed with 6 words free")
	}
	want := []uint32{4, 5, 6, 7, 8, 9, 10}
	got := make([]uint32, 7)
	if n := r.Pop(got); n != 7 {
		t.Fatalf("popped %d words, wanted 7", n)
	}
	for i := range want {
		if got[i] != want[i] {
			fmt.Printf("word %d: got %d, want %d\n", i, got[i], want[i])
			t.Fail()
		}
	}
	if r.Len() != 0 {
		t.Errorf("ring holds %d words after full drain", r.Len())
	}
}

func TestRingPushIsAllOrNothing(t *testing.T) {
	r := newWordRing(4)
	if !r.Push([]uint32{1, 2, 3}) {
		t.Fatal("push of 3 into ring of 4 failed")
	}
	if r.Push([]uint32{4, 5}) {
		t.Fatal("push of 2 with only 1 word free succeeded")
	}
	if r.Len() != 3 {
		t.Errorf("rejected push changed ring length to %d", r.Len())
	}
	out := make([]uint32, 4)
	if n := r.Pop(out); n != 3 {
		t.Errorf("popped %d words, wanted the 3 stored before the reject", n)
	}
}

func TestRingShortPop(t *testing.T) {
	r := newWordRing(6)
	r.Push([]uint32{9, 8})
	out := make([]uint32, 5)
	if n := r.Pop(out); n != 2 {
		t.Fatalf("popped %d words from ring holding 2", n)
	}
	if out[0] != 9 || out[1] != 8 {
		t.Errorf("popped %v, want leading 9, 8", out[:2])
	}
}
