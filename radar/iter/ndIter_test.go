package iter

import "testing"

func TestBaseNDIterNonCyclingTerminates(t *testing.T) {
	axes := [][]Slice{
		{{Start: 0, Stop: 1, Step: 1}, {Start: 1, Stop: 2, Step: 1}},
		{{Start: 0, Stop: 1, Step: 1}, {Start: 1, Stop: 2, Step: 1}, {Start: 2, Stop: 3, Step: 1}},
	}
	it := NewBaseNDIter(axes, []int{0, 1}, false)
	count := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
		if count > 100 {
			t.Fatal("iterator failed to terminate")
		}
	}
	if count != 6 {
		t.Fatalf("count = %d, want 6 (2x3)", count)
	}
}

func TestBaseNDIterCyclesForever(t *testing.T) {
	axes := [][]Slice{{{Start: 0, Stop: 1, Step: 1}, {Start: 1, Stop: 2, Step: 1}}}
	it := NewBaseNDIter(axes, []int{0}, true)
	for i := 0; i < 10; i++ {
		tup, ok := it.Next()
		if !ok {
			t.Fatalf("iteration %d: cycling iterator stopped", i)
		}
		want := i % 2
		if tup[0].Start != want {
			t.Fatalf("iteration %d: Start = %d, want %d", i, tup[0].Start, want)
		}
	}
}

func TestBaseNDIterFirstCallNeverTerminates(t *testing.T) {
	// A single-window, single-axis, non-cycling iterator must still yield
	// its one value before reporting exhaustion.
	it := NewBaseNDIter([][]Slice{{{Start: 0, Stop: 5, Step: 1}}}, []int{0}, false)
	if _, ok := it.Next(); !ok {
		t.Fatal("first call must succeed even though the single axis is already at its last window")
	}
	if _, ok := it.Next(); ok {
		t.Fatal("second call should exhaust a non-cycling single-window iterator")
	}
}

func TestBaseNDIterClonePreservesSourcePosition(t *testing.T) {
	it := NewBaseNDIter([][]Slice{
		{{Start: 0, Stop: 1, Step: 1}, {Start: 1, Stop: 2, Step: 1}},
	}, []int{0}, true)
	it.Next()
	it.Next() // now at Start=1

	clone := it.Clone()
	clone.Next() // advances the clone only, back to Start=0

	tup, _ := it.Next()
	if tup[0].Start != 0 {
		t.Fatalf("cloning perturbed the source iterator: Start = %d, want 0", tup[0].Start)
	}
}

func TestNewSliceIterFixedWindows(t *testing.T) {
	it, err := NewSliceIter([]int{0, 0, 0}, []int{40, 92, 1000}, []int{1, 5, 1000}, []int{1, 0, 2}, true)
	if err != nil {
		t.Fatalf("NewSliceIter: %v", err)
	}
	// azimuth (axis 1) has 92/5 = 18 full windows + one width-2 remainder.
	if got := it.Len(); got != 40*19 {
		t.Fatalf("Len() = %d, want %d", got, 40*19)
	}
}

func TestNewSliceIterRejectsMismatchedLengths(t *testing.T) {
	if _, err := NewSliceIter([]int{0, 0}, []int{1}, []int{1}, []int{0, 1}, true); err == nil {
		t.Fatal("expected an error for mismatched axis slice lengths")
	}
}
