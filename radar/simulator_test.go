package radar

import (
	"math"
	"testing"

	"github.com/weathergod/scanradsim/radar/grid"
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

func makeVolume(t units.Timestamp, fill float32, shape [3]int) *grid.Volume {
	n := shape[0] * shape[1] * shape[2]
	vals := make([]float32, n)
	for i := range vals {
		vals[i] = fill
	}
	return grid.NewVolume(t, vals, shape)
}

func TestNewRejectsFewerThanTwoFrames(t *testing.T) {
	shape := [3]int{1, 1, 1}
	_, err := New([]*grid.Volume{makeVolume(0, 0, shape)}, Config{})
	if err != ErrInsufficientFrames {
		t.Fatalf("New() error = %v, want ErrInsufficientFrames", err)
	}
}

func TestCurrentViewStartsAllNaN(t *testing.T) {
	shape := [3]int{2, 2, 2}
	frames := []*grid.Volume{
		makeVolume(units.Timestamp(0), 10, shape),
		makeVolume(units.Timestamp(1_000_000), 20, shape),
	}
	s, err := New(frames, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, v := range s.CurrentView() {
		if !math.IsNaN(float64(v)) {
			t.Fatalf("CurrentView()[%d] = %v, want NaN before any task completes", i, v)
		}
	}
}

func TestUpdateInterpolatesCompletedTaskRegion(t *testing.T) {
	shape := [3]int{1, 1, 1}
	frames := []*grid.Volume{
		makeVolume(units.Timestamp(0), 10, shape),
		makeVolume(units.Timestamp(1_000_000), 30, shape),
	}
	s, err := New(frames, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tup := iter.SliceTuple{
		{Start: 0, Stop: 1, Step: 1},
		{Start: 0, Stop: 1, Step: 1},
		{Start: 0, Stop: 1, Step: 1},
	}
	op := &job.Operation{Slice: tup}

	ok := s.Update(units.Timestamp(500_000), []*job.Operation{op}, nil)
	if !ok {
		t.Fatal("Update() returned false unexpectedly")
	}
	if !op.Running {
		t.Fatal("Update() should mark the task Running after applying it")
	}
	want := float32(20) // halfway between 10 and 30
	if got := s.CurrentView()[0]; got != want {
		t.Fatalf("CurrentView()[0] = %v, want %v", got, want)
	}
	if age := s.RadialAge().Age(0, 0, units.Timestamp(500_000)); age != 0 {
		t.Fatalf("RadialAge = %v, want 0 (just touched)", age)
	}
	if s.UpdateCount().Count(0, 0) != 1 {
		t.Fatalf("UpdateCount = %d, want 1", s.UpdateCount().Count(0, 0))
	}

	// Already-running tasks are left alone on a subsequent call.
	op.Running = true
	s.currView[0] = 99
	s.Update(units.Timestamp(600_000), []*job.Operation{op}, nil)
	if s.CurrentView()[0] != 99 {
		t.Fatal("Update() touched an already-running task's region")
	}
}

func TestUpdateReturnsFalseWhenSequenceExhausted(t *testing.T) {
	shape := [3]int{1, 1, 1}
	frames := []*grid.Volume{
		makeVolume(units.Timestamp(0), 10, shape),
		makeVolume(units.Timestamp(1_000_000), 30, shape),
	}
	s, err := New(frames, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ok := s.Update(units.Timestamp(2_000_000), nil, nil); ok {
		t.Fatal("Update() should return false once past the last frame pair")
	}
	if ok := s.Update(units.Timestamp(3_000_000), nil, nil); ok {
		t.Fatal("Update() should keep returning false once exhausted")
	}
}
