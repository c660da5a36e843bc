package grid

import (
	"testing"

	"github.com/weathergod/scanradsim/radar/units"
)

func TestRadialAgeUntouchedIsMaxDuration(t *testing.T) {
	r := NewRadialAge(10, 4)
	if age := r.Age(0, 0, units.Timestamp(1000)); age != units.MaxDuration {
		t.Fatalf("Age() on untouched radial = %v, want MaxDuration", age)
	}
}

func TestRadialAgeTracksLastTouch(t *testing.T) {
	r := NewRadialAge(10, 4)
	r.Touch(2, 3, units.Timestamp(1000))
	if age := r.Age(2, 3, units.Timestamp(1500)); age != units.Microseconds(500) {
		t.Fatalf("Age() = %v, want 500us", age)
	}
	r.Touch(2, 3, units.Timestamp(1400))
	if age := r.Age(2, 3, units.Timestamp(1500)); age != units.Microseconds(100) {
		t.Fatalf("Age() after re-touch = %v, want 100us", age)
	}
}

func TestUpdateCountIncrements(t *testing.T) {
	u := NewUpdateCount(10, 4)
	if u.Count(1, 1) != 0 {
		t.Fatalf("Count() on untouched radial = %d, want 0", u.Count(1, 1))
	}
	u.Increment(1, 1)
	u.Increment(1, 1)
	u.Increment(1, 2)
	if u.Count(1, 1) != 2 {
		t.Fatalf("Count(1,1) = %d, want 2", u.Count(1, 1))
	}
	if u.Count(1, 2) != 1 {
		t.Fatalf("Count(1,2) = %d, want 1", u.Count(1, 2))
	}
}

func TestVolumeAtAndSet(t *testing.T) {
	shape := [3]int{2, 3, 4}
	vals := make([]float32, 2*3*4)
	v := NewVolume(units.Timestamp(0), vals, shape)
	v.Set(1, 2, 3, 42)
	if got := v.At(1, 2, 3); got != 42 {
		t.Fatalf("At(1,2,3) = %v, want 42", got)
	}
	if got := v.At(0, 0, 0); got != 0 {
		t.Fatalf("At(0,0,0) = %v, want 0", got)
	}
}
