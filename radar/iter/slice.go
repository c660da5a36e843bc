// Package iter provides the N-dimensional chunked slice iterators used to
// carve a radar grid (elevation x azimuth x range-gate) into time-bounded
// scan tasks. It has no notion of scan timing; it only produces SliceTuple
// values that describe rectangular sub-regions of a grid.
package iter

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidChunk is returned when a chunk size is non-positive, a grid rank
// is too small to chunk, or no axis can fit the requested chunk size at all.
var ErrInvalidChunk = errors.New("iter: invalid chunk size")

// Slice is a half-open interval over one grid axis. Start and Stop are
// always normalized so that 0 <= Start <= Stop <= axis size; Step is the
// caller's signed stride, its sign giving the traversal direction (see
// Indices for the members a stride wider than 1 selects).
type Slice struct {
	Start, Stop, Step int
}

// Len reports the number of indices covered by s.
func (s Slice) Len() int {
	step := s.Step
	if step == 0 {
		step = 1
	}
	n := s.Stop - s.Start
	if n <= 0 {
		return 0
	}
	if step < 0 {
		step = -step
	}
	return (n + step - 1) / step
}

// Indices enumerates the grid indices covered by s. For a positive step they
// are produced ascending from Start; for a negative step, descending from
// Stop-1. With a stride of magnitude 1 both directions cover the same
// indices; with a wider stride the members depend on the direction.
func (s Slice) Indices() []int {
	step := s.Step
	if step == 0 {
		step = 1
	}
	abs := step
	if abs < 0 {
		abs = -abs
	}
	out := make([]int, 0, s.Len())
	if step >= 0 {
		for i := s.Start; i < s.Stop; i += abs {
			out = append(out, i)
		}
		return out
	}
	for i := s.Stop - 1; i >= s.Start; i -= abs {
		out = append(out, i)
	}
	return out
}

func (s Slice) String() string {
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Stop, s.Step)
}

// Contains reports whether idx falls within this axis's window.
func (s Slice) Contains(idx int) bool {
	return idx >= s.Start && idx < s.Stop
}

// unset is the sentinel passed to NewAxis for a start/stop bound that should
// take its Python slice.indices()-style default.
const unset = int(^uint(0) >> 1) // math.MaxInt, kept local to avoid an import

// Unset is the sentinel value for NewAxis's start/stop parameters meaning
// "not given" (Python's `None` in the source this iterator is grounded on).
const Unset = unset

// NewAxis resolves a (start, stop, step) triple against an axis of the given
// size, following CPython's slice.indices() bound resolution (negative
// indices count from the end, out-of-range bounds clamp, Unset takes the
// direction-appropriate default), then folds the direction-aware result into
// Slice's ascending (Start, Stop) + signed Step representation.
func NewAxis(start, stop, step, size int) Slice {
	if step == 0 {
		step = 1
	}

	st := resolveBound(start, step, size, true)
	sp := resolveBound(stop, step, size, false)

	if step > 0 {
		if sp < st {
			sp = st
		}
		return Slice{Start: st, Stop: sp, Step: step}
	}
	// Negative step traverses from st down to sp+1 (sp itself excluded).
	lo, hi := sp+1, st+1
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	if hi > size {
		hi = size
	}
	return Slice{Start: lo, Stop: hi, Step: step}
}

func resolveBound(v, step, size int, isStart bool) int {
	if v == unset {
		switch {
		case isStart && step > 0:
			return 0
		case isStart:
			return size - 1
		case step > 0:
			return size
		default:
			return -1
		}
	}
	if v < 0 {
		v += size
		if v < 0 {
			if step > 0 {
				return 0
			}
			return -1
		}
		return v
	}
	if v >= size {
		if step > 0 {
			return size
		}
		return size - 1
	}
	return v
}

// Full returns the Slice spanning an entire axis of the given size, traversed
// forward.
func Full(size int) Slice {
	return NewAxis(Unset, Unset, 1, size)
}

// SliceTuple is a fixed-length tuple of Slice, one per grid axis.
type SliceTuple []Slice

// Clone returns an independent copy of t.
func (t SliceTuple) Clone() SliceTuple {
	out := make(SliceTuple, len(t))
	copy(out, t)
	return out
}

// RadialCount returns the product of the lengths of every axis except the
// last (the range-gate axis, which the task scheduler never subdivides and
// which therefore never counts as a "radial").
func (t SliceTuple) RadialCount() int {
	if len(t) == 0 {
		return 0
	}
	n := 1
	for _, s := range t[:len(t)-1] {
		n *= s.Len()
	}
	return n
}

// AzimuthWidth returns the length of the azimuth axis (axis index 1), the
// convention used throughout the grid layout (elevation, azimuth, range).
func (t SliceTuple) AzimuthWidth() int {
	if len(t) < 2 {
		return 0
	}
	return t[1].Len()
}

// Contains reports whether idx, one index per axis, falls within every
// corresponding axis window.
func (t SliceTuple) Contains(idx ...int) bool {
	if len(idx) != len(t) {
		return false
	}
	for i, v := range idx {
		if !t[i].Contains(v) {
			return false
		}
	}
	return true
}

// BoundingBox returns the (min, max) corners of the tuple's elevation and
// azimuth axes as a pair of mgl64.Vec2.
func (t SliceTuple) BoundingBox() (min, max mgl64.Vec2) {
	if len(t) < 2 {
		return mgl64.Vec2{}, mgl64.Vec2{}
	}
	min = mgl64.Vec2{float64(t[0].Start), float64(t[1].Start)}
	max = mgl64.Vec2{float64(t[0].Stop - 1), float64(t[1].Stop - 1)}
	return min, max
}
