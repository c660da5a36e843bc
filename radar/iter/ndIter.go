package iter

// axis holds the precomputed, cyclic sequence of Slice windows for one grid
// axis. The sequence never changes after construction; only the current
// index into it moves.
type axis struct {
	windows []Slice
}

func (a axis) at(i int) Slice { return a.windows[i] }

// BaseNDIter produces successive SliceTuples by advancing a per-axis set of
// cyclic sub-iterators in a configured cycle order (innermost axis first).
// When the outermost axis in that order wraps, iteration either ends
// (doCycle == false) or continues indefinitely (doCycle == true).
type BaseNDIter struct {
	axes    []axis
	counts  []int
	order   []int
	doCycle bool

	idx     []int
	started bool
	done    bool
}

// NewBaseNDIter builds an iterator from explicit per-axis cyclic Slice
// sequences. order lists axis indices innermost-first: the first axis in
// order advances on every call, carrying into the next axis in order when it
// wraps past its window count, and so on. Axes not present in order are held
// fixed at their first window forever (used by ChunkIter for the
// never-subdivided last axis).
func NewBaseNDIter(axisWindows [][]Slice, order []int, doCycle bool) *BaseNDIter {
	axes := make([]axis, len(axisWindows))
	counts := make([]int, len(axisWindows))
	for i, w := range axisWindows {
		if len(w) == 0 {
			w = []Slice{{}}
		}
		axes[i] = axis{windows: w}
		counts[i] = len(w)
	}
	return &BaseNDIter{
		axes:    axes,
		counts:  counts,
		order:   order,
		doCycle: doCycle,
		idx:     make([]int, len(axisWindows)),
	}
}

// Len reports the total number of distinct SliceTuples in one full cycle:
// the product of the window counts of every axis present in the cycle order.
func (b *BaseNDIter) Len() int {
	n := 1
	for _, axisIdx := range b.order {
		n *= b.counts[axisIdx]
	}
	return n
}

func (b *BaseNDIter) current() SliceTuple {
	t := make(SliceTuple, len(b.axes))
	for i, a := range b.axes {
		t[i] = a.at(b.idx[i])
	}
	return t
}

// Next returns the next SliceTuple in the tiling, or (nil, false) once a
// non-cycling iterator has completed one full pass.
func (b *BaseNDIter) Next() (SliceTuple, bool) {
	if b.done {
		return nil, false
	}
	if !b.started {
		b.started = true
		return b.current(), true
	}
	if len(b.order) == 0 {
		return b.current(), true
	}
	last := b.order[len(b.order)-1]
	for _, axisIdx := range b.order {
		b.idx[axisIdx]++
		if b.idx[axisIdx] < b.counts[axisIdx] {
			return b.current(), true
		}
		if axisIdx == last {
			if !b.doCycle {
				b.done = true
				return nil, false
			}
		}
		b.idx[axisIdx] = 0
	}
	return b.current(), true
}

// AxisIndex reports the current window index of the given axis and whether
// the iterator has produced at least one value yet. VCP-style jobs use this
// to look up the dwell time/PRT associated with the currently active
// elevation cut without needing a dedicated accessor per job type.
func (b *BaseNDIter) AxisIndex(axisIdx int) (idx int, started bool) {
	return b.idx[axisIdx], b.started
}

// Clone returns an independent copy of b positioned at the same point in its
// cycle, without perturbing b's own cursor. Used by job.Job implementations
// that need to peek the remaining schedule (e.g. computing a StaticJob's
// cycle time) without advancing the live radial iterator.
func (b *BaseNDIter) Clone() *BaseNDIter {
	idx := make([]int, len(b.idx))
	copy(idx, b.idx)
	return &BaseNDIter{
		axes:    b.axes,
		counts:  b.counts,
		order:   b.order,
		doCycle: b.doCycle,
		idx:     idx,
		started: b.started,
		done:    b.done,
	}
}
