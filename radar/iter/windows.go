package iter

// windowsFixed partitions [lo, hi) into consecutive ascending windows of
// width `width`; the final window is narrower if width does not evenly
// divide the span. width <= 0 is treated as 1 (used for the "one index at a
// time" axes ChunkIter visits outside its chosen chunk axis).
func windowsFixed(lo, hi, width int) []Slice {
	if width <= 0 {
		width = 1
	}
	if hi <= lo {
		return []Slice{{Start: lo, Stop: lo, Step: 1}}
	}
	out := make([]Slice, 0, (hi-lo+width-1)/width)
	for start := lo; start < hi; start += width {
		stop := start + width
		if stop > hi {
			stop = hi
		}
		out = append(out, Slice{Start: start, Stop: stop, Step: 1})
	}
	return out
}

// windowsEvenSplit divides [lo, hi) into exactly `count` ascending windows of
// near-equal size: the first (hi-lo)%count windows get one extra element, as
// ChunkIter's chosen chunk axis is split.
func windowsEvenSplit(lo, hi, count int) []Slice {
	if count <= 0 {
		count = 1
	}
	total := hi - lo
	if total < 0 {
		total = 0
	}
	each, extra := total/count, total%count
	out := make([]Slice, 0, count)
	cur := lo
	for i := 0; i < count; i++ {
		size := each
		if i < extra {
			size++
		}
		out = append(out, Slice{Start: cur, Stop: cur + size, Step: 1})
		cur += size
	}
	return out
}

// withSign overwrites the Step field of each window with the sign of step,
// preserving the caller's requested traversal direction for introspection
// without altering which indices any window covers.
func withSign(ws []Slice, step int) []Slice {
	sign := 1
	if step < 0 {
		sign = -1
	}
	out := make([]Slice, len(ws))
	for i, w := range ws {
		w.Step = sign
		out[i] = w
	}
	return out
}
