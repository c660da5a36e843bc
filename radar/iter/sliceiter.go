package iter

import "fmt"

// NewSliceIter builds an axis-aligned iterator directly from per-axis
// (start, stop, width) triples, where width is the number of grid indices
// each step advances along that axis — not a strided slice step. This is
// the windowing Surveillance jobs use: a fixed azimuth chunk width, the
// elevation axis visited one index at a time, and the range-gate axis as a
// single whole window (width equal to its own length).
func NewSliceIter(starts, stops, widths []int, order []int, doCycle bool) (*BaseNDIter, error) {
	if len(starts) != len(stops) || len(stops) != len(widths) {
		return nil, fmt.Errorf("iter: mismatched axis lengths building slice iterator")
	}
	axes := make([][]Slice, len(starts))
	for i := range starts {
		axes[i] = windowsFixed(starts[i], stops[i], widths[i])
	}
	return NewBaseNDIter(axes, order, doCycle), nil
}
