package iter

// NewChunkIter picks a single non-last axis of gridShape to subdivide into
// near-equal chunks of (approximately) the requested size, visits every
// other non-last axis one grid index at a time, and always emits the
// restricting slice for the last axis (the range-gate axis) unchanged —
// ScanRadSim never subdivides range gates.
//
// The chunk axis is chosen the same way the reference implementation does:
// for every non-last axis, compute fits, extra := divmod(axisLen, chunk).
// If any axis fits exactly (extra == 0), the first such axis wins, even
// one with fits == 0 (a zero-length axis). Otherwise every axis competes on
// packing efficiency (extra + chunk*fits) / (chunk*(fits+1)), and the
// argmax wins, using one extra, undersized chunk to finish the axis.
// NewChunkIter fails only when every axis's fits is zero, i.e. the chunk
// size exceeds every candidate axis outright.
//
// restrict, if non-nil, supplies the slice to honor per axis in place of the
// full axis range (e.g. a detected feature's bounding box). doCycle controls
// whether the returned iterator repeats indefinitely once one full pass
// completes; callers building the seed for job.NewStaticJob pass false
// here, since that job wraps the seed in its own repeat.
func NewChunkIter(gridShape []int, chunk int, restrict SliceTuple, doCycle bool) (*BaseNDIter, error) {
	if chunk <= 0 {
		return nil, ErrInvalidChunk
	}
	n := len(gridShape)
	if n < 2 {
		return nil, ErrInvalidChunk
	}

	bounds := make([]Slice, n)
	for i := 0; i < n; i++ {
		if restrict != nil && i < len(restrict) {
			bounds[i] = restrict[i]
		} else {
			bounds[i] = Full(gridShape[i])
		}
	}

	type fit struct{ fits, extra int }
	fits := make([]fit, n-1)
	allZero := true
	for i := 0; i < n-1; i++ {
		length := bounds[i].Len()
		f, e := length/chunk, length%chunk
		fits[i] = fit{f, e}
		if f != 0 {
			allZero = false
		}
	}
	if allZero {
		return nil, ErrInvalidChunk
	}

	chunkAxis, chunkCount := -1, 0
	for i, f := range fits {
		if f.extra == 0 {
			chunkAxis, chunkCount = i, f.fits
			break
		}
	}
	if chunkAxis == -1 {
		bestPacking := -1.0
		for i, f := range fits {
			packing := (float64(f.extra) + float64(chunk)*float64(f.fits)) /
				(float64(chunk) * float64(f.fits+1))
			if packing > bestPacking {
				bestPacking = packing
				chunkAxis, chunkCount = i, f.fits+1
			}
		}
	}

	axes := make([][]Slice, n)
	order := make([]int, 0, n-1)
	order = append(order, chunkAxis)
	for i := 0; i < n-1; i++ {
		b := bounds[i]
		if i == chunkAxis {
			axes[i] = withSign(windowsEvenSplit(b.Start, b.Stop, chunkCount), b.Step)
			continue
		}
		axes[i] = withSign(windowsFixed(b.Start, b.Stop, 1), b.Step)
		order = append(order, i)
	}
	axes[n-1] = []Slice{bounds[n-1]}

	return NewBaseNDIter(axes, order, doCycle), nil
}
