package adapt

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// reflectivityThreshold is the dBZ value a cell must reach to be considered
// part of a storm feature at all.
const reflectivityThreshold = 35.0

// weakMaxThreshold is the dBZ value a feature's strongest cell must reach
// to survive the Simple (but not SimplePPI/SimpleVol) filter.
const weakMaxThreshold = 40.0

// minRadialCount is the smallest bounding-box radial count a feature may
// have and still be worth a dedicated scan job.
const minRadialCount = 20

// defaultChunkWidth is the ChunkIter chunk size used to carve a feature's
// bounding box into scan chunks, absent a caller override.
const defaultChunkWidth = 5

// defaultUpdatePeriod is the requested update period for a feature-tracking
// StaticJob, absent a caller override.
const defaultUpdatePeriod = units.Duration(20_000_000) // 20s

const (
	featureDwell = units.Duration(64_000)
	featurePrt   = units.Duration(800)
)

// feature is one connected component of above-threshold reflectivity.
type feature struct {
	bbox         iter.SliceTuple
	radialCount  int
	azimuthWidth int
	maxVal       float32
	label        int
}

type labelAgg struct {
	minE, maxE, minA, maxA, minR, maxR int
	count                              int
	maxVal                             float32
	seen                               bool
}

func (a *labelAgg) observe(e, az, r int, v float32) {
	if !a.seen {
		a.minE, a.maxE = e, e
		a.minA, a.maxA = az, az
		a.minR, a.maxR = r, r
		a.maxVal = v
		a.seen = true
	} else {
		if e < a.minE {
			a.minE = e
		}
		if e > a.maxE {
			a.maxE = e
		}
		if az < a.minA {
			a.minA = az
		}
		if az > a.maxA {
			a.maxA = az
		}
		if r < a.minR {
			a.minR = r
		}
		if r > a.maxR {
			a.maxR = r
		}
		if v > a.maxVal {
			a.maxVal = v
		}
	}
	a.count++
}

// detect2D labels a single (azimuth x range-gate) plane — elevation elevIdx
// if elevIdx >= 0, otherwise the max-reflectivity projection across every
// elevation — and returns one feature per component (elevation extent
// reported as the full grid elevation range, since a 2-D detection cannot
// localize a component's elevation extent) plus the label grid for overlap
// bookkeeping.
func detect2D(view View, elevIdx int) (feats []feature, labels []int, azSize, rngSize int) {
	azSize, rngSize = view.Shape[1], view.Shape[2]
	n := azSize * rngSize
	mask := make([]bool, n)
	vals := make([]float32, n)
	for a := 0; a < azSize; a++ {
		for r := 0; r < rngSize; r++ {
			var v float32
			if elevIdx >= 0 {
				v = view.At(elevIdx, a, r)
			} else {
				for e := 0; e < view.Shape[0]; e++ {
					if cv := view.At(e, a, r); e == 0 || cv > v {
						v = cv
					}
				}
			}
			vals[a*rngSize+r] = v
			mask[a*rngSize+r] = v >= reflectivityThreshold
		}
	}
	labels, n2 := label2D(mask, azSize, rngSize)

	aggs := make([]labelAgg, n2+1)
	for a := 0; a < azSize; a++ {
		for r := 0; r < rngSize; r++ {
			lbl := labels[a*rngSize+r]
			if lbl == 0 {
				continue
			}
			aggs[lbl].observe(0, a, r, vals[a*rngSize+r])
		}
	}
	for lbl := 1; lbl <= n2; lbl++ {
		ag := aggs[lbl]
		if !ag.seen {
			continue
		}
		bbox := iter.SliceTuple{
			{Start: 0, Stop: view.Shape[0], Step: 1},
			{Start: ag.minA, Stop: ag.maxA + 1, Step: 1},
			{Start: 0, Stop: rngSize, Step: 1},
		}
		feats = append(feats, feature{
			bbox:         bbox,
			radialCount:  bbox.RadialCount(),
			azimuthWidth: bbox.AzimuthWidth(),
			maxVal:       ag.maxVal,
			label:        lbl,
		})
	}
	return feats, labels, azSize, rngSize
}

// detect3D labels the whole volume with 6-connectivity and returns one
// feature per component, with a true per-component elevation extent, plus
// the label grid for overlap bookkeeping.
func detect3D(view View) (feats []feature, labels []int) {
	e, a, r := view.Shape[0], view.Shape[1], view.Shape[2]
	n := e * a * r
	mask := make([]bool, n)
	for i, v := range view.Vals {
		mask[i] = v >= reflectivityThreshold
	}
	labels, n2 := label3D(mask, e, a, r)

	aggs := make([]labelAgg, n2+1)
	for ei := 0; ei < e; ei++ {
		for ai := 0; ai < a; ai++ {
			for ri := 0; ri < r; ri++ {
				idx := (ei*a+ai)*r + ri
				lbl := labels[idx]
				if lbl == 0 {
					continue
				}
				aggs[lbl].observe(ei, ai, ri, view.Vals[idx])
			}
		}
	}
	for lbl := 1; lbl <= n2; lbl++ {
		ag := aggs[lbl]
		if !ag.seen {
			continue
		}
		bbox := iter.SliceTuple{
			{Start: ag.minE, Stop: ag.maxE + 1, Step: 1},
			{Start: ag.minA, Stop: ag.maxA + 1, Step: 1},
			{Start: 0, Stop: r, Step: 1},
		}
		feats = append(feats, feature{
			bbox:         bbox,
			radialCount:  bbox.RadialCount(),
			azimuthWidth: bbox.AzimuthWidth(),
			maxVal:       ag.maxVal,
			label:        lbl,
		})
	}
	return feats, labels
}

// filterFeatures discards components too small to bother with a dedicated
// scan job, and (when weakFilter is set, per the Simple variant) those
// whose peak reflectivity never reaches weakMaxThreshold.
func filterFeatures(feats []feature, weakFilter bool) []feature {
	out := feats[:0]
	for _, f := range feats {
		if f.radialCount < minRadialCount {
			continue
		}
		if weakFilter && f.maxVal < weakMaxThreshold {
			continue
		}
		out = append(out, f)
	}
	return out
}

// jobForFeature builds the StaticJob a surviving feature earns: a
// fixed-chunk scan of its bounding box at a constant dwell time and PRT.
func jobForFeature(gridShape []int, f feature, chunkWidth int, updatePeriod units.Duration) (*job.StaticJob, error) {
	seed, err := iter.NewChunkIter(gridShape, chunkWidth, f.bbox, false)
	if err != nil {
		return nil, fmt.Errorf("adapt: building scan job for feature %v: %w", f.bbox, err)
	}
	return job.NewStaticJob(updatePeriod, seed, featureDwell, featurePrt), nil
}

// featureKey hashes a SliceTuple into a cache key for overlap bookkeeping,
// avoiding a string-concatenation key for every previous-job comparison.
func featureKey(s iter.SliceTuple) uint64 {
	buf := make([]byte, 0, len(s)*8)
	for _, ax := range s {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(ax.Start))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint32(tmp[:], uint32(ax.Stop))
		buf = append(buf, tmp[:]...)
	}
	return xxhash.Sum64(buf)
}
