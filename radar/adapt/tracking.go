package adapt

import (
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// trackedJob remembers the bounding box a still-active job was last placed
// over, so the next step can test it for overlap against freshly labeled
// features.
type trackedJob struct {
	j    job.Job
	bbox iter.SliceTuple
}

// SimpleTracking detects the same +35dBZ connected components as Simple,
// but keeps a feature's job alive across steps as the feature drifts,
// using an overlap-association algorithm instead of discarding and
// recreating every job every step.
type SimpleTracking struct {
	boundingVolume iter.SliceTuple
	chunkWidth     int
	updatePeriod   units.Duration

	prev []trackedJob
}

func newSimpleTracking(boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	return &SimpleTracking{
		boundingVolume: boundingVolume,
		chunkWidth:     optInt(opts, "width", defaultChunkWidth),
		updatePeriod:   optDuration(opts, "update_period", defaultUpdatePeriod),
	}, nil
}

type claimant struct {
	trackIdx int
	overlap  int
}

// Step implements Controller via a three-step overlap association: find
// each previous job's best-overlapping new label, resolve two jobs
// claiming the same label in favor of the larger overlap, then reset every
// surviving job onto its claimed feature and spawn fresh jobs for whatever
// features nobody claimed.
func (c *SimpleTracking) Step(_ units.Timestamp, view View) ([]job.Job, []job.Job) {
	feats, labels, azSize, rngSize := detect2D(view, -1)
	feats = filterFeatures(feats, false)

	labelToFeature := make(map[int]feature, len(feats))
	for _, f := range feats {
		labelToFeature[f.label] = f
	}

	overlapCache := make(map[uint64]map[int]int)
	overlapFor := func(bbox iter.SliceTuple) map[int]int {
		key := featureKey(bbox)
		if cached, ok := overlapCache[key]; ok {
			return cached
		}
		counts := make(map[int]int)
		az, rng := bbox[1], bbox[2]
		for a := az.Start; a < az.Stop && a < azSize; a++ {
			for r := rng.Start; r < rng.Stop && r < rngSize; r++ {
				lbl := labels[a*rngSize+r]
				if _, ok := labelToFeature[lbl]; ok {
					counts[lbl]++
				}
			}
		}
		overlapCache[key] = counts
		return counts
	}

	// Step 1: each previous job's best-overlapping label.
	bestLabel := make([]int, len(c.prev))
	bestOverlap := make([]int, len(c.prev))
	for i, tj := range c.prev {
		best, bestCnt := 0, 0
		for lbl, cnt := range overlapFor(tj.bbox) {
			if cnt > bestCnt {
				best, bestCnt = lbl, cnt
			}
		}
		bestLabel[i], bestOverlap[i] = best, bestCnt
	}

	// Step 2: resolve collisions in favor of the larger overlap.
	claims := make(map[int]claimant)
	for i, lbl := range bestLabel {
		if lbl == 0 {
			continue
		}
		if cur, ok := claims[lbl]; !ok || bestOverlap[i] > cur.overlap {
			claims[lbl] = claimant{trackIdx: i, overlap: bestOverlap[i]}
		}
	}

	// Step 3: reset winners, remove losers and no-overlap jobs, spawn
	// fresh jobs for unclaimed features.
	var toAdd, toRemove []job.Job
	var nextPrev []trackedJob
	resolved := make(map[int]bool, len(claims))

	for i, tj := range c.prev {
		lbl := bestLabel[i]
		if lbl == 0 || claims[lbl].trackIdx != i {
			toRemove = append(toRemove, tj.j)
			continue
		}
		f := labelToFeature[lbl]
		bbox := clampToBounding(f.bbox, c.boundingVolume)
		rj, ok := tj.j.(job.Resettable)
		if !ok {
			toRemove = append(toRemove, tj.j)
			continue
		}
		seed, err := iter.NewChunkIter(view.Shape[:], c.chunkWidth, bbox, false)
		if err != nil {
			toRemove = append(toRemove, tj.j)
			continue
		}
		rj.Reset(seed)
		nextPrev = append(nextPrev, trackedJob{j: tj.j, bbox: bbox})
		resolved[lbl] = true
	}

	for _, f := range feats {
		if resolved[f.label] {
			continue
		}
		bbox := clampToBounding(f.bbox, c.boundingVolume)
		jf := feature{bbox: bbox, radialCount: bbox.RadialCount(), azimuthWidth: bbox.AzimuthWidth(), maxVal: f.maxVal}
		j, err := jobForFeature(view.Shape[:], jf, c.chunkWidth, c.updatePeriod)
		if err != nil {
			continue
		}
		toAdd = append(toAdd, j)
		nextPrev = append(nextPrev, trackedJob{j: j, bbox: bbox})
	}

	c.prev = nextPrev
	return toAdd, toRemove
}
