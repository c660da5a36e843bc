package adapt

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// defaultSpeedThresh is the storm-motion speed, in rectilinear units per
// second, the distance threshold scales with absent a caller override. The
// external SCIT literature this controller delegates to hard-codes 0.25.
const defaultSpeedThresh = 0.25

// ToRect projects a label-weighted centroid, expressed as (azimuth index,
// range-gate index) in the detection grid's own index space, into the
// rectilinear coordinates the external tracker reasons about. The caller
// owns the actual azimuth/range-gate spacing.
type ToRect func(azIdx, rangeIdx float64) mgl64.Vec2

// StormCell is one label-weighted centroid handed to the external tracker
// for a single volume, already projected to rectilinear space.
type StormCell struct {
	Pos mgl64.Vec2
	ID  int
}

// VolInfo is the per-volume summary passed to the external tracker, mirroring
// the `vol` record of the scit_step interface.
type VolInfo struct {
	FrameNum   int
	VolTime    int64 // now, rounded to the nearest second
	StormCells []StormCell
}

// CornerRecord mirrors a corner_dtype structured record: one storm-cell
// observation belonging to a track, in a specific volume.
type CornerRecord struct {
	FrameNum int
	Pos      mgl64.Vec2
	ID       int
}

// StrmTrack is one storm track's accumulated history of corner
// observations; CornerIDs[len-1] names the feature label the track is
// currently sitting on.
type StrmTrack struct {
	TrackID   int
	CornerIDs []int
	Corners   []CornerRecord
}

// InfoTrack carries whatever auxiliary per-track state the tracker wants
// preserved across calls (speed estimate, distance threshold, ...); opaque
// to the controller.
type InfoTrack struct {
	TrackID int
	Data    map[string]any
}

// Tracker matches the external SCIT tracker's scit_step signature: given
// the accumulated state and the current volume, decide which tracks end,
// continue unchanged, or begin.
type Tracker func(adap *SCITish, stateHist []VolInfo, strmTracks map[int]*StrmTrack, infoTracks map[int]*InfoTrack, vol VolInfo) (tracksToEnd, tracksToKeep, tracksToAdd []int)

// SCITish computes label-weighted centroids, projects them to rectilinear
// coordinates, and delegates track continuity to an external SCIT tracker
// rather than implementing the association algorithm itself; the controller
// only translates the tracker's track deltas into job deltas.
type SCITish struct {
	boundingVolume iter.SliceTuple
	chunkWidth     int
	updatePeriod   units.Duration
	toRect         ToRect
	tracker        Tracker
	speedThresh    float64

	frameNum int
	lastNow  units.Timestamp
	// DistThresh is the current adaptive distance threshold
	// (speed_thresh * elapsed seconds since the previous step), exported
	// so an external Tracker can read it through the adap argument
	// scit_step receives.
	DistThresh float64
	stateHist  []VolInfo
	strmTracks map[int]*StrmTrack
	infoTracks map[int]*InfoTrack

	// trackJobs maps a live track ID to the job currently scanning the
	// feature that track is sitting on.
	trackJobs map[int]job.Job
}

func optFloat(opts Options, key string, def float64) float64 {
	if v, ok := opts[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

func optToRect(opts Options, key string) ToRect {
	if v, ok := opts[key]; ok {
		if fn, ok := v.(ToRect); ok {
			return fn
		}
	}
	return func(azIdx, rangeIdx float64) mgl64.Vec2 { return mgl64.Vec2{azIdx, rangeIdx} }
}

func optTracker(opts Options, key string) Tracker {
	if v, ok := opts[key]; ok {
		if fn, ok := v.(Tracker); ok {
			return fn
		}
	}
	return nullTracker
}

// nullTracker is the fallback Tracker used when no external tracker is
// supplied: every live track is kept, no track ever ends or begins. A
// caller relying on SCITish's continuity must supply a real tracker.
func nullTracker(_ *SCITish, _ []VolInfo, strmTracks map[int]*StrmTrack, _ map[int]*InfoTrack, _ VolInfo) (toEnd, toKeep, toAdd []int) {
	for id := range strmTracks {
		toKeep = append(toKeep, id)
	}
	return nil, toKeep, nil
}

func newSCITish(boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	return &SCITish{
		boundingVolume: boundingVolume,
		chunkWidth:     optInt(opts, "width", defaultChunkWidth),
		updatePeriod:   optDuration(opts, "update_period", defaultUpdatePeriod),
		toRect:         optToRect(opts, "to_rect"),
		tracker:        optTracker(opts, "tracker"),
		speedThresh:    optFloat(opts, "speed_thresh", defaultSpeedThresh),
		strmTracks:     make(map[int]*StrmTrack),
		infoTracks:     make(map[int]*InfoTrack),
		trackJobs:      make(map[int]job.Job),
	}, nil
}

// centroidsForLabels computes, for every label 1..n, the reflectivity-
// weighted centroid (azimuth index, range-gate index) of its member cells,
// using the same max-reflectivity projection detect2D(view, -1) uses.
func centroidsForLabels(view View, labels []int, azSize, rngSize, n int) []mgl64.Vec2 {
	sumAz := make([]float64, n+1)
	sumR := make([]float64, n+1)
	sumW := make([]float64, n+1)
	for a := 0; a < azSize; a++ {
		for r := 0; r < rngSize; r++ {
			lbl := labels[a*rngSize+r]
			if lbl == 0 {
				continue
			}
			var v float32
			for e := 0; e < view.Shape[0]; e++ {
				if cv := view.At(e, a, r); e == 0 || cv > v {
					v = cv
				}
			}
			w := float64(v)
			sumAz[lbl] += w * float64(a)
			sumR[lbl] += w * float64(r)
			sumW[lbl] += w
		}
	}
	out := make([]mgl64.Vec2, n+1)
	for lbl := 1; lbl <= n; lbl++ {
		if sumW[lbl] == 0 {
			continue
		}
		out[lbl] = mgl64.Vec2{sumAz[lbl] / sumW[lbl], sumR[lbl] / sumW[lbl]}
	}
	return out
}

// Step implements Controller by computing this volume's storm cells,
// delegating track continuity to the external tracker, and translating the
// resulting track deltas into job adds/removes.
func (c *SCITish) Step(now units.Timestamp, view View) ([]job.Job, []job.Job) {
	feats, labels, azSize, rngSize := detect2D(view, -1)
	feats = filterFeatures(feats, false)

	if len(feats) == 0 {
		var toRemove []job.Job
		for _, j := range c.trackJobs {
			toRemove = append(toRemove, j)
		}
		c.trackJobs = make(map[int]job.Job)
		c.strmTracks = make(map[int]*StrmTrack)
		c.frameNum++
		c.lastNow = now
		return nil, toRemove
	}

	maxLabel := 0
	labelToFeature := make(map[int]feature, len(feats))
	for _, f := range feats {
		labelToFeature[f.label] = f
		if f.label > maxLabel {
			maxLabel = f.label
		}
	}
	centroids := centroidsForLabels(view, labels, azSize, rngSize, maxLabel)

	cells := make([]StormCell, 0, len(feats))
	for _, f := range feats {
		cen := centroids[f.label]
		cells = append(cells, StormCell{Pos: c.toRect(cen[0], cen[1]), ID: f.label})
	}

	dt := 0.0
	if c.frameNum > 0 {
		dt = now.Sub(c.lastNow).Seconds()
	}
	c.DistThresh = c.speedThresh * dt

	vol := VolInfo{
		FrameNum:   c.frameNum,
		VolTime:    (int64(now) + 500_000) / 1_000_000, // rounded to the nearest second
		StormCells: cells,
	}

	toEnd, toKeep, toAdd := c.tracker(c, c.stateHist, c.strmTracks, c.infoTracks, vol)
	c.stateHist = append(c.stateHist, vol)

	var addJobs, removeJobs []job.Job

	for _, id := range toEnd {
		if j, ok := c.trackJobs[id]; ok {
			removeJobs = append(removeJobs, j)
			delete(c.trackJobs, id)
		}
		delete(c.strmTracks, id)
		delete(c.infoTracks, id)
	}

	for _, id := range toKeep {
		track, ok := c.strmTracks[id]
		if !ok || len(track.CornerIDs) == 0 {
			continue
		}
		lbl := track.CornerIDs[len(track.CornerIDs)-1]
		f, ok := labelToFeature[lbl]
		if !ok {
			continue
		}
		bbox := clampToBounding(f.bbox, c.boundingVolume)
		j, hasJob := c.trackJobs[id]
		if !hasJob {
			continue
		}
		if rj, ok := j.(job.Resettable); ok {
			seed, err := iter.NewChunkIter(view.Shape[:], c.chunkWidth, bbox, false)
			if err == nil {
				rj.Reset(seed)
			}
		}
	}

	for _, id := range toAdd {
		track, ok := c.strmTracks[id]
		if !ok || len(track.CornerIDs) == 0 {
			continue
		}
		lbl := track.CornerIDs[len(track.CornerIDs)-1]
		f, ok := labelToFeature[lbl]
		if !ok {
			continue
		}
		bbox := clampToBounding(f.bbox, c.boundingVolume)
		jf := feature{bbox: bbox, radialCount: bbox.RadialCount(), azimuthWidth: bbox.AzimuthWidth(), maxVal: f.maxVal}
		j, err := jobForFeature(view.Shape[:], jf, c.chunkWidth, c.updatePeriod)
		if err != nil {
			continue
		}
		c.trackJobs[id] = j
		addJobs = append(addJobs, j)
	}

	c.frameNum++
	c.lastNow = now
	return addJobs, removeJobs
}
