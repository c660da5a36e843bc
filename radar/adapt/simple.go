package adapt

import (
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

type simpleMode int

const (
	modeProjection simpleMode = iota // Simple: 2-D max-reflectivity projection, weak-feature filter applied
	modePPI                          // SimplePPI: a single elevation plane, no weak-feature filter
	modeVolume                       // SimpleVol: full 3-D volume, no weak-feature filter
)

// simpleController implements Simple, SimplePPI and SimpleVol: detect
// connected components of reflectivity >= 35dBZ, discard the ones too
// small (and, for Simple, too weak) to bother with, and emit one StaticJob
// per survivor. It never preserves job identity across steps — every
// surviving feature gets a fresh job, and every previous step's jobs are
// handed back for removal (see adapt.SimpleTracking for the
// identity-preserving variant).
type simpleController struct {
	mode           simpleMode
	elevIdx        int // consulted only in modePPI
	boundingVolume iter.SliceTuple
	chunkWidth     int
	updatePeriod   units.Duration

	prevJobs []job.Job
}

func optInt(opts Options, key string, def int) int {
	if v, ok := opts[key]; ok {
		if iv, ok := v.(int); ok {
			return iv
		}
	}
	return def
}

func optDuration(opts Options, key string, def units.Duration) units.Duration {
	if v, ok := opts[key]; ok {
		if d, ok := v.(units.Duration); ok {
			return d
		}
	}
	return def
}

func newSimpleController(mode simpleMode, boundingVolume iter.SliceTuple, opts Options) *simpleController {
	return &simpleController{
		mode:           mode,
		elevIdx:        optInt(opts, "elevation", 0),
		boundingVolume: boundingVolume,
		chunkWidth:     optInt(opts, "width", defaultChunkWidth),
		updatePeriod:   optDuration(opts, "update_period", defaultUpdatePeriod),
	}
}

func newSimple(boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	return newSimpleController(modeProjection, boundingVolume, opts), nil
}

func newSimplePPI(boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	return newSimpleController(modePPI, boundingVolume, opts), nil
}

func newSimpleVol(boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	return newSimpleController(modeVolume, boundingVolume, opts), nil
}

// clampToBounding restricts bbox to lie within bounding on every axis
// bounding specifies; bounding == nil leaves bbox untouched.
func clampToBounding(bbox, bounding iter.SliceTuple) iter.SliceTuple {
	if bounding == nil {
		return bbox
	}
	out := bbox.Clone()
	for i := range out {
		if i >= len(bounding) {
			continue
		}
		if out[i].Start < bounding[i].Start {
			out[i].Start = bounding[i].Start
		}
		if out[i].Stop > bounding[i].Stop {
			out[i].Stop = bounding[i].Stop
		}
		if out[i].Stop < out[i].Start {
			out[i].Stop = out[i].Start
		}
	}
	return out
}

func (c *simpleController) detect(view View) []feature {
	var feats []feature
	weakFilter := false
	switch c.mode {
	case modeProjection:
		feats, _, _, _ = detect2D(view, -1)
		weakFilter = true
	case modePPI:
		feats, _, _, _ = detect2D(view, c.elevIdx)
	case modeVolume:
		feats, _ = detect3D(view)
	}
	return filterFeatures(feats, weakFilter)
}

// Step implements Controller. It never looks at now: the Simple family's
// update period is fixed at construction, not derived from elapsed time.
func (c *simpleController) Step(_ units.Timestamp, view View) ([]job.Job, []job.Job) {
	prev := c.prevJobs
	feats := c.detect(view)

	var toAdd []job.Job
	for _, f := range feats {
		bbox := clampToBounding(f.bbox, c.boundingVolume)
		jf := feature{bbox: bbox, radialCount: bbox.RadialCount(), azimuthWidth: bbox.AzimuthWidth(), maxVal: f.maxVal}
		j, err := jobForFeature(view.Shape[:], jf, c.chunkWidth, c.updatePeriod)
		if err != nil {
			continue
		}
		toAdd = append(toAdd, j)
	}
	c.prevJobs = toAdd
	return toAdd, prev
}
