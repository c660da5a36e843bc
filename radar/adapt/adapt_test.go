package adapt

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// makeView builds a View of the given shape where the reflectivity at each
// cell is taken from a sparse map keyed by (elev, az, rng); every other cell
// is left at 0.
func makeView(shape [3]int, hot map[[3]int]float32) View {
	n := shape[0] * shape[1] * shape[2]
	vals := make([]float32, n)
	for idx, v := range hot {
		e, a, r := idx[0], idx[1], idx[2]
		vals[(e*shape[1]+a)*shape[2]+r] = v
	}
	return View{Vals: vals, Shape: shape}
}

func TestLabel2DFourConnectivity(t *testing.T) {
	// . X .
	// X X .
	// . . X   (last X is a separate component)
	mask := []bool{
		false, true, false,
		true, true, false,
		false, false, true,
	}
	labels, n := label2D(mask, 3, 3)
	if n != 2 {
		t.Fatalf("expected 2 components, got %d", n)
	}
	if labels[1] != labels[3] || labels[3] != labels[4] {
		t.Fatalf("connected cells should share a label: %v", labels)
	}
	if labels[8] == labels[1] {
		t.Fatalf("diagonal-only cell should not share a label with the other component")
	}
}

func TestLabel3DFaceConnectivity(t *testing.T) {
	// two 1-cell components at opposite corners of a 2x2x2 cube.
	mask := []bool{
		true, false,
		false, false,

		false, false,
		false, true,
	}
	_, n := label3D(mask, 2, 2, 2)
	if n != 2 {
		t.Fatalf("expected 2 components, got %d", n)
	}
}

func TestDetect2DFindsComponentAboveThreshold(t *testing.T) {
	shape := [3]int{2, 10, 10}
	view := makeView(shape, map[[3]int]float32{
		{0, 5, 5}: 45, {0, 5, 6}: 45, {0, 5, 7}: 45, {0, 5, 8}: 45,
		{0, 6, 5}: 45, {0, 6, 6}: 45, {0, 6, 7}: 45, {0, 6, 8}: 45,
		{0, 7, 5}: 45, {0, 7, 6}: 45, {0, 7, 7}: 45, {0, 7, 8}: 45,
		{0, 8, 5}: 45, {0, 8, 6}: 45, {0, 8, 7}: 45, {0, 8, 8}: 45,
		{0, 9, 5}: 45, {0, 9, 6}: 45, {0, 9, 7}: 45, {0, 9, 8}: 45,
	})
	feats, _, azSize, rngSize := detect2D(view, -1)
	if azSize != 10 || rngSize != 10 {
		t.Fatalf("unexpected detection shape: %d,%d", azSize, rngSize)
	}
	if len(feats) != 1 {
		t.Fatalf("expected exactly 1 feature, got %d", len(feats))
	}
	f := feats[0]
	if f.maxVal != 45 {
		t.Fatalf("expected maxVal 45, got %v", f.maxVal)
	}
	if f.bbox[0].Start != 0 || f.bbox[0].Stop != shape[0] {
		t.Fatalf("2-D feature should report the full elevation range, got %v", f.bbox[0])
	}
}

func TestFilterFeaturesDropsSmallAndWeak(t *testing.T) {
	feats := []feature{
		{radialCount: 5, maxVal: 50},  // too small
		{radialCount: 25, maxVal: 30}, // too weak, only under weakFilter
		{radialCount: 25, maxVal: 50}, // survives either way
	}
	strong := filterFeatures(append([]feature{}, feats...), true)
	if len(strong) != 1 {
		t.Fatalf("weak filter should leave exactly 1 survivor, got %d", len(strong))
	}
	lenient := filterFeatures(append([]feature{}, feats...), false)
	if len(lenient) != 2 {
		t.Fatalf("without the weak filter expected 2 survivors, got %d", len(lenient))
	}
}

func TestNullControllerAlwaysEmpty(t *testing.T) {
	c, err := Adapt("null", nil, nil)
	if err != nil {
		t.Fatalf("Adapt(null): %v", err)
	}
	toAdd, toRemove := c.Step(0, View{Shape: [3]int{1, 1, 1}, Vals: []float32{0}})
	if toAdd != nil || toRemove != nil {
		t.Fatalf("Null should never add or remove jobs, got %v %v", toAdd, toRemove)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	err := Register("null", func(iter.SliceTuple, Options) (Controller, error) { return nil, nil })
	if err == nil {
		t.Fatalf("expected ErrDuplicateName registering an existing name")
	}
}

func TestAdaptUnknownController(t *testing.T) {
	if _, err := Adapt("does-not-exist", nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown controller name")
	}
}

func strongBlock(shape [3]int, elev int, azStart, rngStart int) map[[3]int]float32 {
	hot := make(map[[3]int]float32)
	for a := azStart; a < azStart+5; a++ {
		for r := rngStart; r < rngStart+5; r++ {
			hot[[3]int{elev, a, r}] = 45
		}
	}
	return hot
}

func TestSimpleControllerEmitsAndRetiresJobs(t *testing.T) {
	// Four elevations make the 5-azimuth block's bounding box 4*5 = 20
	// radials, enough to pass the minimum radial count.
	shape := [3]int{4, 20, 20}
	c, err := Adapt("simple", iter.SliceTuple{iter.Full(4), iter.Full(20), iter.Full(20)}, Options{"width": 5})
	if err != nil {
		t.Fatalf("Adapt(simple): %v", err)
	}

	view := makeView(shape, strongBlock(shape, 0, 5, 5))
	toAdd, toRemove := c.Step(0, view)
	if len(toAdd) != 1 {
		t.Fatalf("expected 1 job from the first step, got %d", len(toAdd))
	}
	if toRemove != nil {
		t.Fatalf("first step should have nothing to remove, got %v", toRemove)
	}

	toAdd2, toRemove2 := c.Step(0, view)
	if len(toAdd2) != 1 {
		t.Fatalf("expected 1 fresh job on the second step, got %d", len(toAdd2))
	}
	if len(toRemove2) != 1 || toRemove2[0].ID() != toAdd[0].ID() {
		t.Fatalf("second step should retire the first step's job, got %v", toRemove2)
	}
}

func TestSimpleTrackingPreservesIdentityAcrossDrift(t *testing.T) {
	shape := [3]int{4, 30, 20}
	bounding := iter.SliceTuple{iter.Full(4), iter.Full(30), iter.Full(20)}
	c, err := Adapt("simple_tracking", bounding, Options{"width": 5})
	if err != nil {
		t.Fatalf("Adapt(simple_tracking): %v", err)
	}

	view1 := makeView(shape, strongBlock(shape, 0, 10, 5))
	toAdd1, toRemove1 := c.Step(0, view1)
	if len(toAdd1) != 1 {
		t.Fatalf("expected 1 job from the first step, got %d", len(toAdd1))
	}
	if toRemove1 != nil {
		t.Fatalf("first step should have nothing to remove, got %v", toRemove1)
	}
	originalID := toAdd1[0].ID()

	// Feature drifts slightly in azimuth but still overlaps its old bbox.
	view2 := makeView(shape, strongBlock(shape, 0, 12, 5))
	toAdd2, toRemove2 := c.Step(0, view2)
	if len(toAdd2) != 0 {
		t.Fatalf("a drifting feature should be tracked, not reissued: got %d adds", len(toAdd2))
	}
	if len(toRemove2) != 0 {
		t.Fatalf("a tracked feature's job should not be retired: got %v", toRemove2)
	}
	if toAdd1[0].ID() != originalID {
		t.Fatalf("tracked job should keep its original identity")
	}

	// Feature disappears entirely: the tracked job should come back for removal.
	view3 := makeView(shape, nil)
	toAdd3, toRemove3 := c.Step(0, view3)
	if len(toAdd3) != 0 {
		t.Fatalf("expected no new jobs once the feature vanishes, got %d", len(toAdd3))
	}
	if len(toRemove3) != 1 || toRemove3[0].ID() != originalID {
		t.Fatalf("expected the original job to be retired once its feature vanishes, got %v", toRemove3)
	}
}

// TestSimpleTrackingReusesJobAcrossAzimuthDrift matches the canonical
// storm-continuity scenario: a storm spanning azimuths 30-50 drifts to
// 35-55 between frames (still overlapping its old footprint). The same job
// must be reused rather than reissued, and progress already made toward its
// current pass must survive the reset.
func TestSimpleTrackingReusesJobAcrossAzimuthDrift(t *testing.T) {
	shape := [3]int{2, 92, 1000}
	bounding := iter.SliceTuple{iter.Full(2), iter.Full(92), iter.Full(1000)}
	c, err := Adapt("simple_tracking", bounding, Options{"width": 5})
	if err != nil {
		t.Fatalf("Adapt(simple_tracking): %v", err)
	}

	frameA := make(map[[3]int]float32)
	for az := 30; az < 50; az++ {
		for r := 0; r < 20; r++ {
			frameA[[3]int{0, az, r}] = 45
		}
	}
	toAdd, toRemove := c.Step(0, makeView(shape, frameA))
	if len(toAdd) != 1 {
		t.Fatalf("frame A should emit exactly 1 job, got %d", len(toAdd))
	}
	if len(toRemove) != 0 {
		t.Fatalf("frame A should remove nothing, got %v", toRemove)
	}
	trackedJob := toAdd[0]

	// Advance the job partway through its pass so it accrues nonzero
	// loop-count progress before the reset.
	if _, ok := trackedJob.Next(); !ok {
		t.Fatalf("expected the tracked job to yield at least one operation")
	}
	progressBefore := trackedJob.LoopCountFrac()
	if progressBefore <= 0 {
		t.Fatalf("expected nonzero loop-count progress before drift, got %v", progressBefore)
	}

	frameB := make(map[[3]int]float32)
	for az := 35; az < 55; az++ {
		for r := 0; r < 20; r++ {
			frameB[[3]int{0, az, r}] = 45
		}
	}
	toAdd2, toRemove2 := c.Step(0, makeView(shape, frameB))
	if len(toAdd2) != 0 {
		t.Fatalf("frame B should add no new jobs, got %d", len(toAdd2))
	}
	if len(toRemove2) != 0 {
		t.Fatalf("frame B should remove no jobs, got %v", toRemove2)
	}
	if trackedJob.ID() != toAdd[0].ID() {
		t.Fatalf("job identity must be preserved across the drift")
	}
	if trackedJob.LoopCountFrac() != progressBefore {
		t.Fatalf("loop-count progress should survive the reset: before=%v after=%v", progressBefore, trackedJob.LoopCountFrac())
	}
}

func TestSCITishNullTrackerKeepsNoNewJobs(t *testing.T) {
	shape := [3]int{4, 20, 20}
	bounding := iter.SliceTuple{iter.Full(4), iter.Full(20), iter.Full(20)}
	toRect := ToRect(func(azIdx, rangeIdx float64) mgl64.Vec2 { return mgl64.Vec2{azIdx, rangeIdx} })
	c, err := Adapt("scitish", bounding, Options{"to_rect": toRect, "width": 5})
	if err != nil {
		t.Fatalf("Adapt(scitish): %v", err)
	}
	sc, ok := c.(*SCITish)
	if !ok {
		t.Fatalf("expected *SCITish, got %T", c)
	}
	if sc.speedThresh != defaultSpeedThresh {
		t.Fatalf("expected default speed_thresh %v, got %v", defaultSpeedThresh, sc.speedThresh)
	}

	view := makeView(shape, strongBlock(shape, 0, 5, 5))
	toAdd, toRemove := c.Step(0, view)
	// The null tracker never populates tracksToAdd, so no job is created
	// even though a feature was detected (4 elevations x 5 azimuths = 20
	// radials, enough to pass the filter).
	if len(toAdd) != 0 || len(toRemove) != 0 {
		t.Fatalf("null tracker should produce no job deltas, got %v %v", toAdd, toRemove)
	}
}

func TestSCITishTrackerAddThenKeepThenEnd(t *testing.T) {
	shape := [3]int{4, 20, 20}
	bounding := iter.SliceTuple{iter.Full(4), iter.Full(20), iter.Full(20)}
	toRect := ToRect(func(azIdx, rangeIdx float64) mgl64.Vec2 { return mgl64.Vec2{azIdx, rangeIdx} })

	// A minimal stub tracker: on the first call with storm cells, start a
	// single track pinned to the first storm cell's ID; once started, keep
	// it alive as long as a matching ID is still present, else end it.
	const trackID = 1
	stub := Tracker(func(_ *SCITish, _ []VolInfo, strmTracks map[int]*StrmTrack, _ map[int]*InfoTrack, vol VolInfo) (toEnd, toKeep, toAdd []int) {
		if len(vol.StormCells) == 0 {
			if _, ok := strmTracks[trackID]; ok {
				return []int{trackID}, nil, nil
			}
			return nil, nil, nil
		}
		cellID := vol.StormCells[0].ID
		if track, ok := strmTracks[trackID]; ok {
			track.CornerIDs = append(track.CornerIDs, cellID)
			track.Corners = append(track.Corners, CornerRecord{FrameNum: vol.FrameNum, Pos: vol.StormCells[0].Pos, ID: cellID})
			return nil, []int{trackID}, nil
		}
		strmTracks[trackID] = &StrmTrack{TrackID: trackID, CornerIDs: []int{cellID}}
		return nil, nil, []int{trackID}
	})

	c, err := Adapt("scitish", bounding, Options{"to_rect": toRect, "width": 5, "tracker": stub})
	if err != nil {
		t.Fatalf("Adapt(scitish): %v", err)
	}

	view1 := makeView(shape, strongBlock(shape, 0, 5, 5))
	toAdd1, toRemove1 := c.Step(0, view1)
	if len(toAdd1) != 1 {
		t.Fatalf("expected the new track to produce exactly 1 job, got %d", len(toAdd1))
	}
	if len(toRemove1) != 0 {
		t.Fatalf("first step should have nothing to remove, got %v", toRemove1)
	}

	view2 := makeView(shape, strongBlock(shape, 0, 5, 5))
	toAdd2, toRemove2 := c.Step(0, view2)
	if len(toAdd2) != 0 || len(toRemove2) != 0 {
		t.Fatalf("a kept track should neither add nor remove a job, got %v %v", toAdd2, toRemove2)
	}

	view3 := makeView(shape, nil)
	toAdd3, toRemove3 := c.Step(0, view3)
	if len(toAdd3) != 0 {
		t.Fatalf("expected no adds once the track ends, got %d", len(toAdd3))
	}
	if len(toRemove3) != 1 || toRemove3[0].ID() != toAdd1[0].ID() {
		t.Fatalf("expected the original job back for removal once the track ends, got %v", toRemove3)
	}
}

func TestSCITishFeatureDetectionFailureClearsState(t *testing.T) {
	shape := [3]int{1, 10, 10}
	c, err := Adapt("scitish", nil, nil)
	if err != nil {
		t.Fatalf("Adapt(scitish): %v", err)
	}
	sc := c.(*SCITish)
	sc.trackJobs[1] = job.NewStaticJob(units.Seconds(20), mustChunkIter(t, []int{1, 10, 10}), units.Microseconds(64000), units.Microseconds(800))

	view := makeView(shape, nil)
	toAdd, toRemove := c.Step(0, view)
	if len(toAdd) != 0 {
		t.Fatalf("expected no adds on detection failure, got %d", len(toAdd))
	}
	if len(toRemove) != 1 {
		t.Fatalf("expected the single tracked job to be returned for removal, got %d", len(toRemove))
	}
	if len(sc.trackJobs) != 0 {
		t.Fatalf("trackJobs should be cleared after a detection failure")
	}
}

func mustChunkIter(t *testing.T, shape []int) *iter.BaseNDIter {
	t.Helper()
	it, err := iter.NewChunkIter(shape, 5, nil, false)
	if err != nil {
		t.Fatalf("NewChunkIter: %v", err)
	}
	return it
}

func TestCentroidsForLabelsWeightedByReflectivity(t *testing.T) {
	shape := [3]int{1, 4, 4}
	hot := map[[3]int]float32{
		{0, 1, 1}: 35, {0, 1, 2}: 45,
	}
	view := makeView(shape, hot)
	_, labels, azSize, rngSize := detect2D(view, -1)
	cen := centroidsForLabels(view, labels, azSize, rngSize, 1)
	// Weighted toward the stronger cell at (1,2) over the weaker one at (1,1).
	if cen[1][1] <= 1.5 {
		t.Fatalf("expected centroid range index weighted past the midpoint, got %v", cen[1])
	}
	if math.IsNaN(cen[1][0]) || math.IsNaN(cen[1][1]) {
		t.Fatalf("centroid should not be NaN: %v", cen[1])
	}
}
