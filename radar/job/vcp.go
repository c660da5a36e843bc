package job

import (
	"fmt"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job/vcp"
	"github.com/weathergod/scanradsim/radar/units"
)

const vcpAzimuthChunk = 5

// VCP reproduces the scanning pattern and timing of a specific WSR-88D
// Volume Coverage Pattern: a fixed sequence of elevation cuts, each with its
// own dwell time and PRT drawn from the VCP's literal timing table, swept
// across azimuth in fixed-width chunks before moving to the next cut.
type VCP struct {
	*base
	number     vcp.Number
	dwellTimes []units.Duration
	prts       []units.Duration
	t, u       units.Duration
}

// NewVCP builds the scan job for the given VCP number over gridShape,
// optionally restricted to a sub-region (restrict may be nil for the whole
// grid). elevOffset shifts the VCP's absolute elevation-table indices into
// the grid's own coordinate system, for a grid that only covers part of the
// absolute elevation range. If updatePeriod is shorter than one full volume
// takes, the volume's own cycle time wins.
func NewVCP(number vcp.Number, gridShape []int, restrict iter.SliceTuple, elevOffset int, updatePeriod units.Duration, doCycle bool) (*VCP, error) {
	n := len(gridShape)
	if n != 3 {
		return nil, fmt.Errorf("job: VCP needs a rank-3 grid (elevation, azimuth, range gate), got rank %d", n)
	}
	bounds := make([]iter.Slice, n)
	for i := 0; i < n; i++ {
		if restrict != nil && i < len(restrict) {
			bounds[i] = restrict[i]
		} else {
			bounds[i] = iter.Full(gridShape[i])
		}
	}
	resolvedShape := make([]int, n)
	for i, b := range bounds {
		resolvedShape[i] = b.Len()
	}

	cutlist := bounds[0].Indices()
	if len(cutlist) == 0 {
		return nil, fmt.Errorf("job: VCP elevation restriction selects no cuts")
	}
	cutSet := make(map[int]bool, len(cutlist))
	sliceOffset := cutlist[0]
	for _, c := range cutlist {
		cutSet[c] = true
		if c < sliceOffset {
			sliceOffset = c
		}
	}

	cuts, ok := vcp.Cuts[number]
	if !ok {
		return nil, fmt.Errorf("job: unknown VCP number %d", number)
	}
	dwellsAll := vcp.DwellTimes(number)
	prtsAll := vcp.PRTs(number)

	var axis0Windows []iter.Slice
	var dwellTimes, prts []units.Duration
	for i, elevIdx := range cuts {
		grid := elevIdx - elevOffset
		if !cutSet[grid] {
			continue
		}
		rel := grid - sliceOffset
		axis0Windows = append(axis0Windows, iter.Slice{Start: rel, Stop: rel + 1, Step: 1})
		dwellTimes = append(dwellTimes, dwellsAll[i])
		prts = append(prts, prtsAll[i])
	}
	if len(axis0Windows) == 0 {
		return nil, fmt.Errorf("job: no VCP %d steps fall within the restricted elevation range", number)
	}

	azWidth := resolvedShape[1]
	axis1Windows := make([]iter.Slice, 0, (azWidth+vcpAzimuthChunk-1)/vcpAzimuthChunk)
	for start := 0; start < azWidth; start += vcpAzimuthChunk {
		stop := start + vcpAzimuthChunk
		if stop > azWidth {
			stop = azWidth
		}
		axis1Windows = append(axis1Windows, iter.Slice{Start: start, Stop: stop, Step: 1})
	}
	if len(axis1Windows) == 0 {
		axis1Windows = []iter.Slice{{Start: 0, Stop: 0, Step: 1}}
	}

	axes := [][]iter.Slice{
		axis0Windows,
		axis1Windows,
		{{Start: 0, Stop: resolvedShape[2], Step: 1}},
	}

	// Cycle order (1,0): azimuth is innermost (sweeps fully before the
	// elevation cut advances); the range-gate axis never varies.
	seed := iter.NewBaseNDIter(axes, []int{1, 0}, doCycle)

	t := units.Duration(0)
	for _, d := range dwellTimes {
		t = t.Add(units.Microseconds(d.Microseconds() * int64(azWidth)))
	}

	ttc := func(tup iter.SliceTuple) units.Duration {
		idx, _ := seed.AxisIndex(0)
		return units.Microseconds(dwellTimes[idx].Microseconds() * int64(tup.RadialCount()))
	}

	j := &VCP{
		number:     number,
		dwellTimes: dwellTimes,
		prts:       prts,
		t:          t,
		u:          units.Max(updatePeriod, t),
	}
	j.base = newBase(seed, seed, ttc)
	return j, nil
}

func (j *VCP) Next() (*Operation, bool) { return j.base.next(j) }
func (j *VCP) T() units.Duration        { return j.t }
func (j *VCP) U() units.Duration        { return j.u }

// DwellTime returns the dwell time of the elevation cut currently active,
// or zero if the job has not produced its first Operation yet.
func (j *VCP) DwellTime() units.Duration {
	idx, started := j.seed.AxisIndex(0)
	if !started {
		return 0
	}
	return j.dwellTimes[idx]
}

// Prt returns the PRT of the elevation cut currently active, or zero if the
// job has not produced its first Operation yet.
func (j *VCP) Prt() units.Duration {
	idx, started := j.seed.AxisIndex(0)
	if !started {
		return 0
	}
	return j.prts[idx]
}
