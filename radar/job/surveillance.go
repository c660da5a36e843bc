package job

import (
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/units"
)

const surveillanceAzimuthChunk = 5

// Surveillance scans a (possibly restricted) region of the grid one fixed
// azimuth chunk of one elevation at a time, moving to the next elevation
// after each full azimuth sweep and always taking the range-gate axis
// whole, at a single dwell time and PRT. Because every radial
// takes the same time, U and T both equal dwellTime times the total radial
// count — a surveillance sweep is, by construction, exactly as fast as its
// own update period demands.
type Surveillance struct {
	*base
	dwellTime units.Duration
	prt       units.Duration
	t, u      units.Duration
}

// NewSurveillance builds a Surveillance job covering restrict (or the whole
// grid, if restrict is nil) at the given dwell time (microseconds) and PRT.
func NewSurveillance(dwellTime units.Duration, gridShape []int, restrict iter.SliceTuple, prt units.Duration, doCycle bool) (*Surveillance, error) {
	n := len(gridShape)
	bounds := make([]iter.Slice, n)
	for i := 0; i < n; i++ {
		if restrict != nil && i < len(restrict) {
			bounds[i] = restrict[i]
		} else {
			bounds[i] = iter.Full(gridShape[i])
		}
	}

	starts := make([]int, n)
	stops := make([]int, n)
	widths := make([]int, n)
	for i, b := range bounds {
		starts[i] = b.Start
		stops[i] = b.Stop
		widths[i] = 1
	}
	widths[1] = surveillanceAzimuthChunk
	widths[n-1] = stops[n-1] - starts[n-1]

	seed, err := iter.NewSliceIter(starts, stops, widths, []int{1, 0, 2}, false)
	if err != nil {
		return nil, err
	}

	radialCnt := 1
	for _, b := range bounds[:n-1] {
		radialCnt *= b.Len()
	}

	ttc := func(tup iter.SliceTuple) units.Duration {
		return units.Microseconds(dwellTime.Microseconds() * int64(tup.RadialCount()))
	}
	updatePeriod := units.Microseconds(dwellTime.Microseconds() * int64(radialCnt))

	j := &Surveillance{
		dwellTime: dwellTime,
		prt:       prt,
		t:         updatePeriod,
		u:         updatePeriod,
	}
	j.base = newBase(seed, newCyclicLive(seed, doCycle), ttc)
	return j, nil
}

func (j *Surveillance) Next() (*Operation, bool)  { return j.base.next(j) }
func (j *Surveillance) T() units.Duration         { return j.t }
func (j *Surveillance) U() units.Duration         { return j.u }
func (j *Surveillance) DwellTime() units.Duration { return j.dwellTime }
func (j *Surveillance) Prt() units.Duration       { return j.prt }
