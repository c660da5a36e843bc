package job

import (
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/units"
)

// StaticJob repeats a caller-supplied radial pattern at a constant dwell
// time and PRT. Its cycle time T is the time one full pass of the pattern
// takes; its update period U is the larger of the requested updatePeriod and
// T, since a job can never refresh faster than it takes to scan.
type StaticJob struct {
	*base
	dwellTime units.Duration
	prt       units.Duration
	t, u      units.Duration
}

// NewStaticJob builds a StaticJob from a non-cycling seed iterator (doCycle
// must be false on seed; StaticJob manages its own repeat). If prt is zero,
// it defaults to one tenth of dwellTime (10 pulses per dwell).
func NewStaticJob(updatePeriod units.Duration, seed *iter.BaseNDIter, dwellTime, prt units.Duration) *StaticJob {
	if prt <= 0 {
		prt = units.Microseconds(dwellTime.Microseconds() / 10)
	}
	ttc := func(tup iter.SliceTuple) units.Duration {
		return units.Microseconds(dwellTime.Microseconds() * int64(tup.RadialCount()))
	}
	t := timeForOnePass(seed, ttc)
	j := &StaticJob{
		dwellTime: dwellTime,
		prt:       prt,
		t:         t,
		u:         units.Max(updatePeriod, t),
	}
	j.base = newBase(seed, newCyclicLive(seed, true), ttc)
	return j
}

func (j *StaticJob) Next() (*Operation, bool) { return j.base.next(j) }
func (j *StaticJob) T() units.Duration        { return j.t }
func (j *StaticJob) U() units.Duration        { return j.u }
func (j *StaticJob) DwellTime() units.Duration { return j.dwellTime }
func (j *StaticJob) Prt() units.Duration       { return j.prt }

// Reset redirects the job onto seed, a freshly built non-cycling iterator
// over a new radial pattern, recomputing T (and raising U to match if
// needed) while deliberately leaving loop-count bookkeeping (nextCallCnt)
// untouched: the job keeps its identity and its accumulated progress as far
// as the scheduler's QoS metrics are concerned, it has simply been pointed
// at a new region of interest.
func (j *StaticJob) Reset(seed *iter.BaseNDIter) {
	j.seed = seed
	j.seedLen = seed.Len()
	j.live = newCyclicLive(seed, true)
	j.t = timeForOnePass(seed, j.timeToComplete)
	j.u = units.Max(j.u, j.t)
}
