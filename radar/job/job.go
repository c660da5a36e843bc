// Package job models the schedulable units of radar coverage: a single
// non-preemptible ScanOperation (one chunk of radials, transmitted then
// received), and the ScanJob hierarchy that repeatedly produces them —
// StaticJob, Surveillance and VCP, each deriving its own cycle time T and
// requested update period U from the radial pattern it wraps.
package job

import (
	"github.com/google/uuid"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/units"
)

// Operation is one leaf scan task: a single chunk of radials that cannot be
// preempted during its transmit and receive phases.
type Operation struct {
	Job      Job
	Slice    iter.SliceTuple
	TxTime   units.Duration
	RxTime   units.Duration
	WaitTime units.Duration
	T        units.Duration
	Running  bool
}

// RadialCount is the number of radials this operation covers (every axis
// but the last, the range-gate axis, which a ScanOperation never
// subdivides).
func (o *Operation) RadialCount() int {
	return o.Slice.RadialCount()
}

// Job is a repeating scan pattern that the scheduler admits as a single
// roster entry and repeatedly asks for its next Operation.
type Job interface {
	ID() uuid.UUID
	Next() (*Operation, bool)
	T() units.Duration
	U() units.Duration
	DwellTime() units.Duration
	Prt() units.Duration
	LoopCount() int
	LoopCountFrac() float64
	TrueUpdatePeriod(elapsed units.Duration) units.Duration
}

// Resettable is implemented by job types that can be redirected onto a new
// radial pattern without losing their identity (ID) or their loop-count
// bookkeeping. An adaptive-sensing controller that keeps tracking the same
// storm feature as it drifts across volumes reuses the job this way rather
// than retiring it and starting a fresh one.
type Resettable interface {
	Reset(seed *iter.BaseNDIter)
}

// liveIter is satisfied both by a raw *iter.BaseNDIter (VCP, whose own
// doCycle flag is already baked into the iterator it builds) and by
// *cyclicLive (StaticJob/Surveillance, whose cycling is handled one layer up
// so that the frozen one-pass seed used for T/loop-count bookkeeping stays
// decoupled from the live, possibly-many-times-repeated cursor).
type liveIter interface {
	Next() (iter.SliceTuple, bool)
}

// cyclicLive replays seed from the start every time it runs dry, the way
// the original implementation's itertools.cycle wrapping does, without
// perturbing seed's own cursor (seed is only ever Cloned, never advanced
// directly).
type cyclicLive struct {
	seed    *iter.BaseNDIter
	cur     *iter.BaseNDIter
	doCycle bool
}

func newCyclicLive(seed *iter.BaseNDIter, doCycle bool) *cyclicLive {
	return &cyclicLive{seed: seed, cur: seed.Clone(), doCycle: doCycle}
}

func (c *cyclicLive) Next() (iter.SliceTuple, bool) {
	if tup, ok := c.cur.Next(); ok {
		return tup, true
	}
	if !c.doCycle {
		return nil, false
	}
	c.cur = c.seed.Clone()
	return c.cur.Next()
}

// base implements the bookkeeping shared by every ScanJob: identity, call
// counting for loop-fraction tracking, and the tx/rx split of each produced
// Operation. Concrete job types embed it and supply timeToComplete, a
// closure capturing whatever per-job state (dwell time, current VCP cut)
// determines how long a given chunk of radials takes.
type base struct {
	id             uuid.UUID
	seed           *iter.BaseNDIter
	seedLen        int
	live           liveIter
	nextCallCnt    int
	timeToComplete func(iter.SliceTuple) units.Duration
}

func newBase(seed *iter.BaseNDIter, live liveIter, ttc func(iter.SliceTuple) units.Duration) *base {
	return &base{
		id:             uuid.New(),
		seed:           seed,
		seedLen:        seed.Len(),
		live:           live,
		timeToComplete: ttc,
	}
}

func (b *base) ID() uuid.UUID { return b.id }

// LoopCount reports how many complete passes the radial iterator has made.
func (b *base) LoopCount() int {
	if b.seedLen == 0 {
		return 0
	}
	return b.nextCallCnt / b.seedLen
}

// LoopCountFrac is LoopCount plus the fractional progress through the
// current, possibly-incomplete pass.
func (b *base) LoopCountFrac() float64 {
	if b.seedLen == 0 {
		return 0
	}
	return float64(b.nextCallCnt) / float64(b.seedLen)
}

// TrueUpdatePeriod infers the actual, empirically observed update period
// from elapsed simulated time and the fraction of a full cycle completed so
// far, approximating loopcnt_frac as a rational with denominator at most
// 100 to avoid the instability of dividing by a near-zero fraction.
func (b *base) TrueUpdatePeriod(elapsed units.Duration) units.Duration {
	frac := limitDenominator(b.LoopCountFrac(), 100)
	if frac.num == 0 {
		return units.MaxDuration
	}
	return units.Microseconds(elapsed.Microseconds() * frac.den / frac.num)
}

// duty cycle denominator: ScanOperation assumes a 10% transmit duty cycle.
const dutyCycleDivisor = 10

func (b *base) next(self Job) (*Operation, bool) {
	tup, ok := b.live.Next()
	if !ok {
		return nil, false
	}
	b.nextCallCnt++
	total := b.timeToComplete(tup)
	tx := units.Microseconds(total.Microseconds() / dutyCycleDivisor)
	rx := total.Sub(tx)
	return &Operation{Job: self, Slice: tup, TxTime: tx, RxTime: rx, T: total}, true
}

// timeForOnePass sums timeToComplete over exactly one full, non-cycling
// pass of seed, without disturbing seed's own cursor.
func timeForOnePass(seed *iter.BaseNDIter, ttc func(iter.SliceTuple) units.Duration) units.Duration {
	clone := seed.Clone()
	total := units.Duration(0)
	n := seed.Len()
	for i := 0; i < n; i++ {
		tup, ok := clone.Next()
		if !ok {
			break
		}
		total = total.Add(ttc(tup))
	}
	return total
}
