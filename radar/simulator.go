// Package radar ties the grid, job and scheduler packages together into a
// single discrete-event Simulator: it replays a sequence of timestamped
// reflectivity volumes, linearly interpolating between frames, and applies
// each active scan task's view of the grid as it completes.
package radar

import (
	"errors"
	"log/slog"
	"math"

	"github.com/weathergod/scanradsim/radar/grid"
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/scheduler"
	"github.com/weathergod/scanradsim/radar/units"
)

// ErrInsufficientFrames is returned by New when fewer than two input
// volumes are supplied; interpolation has nothing to interpolate between.
var ErrInsufficientFrames = errors.New("radar: need at least two input frames to interpolate between")

// Config configures a Simulator.
type Config struct {
	// Log receives frame-advance and exhaustion diagnostics. Defaults to
	// slog.Default() if nil.
	Log *slog.Logger
}

// Simulator replays an ordered, lazily-consumed sequence of reflectivity
// volumes, presenting a single evolving view of the grid (CurrentView) that
// scan tasks update piecewise as they complete.
type Simulator struct {
	log *slog.Logger

	frames []*grid.Volume
	idx    int
	curr   *grid.Volume
	next   *grid.Volume
	slope  []float32

	shape       [3]int
	currView    []float32
	radialAge   *grid.RadialAge
	updateCount *grid.UpdateCount

	exhausted bool
}

// New builds a Simulator over frames, an already-loaded, time-ordered
// sequence of volumes sharing a common grid shape. The sequence is walked
// lazily by Update; New itself only inspects the first two entries.
func New(frames []*grid.Volume, cfg Config) (*Simulator, error) {
	if len(frames) < 2 {
		return nil, ErrInsufficientFrames
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	shape := frames[0].Shape
	n := shape[0] * shape[1] * shape[2]
	currView := make([]float32, n)
	for i := range currView {
		currView[i] = float32(math.NaN())
	}

	s := &Simulator{
		log:         log.With("subsystem", "simulator"),
		frames:      frames,
		idx:         0,
		curr:        frames[0],
		next:        frames[1],
		shape:       shape,
		currView:    currView,
		radialAge:   grid.NewRadialAge(shape[1], shape[0]*shape[1]),
		updateCount: grid.NewUpdateCount(shape[1], shape[0]*shape[1]),
	}
	s.recomputeSlope()
	return s, nil
}

func (s *Simulator) recomputeSlope() {
	s.slope = make([]float32, len(s.curr.Vals))
	dtUs := float64(s.next.ScanTime.Sub(s.curr.ScanTime).Microseconds())
	if dtUs <= 0 {
		return
	}
	for i := range s.slope {
		s.slope[i] = float32(float64(s.next.Vals[i]-s.curr.Vals[i]) / dtUs)
	}
}

// CurrentView returns the simulator's present, partially-updated view of
// the grid, flattened row-major (elevation, azimuth, range gate). Cells
// never yet covered by a completed scan task remain NaN.
func (s *Simulator) CurrentView() []float32 { return s.currView }

// Shape is the (elevation, azimuth, range-gate) extent of the grid.
func (s *Simulator) Shape() [3]int { return s.shape }

// RadialAge reports how long it has been, as of now, since each radial was
// last refreshed.
func (s *Simulator) RadialAge() *grid.RadialAge { return s.radialAge }

// UpdateCount reports how many times each radial has been refreshed.
func (s *Simulator) UpdateCount() *grid.UpdateCount { return s.updateCount }

// Update advances simulated time to now, rolling the input sequence forward
// past any frame boundaries now has crossed, then applies every
// not-yet-running task's interpolated data into the current view and marks
// it running. boundingVolume, if non-nil, restricts which cells of the grid
// Update is willing to touch (cells outside it are left untouched even if a
// task's own slice nominally covers them) — a defensive clip against a
// misconfigured scan job reaching outside the simulated domain.
//
// Update returns false once the input sequence is exhausted (fewer than two
// remaining frames to interpolate between); the simulator does not advance
// further and every subsequent call also returns false.
func (s *Simulator) Update(now units.Timestamp, tasks []*job.Operation, boundingVolume iter.SliceTuple) bool {
	if s.exhausted {
		return false
	}
	for now >= s.next.ScanTime {
		if s.idx+2 >= len(s.frames) {
			s.log.Warn("input sequence exhausted", "frame_index", s.idx)
			s.exhausted = true
			return false
		}
		s.idx++
		s.curr = s.frames[s.idx]
		s.next = s.frames[s.idx+1]
		s.recomputeSlope()
		s.log.Debug("advanced frame", "index", s.idx, "scan_time", s.curr.ScanTime)
	}

	elapsedUs := float64(now.Sub(s.curr.ScanTime).Microseconds())
	for _, t := range tasks {
		if t.Running {
			continue
		}
		s.applyTask(t, elapsedUs, now, boundingVolume)
		t.Running = true
	}
	return true
}

// Run drives the simulator forward in fixed time quanta of dt, starting
// from startTime, filling free scheduler slots and advancing the
// scheduler's own timer each step, until either the input sequence is
// exhausted or steps quanta have elapsed (steps <= 0 means unbounded). It
// returns the simulated time actually reached. This mirrors the stepping
// shape of a driver that calls next_jobs, then update, once per fixed time
// quantum; cmd/scanradsim's console performs the same sequence itself, one
// step per command, with a controller step added.
func (s *Simulator) Run(sched *scheduler.TaskScheduler, startTime units.Timestamp, dt units.Duration, steps int, boundingVolume iter.SliceTuple) units.Timestamp {
	now := startTime
	for i := 0; steps <= 0 || i < steps; i++ {
		sched.FillSlots(false)
		if !s.Update(now, sched.ActiveTasks(), boundingVolume) {
			break
		}
		sched.IncrementTimer(dt)
		now = now.Add(dt)
	}
	return now
}

func (s *Simulator) applyTask(t *job.Operation, elapsedUs float64, now units.Timestamp, boundingVolume iter.SliceTuple) {
	elevs := t.Slice[0].Indices()
	azs := t.Slice[1].Indices()
	rngs := t.Slice[2].Indices()
	for _, e := range elevs {
		for _, a := range azs {
			if boundingVolume != nil && !boundingVolume[0].Contains(e) {
				continue
			}
			if boundingVolume != nil && !boundingVolume[1].Contains(a) {
				continue
			}
			s.radialAge.Touch(e, a, now)
			s.updateCount.Increment(e, a)
			for _, r := range rngs {
				idx := (e*s.shape[1]+a)*s.shape[2] + r
				s.currView[idx] = s.curr.Vals[idx] + float32(elapsedUs)*s.slope[idx]
			}
		}
	}
}
