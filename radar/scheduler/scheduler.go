// Package scheduler owns the job roster and the fixed-width pool of
// concurrently active scan tasks, advancing simulated time and retiring
// finished tasks while accounting for overrun.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/segmentio/fasthash/fnv1a"
	"golang.org/x/exp/slices"

	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// ErrNoFreeSlot is returned by AddActive when every active-task slot is
// already occupied.
var ErrNoFreeSlot = errors.New("scheduler: no free active-task slot")

// ErrUnknownJob is returned by RemoveJobs for a job never registered via
// AddJobs.
var ErrUnknownJob = errors.New("scheduler: job not registered")

type activeSlot struct {
	task       *job.Operation
	activeTime units.Duration
	occupied   bool
}

// NextJobsFunc selects which jobs should be given a free slot next, given
// the scheduler's current roster and active-task state. TaskScheduler ships
// no default policy of its own; a driver wires one in (typically the output
// of an adaptive-sensing controller, see package adapt).
type NextJobsFunc func(s *TaskScheduler) []job.Job

// TaskScheduler advances simulated time across a fixed number of
// concurrently active ScanOperations, drawn from a roster of registered
// jobs, and reports quality-of-service metrics over that roster.
type TaskScheduler struct {
	log           *slog.Logger
	concurrentMax int
	slots         []activeSlot
	// slotsByHash maps a hashed job identity to the slot indices that
	// might hold its active task, so hasActiveTask/RemainTime need not
	// scan every slot as concurrentMax grows. Collisions are resolved by
	// an ID equality check at the candidate slots.
	slotsByHash map[uint64][]int

	jobs         []job.Job
	jobLifetimes []units.Duration

	// SurveillanceJob, if set, is folded into the QoS metrics that span
	// "jobs ∪ {surveillance_job}" alongside the ordinary roster, using
	// schedLifetime as its lifetime (it is never added to or removed
	// from jobs/jobLifetimes, since it never leaves the roster).
	SurveillanceJob job.Job

	// NextJobs, if set, is the policy FillSlots uses to decide which
	// roster jobs claim newly-freed slots.
	NextJobs NextJobsFunc

	schedLifetime units.Duration
	MaxTimeOver   units.Duration
	SumTimeOver   units.Duration
}

// New builds a TaskScheduler with concurrentMax active-task slots. log may
// be nil, in which case slog.Default() is used.
func New(concurrentMax int, log *slog.Logger) (*TaskScheduler, error) {
	if concurrentMax < 1 {
		return nil, fmt.Errorf("scheduler: concurrent_max must be >= 1, got %d", concurrentMax)
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskScheduler{
		log:           log.With("subsystem", "scheduler"),
		concurrentMax: concurrentMax,
		slots:         make([]activeSlot, concurrentMax),
		slotsByHash:   make(map[uint64][]int),
	}, nil
}

func jobHash(j job.Job) uint64 {
	id := j.ID()
	return fnv1a.HashBytes64(id[:])
}

// ConcurrentMax is the fixed number of active-task slots.
func (s *TaskScheduler) ConcurrentMax() int { return s.concurrentMax }

// Occupied is the number of active-task slots currently filled.
func (s *TaskScheduler) Occupied() int {
	n := 0
	for _, sl := range s.slots {
		if sl.occupied {
			n++
		}
	}
	return n
}

// PctActive is the fraction of active-task slots currently filled.
func (s *TaskScheduler) PctActive() float64 {
	return float64(s.Occupied()) / float64(s.concurrentMax)
}

// IsAvailable reports whether any active-task slot is empty.
func (s *TaskScheduler) IsAvailable() bool {
	for _, sl := range s.slots {
		if !sl.occupied {
			return true
		}
	}
	return false
}

// Jobs returns the current roster, excluding the surveillance job.
func (s *TaskScheduler) Jobs() []job.Job {
	return slices.Clone(s.jobs)
}

// ActiveTasks returns every currently occupied slot's task.
func (s *TaskScheduler) ActiveTasks() []*job.Operation {
	out := make([]*job.Operation, 0, len(s.slots))
	for _, sl := range s.slots {
		if sl.occupied {
			out = append(out, sl.task)
		}
	}
	return out
}

// AddJobs appends jobs to the roster, each starting with a zero lifetime.
func (s *TaskScheduler) AddJobs(jobs ...job.Job) {
	s.jobs = append(s.jobs, jobs...)
	for range jobs {
		s.jobLifetimes = append(s.jobLifetimes, 0)
	}
}

// RemoveJobs marks jobs for removal. A job with no active task disappears
// from the roster immediately; a job with an active task is removed from
// the roster right away too, but its in-flight ScanOperation lingers (via
// the task's own Job back-reference) until IncrementTimer retires it.
func (s *TaskScheduler) RemoveJobs(jobs ...job.Job) error {
	for _, j := range jobs {
		idx := s.indexOf(j)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownJob, j.ID())
		}
		s.jobs = append(s.jobs[:idx], s.jobs[idx+1:]...)
		s.jobLifetimes = append(s.jobLifetimes[:idx], s.jobLifetimes[idx+1:]...)
	}
	return nil
}

func (s *TaskScheduler) indexOf(j job.Job) int {
	return slices.IndexFunc(s.jobs, func(cand job.Job) bool { return cand.ID() == j.ID() })
}

func (s *TaskScheduler) hasActiveTask(j job.Job) bool {
	for _, i := range s.slotsByHash[jobHash(j)] {
		if s.slots[i].occupied && s.slots[i].task.Job.ID() == j.ID() {
			return true
		}
	}
	return false
}

func (s *TaskScheduler) indexSlot(i int, j job.Job) {
	h := jobHash(j)
	s.slotsByHash[h] = append(s.slotsByHash[h], i)
}

func (s *TaskScheduler) unindexSlot(i int, j job.Job) {
	h := jobHash(j)
	s.slotsByHash[h] = slices.DeleteFunc(s.slotsByHash[h], func(cand int) bool { return cand == i })
	if len(s.slotsByHash[h]) == 0 {
		delete(s.slotsByHash, h)
	}
}

// AddActive places a new ScanOperation from j into the first free slot.
// autoActivate seeds the task's Running flag; the simulator flips it true
// itself once it has applied the task's radial update.
func (s *TaskScheduler) AddActive(j job.Job, autoActivate bool) error {
	for i := range s.slots {
		if s.slots[i].occupied {
			continue
		}
		op, ok := j.Next()
		if !ok {
			return fmt.Errorf("scheduler: job %s produced no operation", j.ID())
		}
		op.Running = autoActivate
		s.slots[i] = activeSlot{task: op, occupied: true}
		s.indexSlot(i, j)
		return nil
	}
	return ErrNoFreeSlot
}

// FillSlots repeatedly consults NextJobs and activates candidates into free
// slots until either no slots remain or a round makes no progress. It is a
// no-op if NextJobs is unset.
func (s *TaskScheduler) FillSlots(autoActivate bool) {
	if s.NextJobs == nil {
		return
	}
	for s.IsAvailable() {
		candidates := s.NextJobs(s)
		if len(candidates) == 0 {
			return
		}
		progressed := false
		for _, j := range candidates {
			if !s.IsAvailable() {
				break
			}
			if s.hasActiveTask(j) {
				continue
			}
			if err := s.AddActive(j, autoActivate); err == nil {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// IncrementTimer advances the scheduler's own lifetime, every job's
// lifetime, and every occupied slot's active time by dt, then retires any
// slot whose task has completed.
func (s *TaskScheduler) IncrementTimer(dt units.Duration) {
	s.schedLifetime = s.schedLifetime.Add(dt)
	for i := range s.jobLifetimes {
		s.jobLifetimes[i] = s.jobLifetimes[i].Add(dt)
	}
	for i := range s.slots {
		if s.slots[i].occupied {
			s.slots[i].activeTime = s.slots[i].activeTime.Add(dt)
		}
	}
	s.rmDeactive()
}

func (s *TaskScheduler) rmDeactive() {
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.occupied || sl.activeTime < sl.task.T {
			continue
		}
		sl.task.Running = false
		over := sl.activeTime.Sub(sl.task.T)
		s.MaxTimeOver = units.Max(s.MaxTimeOver, over)
		s.SumTimeOver = s.SumTimeOver.Add(over)
		s.log.Debug("retired task", "overrun", over)
		s.unindexSlot(i, sl.task.Job)
		s.slots[i] = activeSlot{}
	}
}

// RemainTime is the largest task.T-activeTime across j's active slots (a
// job may only ever have one active slot in practice, but the metric is
// defined as a max to stay well-behaved if that ever changes), or zero if
// j has no active task. It compensates for loopcnt already counting an
// active-but-not-yet-retired task as done.
func (s *TaskScheduler) RemainTime(j job.Job) units.Duration {
	var max units.Duration
	for _, i := range s.slotsByHash[jobHash(j)] {
		sl := s.slots[i]
		if !sl.occupied || sl.task.Job.ID() != j.ID() {
			continue
		}
		if remain := sl.task.T.Sub(sl.activeTime); remain > max {
			max = remain
		}
	}
	return max
}

func (s *TaskScheduler) allJobs() ([]job.Job, []units.Duration) {
	jobs := make([]job.Job, 0, len(s.jobs)+1)
	lifetimes := make([]units.Duration, 0, len(s.jobLifetimes)+1)
	jobs = append(jobs, s.jobs...)
	lifetimes = append(lifetimes, s.jobLifetimes...)
	if s.SurveillanceJob != nil {
		jobs = append(jobs, s.SurveillanceJob)
		lifetimes = append(lifetimes, s.schedLifetime)
	}
	return jobs, lifetimes
}

// Occupancy is (1/concurrentMax) * sum(T(job)/U(job)) over jobs ∪
// {surveillance_job}, skipping any job with T == 0 or U == MaxDuration.
func (s *TaskScheduler) Occupancy() float64 {
	jobs, _ := s.allJobs()
	var sum float64
	for _, j := range jobs {
		t, u := j.T(), j.U()
		if t == 0 || u == units.MaxDuration {
			continue
		}
		sum += float64(t) / float64(u)
	}
	return sum / float64(s.concurrentMax)
}

// Acquisition measures actual update periods against the slowest (largest)
// true update period among jobs that have completed at least 35% of a
// cycle, weighting each by its own T/true-update-period ratio. Returns NaN if no job
// qualifies.
func (s *TaskScheduler) Acquisition() float64 {
	jobs, lifetimes := s.allJobs()
	type entry struct {
		t, u units.Duration
	}
	var entries []entry
	for i, j := range jobs {
		if j.LoopCountFrac() < 0.35 {
			continue
		}
		elapsed := s.RemainTime(j).Add(lifetimes[i])
		u := j.TrueUpdatePeriod(elapsed)
		if u == units.MaxDuration {
			continue
		}
		entries = append(entries, entry{t: j.T(), u: u})
	}
	if len(entries) == 0 {
		return math.NaN()
	}
	uMax := entries[0].u
	for _, e := range entries[1:] {
		if e.u > uMax {
			uMax = e.u
		}
	}
	var sum float64
	for _, e := range entries {
		sum += float64(uMax) * float64(e.t) / float64(e.u)
	}
	return sum
}

// ImproveFactor compares the scheduler's average scan rate against a
// single, non-adaptive beam refreshing every baseUpdatePeriod: the average
// of loopcnt_frac(job)/(lifetime(job)+RemainTime(job)) over the ordinary
// job roster (the surveillance job is not part of this comparison), scaled
// by baseUpdatePeriod. Returns NaN if the roster is empty.
func (s *TaskScheduler) ImproveFactor(baseUpdatePeriod units.Duration) float64 {
	if len(s.jobs) == 0 {
		return math.NaN()
	}
	var sum float64
	for i, j := range s.jobs {
		elapsed := s.jobLifetimes[i].Add(s.RemainTime(j))
		if elapsed <= 0 {
			continue
		}
		sum += j.LoopCountFrac() / float64(elapsed)
	}
	return (float64(baseUpdatePeriod) / float64(len(s.jobs))) * sum
}
