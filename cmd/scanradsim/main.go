// Command scanradsim runs an interactive demo of the phased-array scan
// scheduler: it replays a small synthetic reflectivity sequence through an
// adaptive-sensing controller and a task scheduler, one fixed time step at
// a time, driven from a go-prompt console.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/weathergod/scanradsim/radar"
	"github.com/weathergod/scanradsim/radar/adapt"
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/scheduler"
	"github.com/weathergod/scanradsim/radar/units"
)

const defaultPromptPrefix = "scanradsim> "

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario TOML file; built-in demo scenario if unset")
	flag.Parse()

	log := slog.Default()
	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Error("load scenario", "err", err)
		os.Exit(1)
	}

	d, err := newDemo(sc, log)
	if err != nil {
		log.Error("build demo", "err", err)
		os.Exit(1)
	}
	d.run()
}

// demo bundles a scheduler, simulator and adaptive controller into the
// single stepping loop the console commands drive.
type demo struct {
	log      *slog.Logger
	sched    *scheduler.TaskScheduler
	sim      *radar.Simulator
	ctrl     adapt.Controller
	bounding iter.SliceTuple

	now        units.Timestamp
	dt         units.Duration
	stepCount  int
	history    []string
}

func newDemo(sc scenarioFile, log *slog.Logger) (*demo, error) {
	shape := sc.gridShape()
	bounding := iter.SliceTuple{iter.Full(shape[0]), iter.Full(shape[1]), iter.Full(shape[2])}

	sched, err := scheduler.New(sc.Scheduler.ConcurrentMax, log)
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}
	sched.NextJobs = func(s *scheduler.TaskScheduler) []job.Job {
		if s.SurveillanceJob != nil {
			return append([]job.Job{s.SurveillanceJob}, s.Jobs()...)
		}
		return s.Jobs()
	}

	frames := syntheticFrames(shape, sc.Synthetic.Frames, units.Seconds(sc.Synthetic.FrameIntervalSecs))
	sim, err := radar.New(frames, radar.Config{Log: log})
	if err != nil {
		return nil, fmt.Errorf("build simulator: %w", err)
	}

	ctrl, err := adapt.Adapt(sc.Controller.Name, bounding, sc.controllerOptions())
	if err != nil {
		return nil, fmt.Errorf("build controller %q (known: %v): %w", sc.Controller.Name, adapt.Names(), err)
	}

	return &demo{
		log:      log.With("subsystem", "demo"),
		sched:    sched,
		sim:      sim,
		ctrl:     ctrl,
		bounding: bounding,
		dt:       sc.stepDuration(),
	}, nil
}

// step advances the simulation by exactly one dt: fill free slots from the
// current roster, apply completed tasks into the grid, let the controller
// react to the fresh view, then advance every active task's clock. This is
// the fill/update/advance sequence radar.Simulator.Run performs in a loop,
// plus the controller step, which Run does not have; the console drives it
// one call at a time so a user can inspect state between steps.
func (d *demo) step() (bool, error) {
	d.sched.FillSlots(false)
	ok := d.sim.Update(d.now, d.sched.ActiveTasks(), d.bounding)
	view := adapt.View{Vals: d.sim.CurrentView(), Shape: d.sim.Shape()}
	toAdd, toRemove := d.ctrl.Step(d.now, view)
	d.sched.AddJobs(toAdd...)
	for _, j := range toRemove {
		if err := d.sched.RemoveJobs(j); err != nil && !errors.Is(err, scheduler.ErrUnknownJob) {
			return ok, err
		}
	}
	d.sched.IncrementTimer(d.dt)
	d.now = d.now.Add(d.dt)
	d.stepCount++
	return ok, nil
}

func (d *demo) statusLine() string {
	return fmt.Sprintf(
		"step=%d now=%dus occupied=%d/%d occupancy=%.3f acquisition=%.3f",
		d.stepCount, int64(d.now), d.sched.Occupied(), d.sched.ConcurrentMax(),
		d.sched.Occupancy(), d.sched.Acquisition(),
	)
}

func (d *demo) jobsLine() string {
	jobs := d.sched.Jobs()
	if len(jobs) == 0 {
		return "(no jobs registered)"
	}
	var b strings.Builder
	for _, j := range jobs {
		fmt.Fprintf(&b, "  %s  T=%s U=%s loop_frac=%.3f\n", j.ID(), j.T(), j.U(), j.LoopCountFrac())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *demo) metricsLine() string {
	return fmt.Sprintf("max_time_over=%s sum_time_over=%s", d.sched.MaxTimeOver, d.sched.SumTimeOver)
}

func (d *demo) run() {
	for {
		line := prompt.Input(defaultPromptPrefix, d.complete,
			prompt.OptionTitle("scanradsim"),
			prompt.OptionHistory(d.history),
			prompt.OptionPrefix(defaultPromptPrefix),
		)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d.history = append(d.history, line)

		switch line {
		case "step":
			ok, err := d.step()
			if err != nil {
				d.log.Error("step failed", "err", err)
				continue
			}
			fmt.Println(d.statusLine())
			if !ok {
				fmt.Println("input sequence exhausted")
			}
		case "status":
			fmt.Println(d.statusLine())
		case "jobs":
			fmt.Println(d.jobsLine())
		case "metrics":
			fmt.Println(d.metricsLine())
		case "controllers":
			fmt.Println(strings.Join(adapt.Names(), ", "))
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q (try: step, status, jobs, metrics, controllers, quit)\n", line)
		}
	}
}

var commands = []prompt.Suggest{
	{Text: "step", Description: "advance the simulation by one time step"},
	{Text: "status", Description: "show the current occupancy/acquisition metrics"},
	{Text: "jobs", Description: "list the scheduler's registered jobs"},
	{Text: "metrics", Description: "show overrun accounting"},
	{Text: "controllers", Description: "list registered adaptive-sensing controllers"},
	{Text: "quit", Description: "exit the demo"},
}

func (d *demo) complete(doc prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(commands, doc.GetWordBeforeCursor(), true)
}
