package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/weathergod/scanradsim/radar/adapt"
	"github.com/weathergod/scanradsim/radar/units"
)

// scenarioFile is the on-disk TOML shape a demo scenario is loaded from.
type scenarioFile struct {
	Grid struct {
		Elevations int
		Azimuths   int
		RangeGates int
	}
	Scheduler struct {
		ConcurrentMax    int
		BaseUpdateSecs   float64
		StepDurationSecs float64
	}
	Controller struct {
		Name    string
		Options map[string]any
	}
	Synthetic struct {
		// Frames is how many synthetic reflectivity frames to generate;
		// each frame is FrameIntervalSecs apart and carries a single
		// moving 45dBZ storm block for the demo to detect and track.
		Frames            int
		FrameIntervalSecs float64
	}
}

// defaultScenario mirrors a small but non-trivial demo: a handful of
// PPI-sized tilts, a couple of concurrent scan slots, and SimpleTracking
// watching a drifting storm.
func defaultScenario() scenarioFile {
	var sc scenarioFile
	sc.Grid.Elevations = 5
	sc.Grid.Azimuths = 60
	sc.Grid.RangeGates = 40
	sc.Scheduler.ConcurrentMax = 2
	sc.Scheduler.BaseUpdateSecs = 60
	sc.Scheduler.StepDurationSecs = 1
	sc.Controller.Name = "simple_tracking"
	sc.Controller.Options = map[string]any{"width": 5}
	sc.Synthetic.Frames = 12
	sc.Synthetic.FrameIntervalSecs = 30
	return sc
}

// loadScenario reads a scenario from path, falling back to the built-in
// default scenario if path is empty.
func loadScenario(path string) (scenarioFile, error) {
	sc := defaultScenario()
	if path == "" {
		return sc, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario: %w", err)
	}
	if err := toml.Unmarshal(contents, &sc); err != nil {
		return sc, fmt.Errorf("decode scenario: %w", err)
	}
	return sc, nil
}

func (sc scenarioFile) gridShape() [3]int {
	return [3]int{sc.Grid.Elevations, sc.Grid.Azimuths, sc.Grid.RangeGates}
}

func (sc scenarioFile) baseUpdatePeriod() units.Duration {
	return units.Seconds(sc.Scheduler.BaseUpdateSecs)
}

func (sc scenarioFile) stepDuration() units.Duration {
	return units.Seconds(sc.Scheduler.StepDurationSecs)
}

// controllerOptions converts the scenario's loosely-typed TOML options into
// adapt.Options, coercing integer values TOML decodes as int64 into the
// plain int the controllers' own option parsing expects.
func (sc scenarioFile) controllerOptions() adapt.Options {
	opts := adapt.Options{}
	for k, v := range sc.Controller.Options {
		if i64, ok := v.(int64); ok {
			opts[k] = int(i64)
			continue
		}
		opts[k] = v
	}
	return opts
}
