// Package adapt implements the adaptive-sensing controllers that decide,
// each time the simulator has fresh reflectivity data, which regions of
// the grid deserve a dedicated fine-resolution scan job and which
// previously-dedicated jobs should be retired. A global registry maps a
// controller name to its constructor, the way a plugin registry would.
package adapt

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// ErrDuplicateName is returned by Register when name is already taken.
var ErrDuplicateName = errors.New("adapt: controller name already registered")

// View is the read-only reflectivity grid a controller inspects each step:
// a flattened (elevation, azimuth, range-gate) array plus its shape,
// matching radar.Simulator.CurrentView/Shape.
type View struct {
	Vals  []float32
	Shape [3]int
}

// At returns the reflectivity value at (elevation, azimuth, range gate).
func (v View) At(e, a, r int) float32 {
	return v.Vals[(e*v.Shape[1]+a)*v.Shape[2]+r]
}

// Controller decides, once per simulator step, which jobs to add to and
// remove from the scheduler's roster.
type Controller interface {
	Step(now units.Timestamp, view View) (toAdd []job.Job, toRemove []job.Job)
}

// Options carries a controller's construction-time tuning knobs; the
// concrete set of recognized keys is documented per controller.
type Options map[string]any

// Constructor builds a Controller scoped to boundingVolume (the sub-region
// of the grid the controller is allowed to place jobs within; nil means the
// whole grid).
type Constructor func(boundingVolume iter.SliceTuple, opts Options) (Controller, error)

var registry = map[string]Constructor{}

// Register adds name to the global controller registry.
func Register(name string, ctor Constructor) error {
	if _, exists := registry[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	registry[name] = ctor
	return nil
}

// Adapt constructs the named controller. Matches spec's `adapt(name, vol,
// **opts)`; vol here is boundingVolume, the sub-region the controller may
// place jobs within.
func Adapt(name string, boundingVolume iter.SliceTuple, opts Options) (Controller, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("adapt: unknown controller %q", name)
	}
	return ctor(boundingVolume, opts)
}

// Names returns every registered controller name, sorted, for tooling that
// wants to present the registry to a user (e.g. cmd/scanradsim's
// controllers command).
func Names() []string {
	names := maps.Keys(registry)
	sort.Strings(names)
	return names
}

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(Register("null", newNull))
	must(Register("simple", newSimple))
	must(Register("simple_ppi", newSimplePPI))
	must(Register("simple_vol", newSimpleVol))
	must(Register("simple_tracking", newSimpleTracking))
	must(Register("scitish", newSCITish))
}
