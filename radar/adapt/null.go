package adapt

import (
	"github.com/weathergod/scanradsim/radar/iter"
	"github.com/weathergod/scanradsim/radar/job"
	"github.com/weathergod/scanradsim/radar/units"
)

// Null never places or removes any job; a baseline for comparison against
// an adaptive controller's improvement factor.
type Null struct{}

func newNull(iter.SliceTuple, Options) (Controller, error) { return Null{}, nil }

func (Null) Step(units.Timestamp, View) ([]job.Job, []job.Job) { return nil, nil }
