// Package grid holds the reflectivity volume type the simulator replays
// and the per-radial bookkeeping maps (last-update timestamp, update
// count) an adaptive-sensing controller consults to judge scan coverage.
package grid

import "github.com/weathergod/scanradsim/radar/units"

// Volume is one timestamped 3-D reflectivity frame: elevation x azimuth x
// range-gate, flattened row-major into Vals.
type Volume struct {
	ScanTime units.Timestamp
	Vals     []float32
	Shape    [3]int

	// ElevAngle, if set, gives the elevation angle in degrees for each
	// entry along axis 0; ancillary metadata, not consulted by the
	// simulator's interpolation itself.
	ElevAngle []float64
}

// NewVolume builds a Volume, panicking if vals does not match the product
// of shape (a programming error at the call site, not a runtime
// condition).
func NewVolume(scanTime units.Timestamp, vals []float32, shape [3]int) *Volume {
	want := shape[0] * shape[1] * shape[2]
	if len(vals) != want {
		panic("grid: vals length does not match shape")
	}
	return &Volume{ScanTime: scanTime, Vals: vals, Shape: shape}
}

func (v *Volume) flatIndex(e, a, r int) int {
	return (e*v.Shape[1]+a)*v.Shape[2] + r
}

// At returns the reflectivity value at (elevation, azimuth, range gate).
func (v *Volume) At(e, a, r int) float32 { return v.Vals[v.flatIndex(e, a, r)] }

// Set writes the reflectivity value at (elevation, azimuth, range gate).
func (v *Volume) Set(e, a, r int, x float32) { v.Vals[v.flatIndex(e, a, r)] = x }
