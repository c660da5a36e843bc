package main

import (
	"math"

	"github.com/weathergod/scanradsim/radar/grid"
	"github.com/weathergod/scanradsim/radar/units"
)

// syntheticFrames builds a lazy-looking (but, for this demo, fully
// materialized) sequence of reflectivity volumes: background clutter at
// 10dBZ everywhere, with a single 45dBZ storm block drifting in azimuth three
// indices per frame, the way a real Volume input collaborator would hand the
// simulator successive radar scans.
func syntheticFrames(shape [3]int, frameCount int, interval units.Duration) []*grid.Volume {
	elevs, azs, rngs := shape[0], shape[1], shape[2]
	frames := make([]*grid.Volume, frameCount)
	for f := 0; f < frameCount; f++ {
		vals := make([]float32, elevs*azs*rngs)
		for i := range vals {
			vals[i] = 10
		}
		stormAz := (f * 3) % azs
		for e := 0; e < elevs; e++ {
			for da := 0; da < 6 && stormAz+da < azs; da++ {
				for r := 5; r < int(math.Min(float64(rngs), 15)); r++ {
					idx := (e*azs+stormAz+da)*rngs + r
					vals[idx] = 45
				}
			}
		}
		scanTime := units.Timestamp(0).Add(units.Microseconds(int64(f) * interval.Microseconds()))
		frames[f] = grid.NewVolume(scanTime, vals, shape)
	}
	return frames
}
