package grid

import (
	"github.com/brentp/intintmap"

	"github.com/weathergod/scanradsim/radar/units"
)

func radialKey(azimuthSize, elev, az int) int64 {
	return int64(elev*azimuthSize + az)
}

// RadialAge tracks, for each (elevation, azimuth) radial, the simulated
// timestamp it was last refreshed by a running ScanOperation. A radial
// never touched reports units.MaxDuration old.
type RadialAge struct {
	m           *intintmap.Map
	azimuthSize int
}

// NewRadialAge builds a RadialAge sized for expectedRadials entries over a
// grid whose azimuth axis has azimuthSize cells.
func NewRadialAge(azimuthSize, expectedRadials int) *RadialAge {
	return &RadialAge{m: intintmap.New(expectedRadials, 0.6), azimuthSize: azimuthSize}
}

// Touch records now as the last-update time for radial (elev, az).
func (r *RadialAge) Touch(elev, az int, now units.Timestamp) {
	r.m.Put(radialKey(r.azimuthSize, elev, az), int64(now))
}

// Age returns how long it has been, as of now, since radial (elev, az) was
// last touched.
func (r *RadialAge) Age(elev, az int, now units.Timestamp) units.Duration {
	v, ok := r.m.Get(radialKey(r.azimuthSize, elev, az))
	if !ok {
		return units.MaxDuration
	}
	return now.Sub(units.Timestamp(v))
}

// UpdateCount tracks, for each (elevation, azimuth) radial, the number of
// times it has been refreshed by a running ScanOperation.
type UpdateCount struct {
	m           *intintmap.Map
	azimuthSize int
}

// NewUpdateCount builds an UpdateCount sized for expectedRadials entries
// over a grid whose azimuth axis has azimuthSize cells.
func NewUpdateCount(azimuthSize, expectedRadials int) *UpdateCount {
	return &UpdateCount{m: intintmap.New(expectedRadials, 0.6), azimuthSize: azimuthSize}
}

// Increment bumps the update count for radial (elev, az) by one.
func (u *UpdateCount) Increment(elev, az int) {
	key := radialKey(u.azimuthSize, elev, az)
	v, _ := u.m.Get(key)
	u.m.Put(key, v+1)
}

// Count returns the number of times radial (elev, az) has been refreshed.
func (u *UpdateCount) Count(elev, az int) int {
	v, _ := u.m.Get(radialKey(u.azimuthSize, elev, az))
	return int(v)
}
