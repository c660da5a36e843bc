package job

import "math"

// fraction is a reduced non-negative rational with a denominator bounded by
// a caller-chosen limit, found via continued-fraction convergents — the same
// approach Python's fractions.Fraction.limit_denominator uses to approximate
// a loop-count fraction without accumulating floating point error in the
// update-period calculation.
type fraction struct {
	num, den int64
}

func limitDenominator(x float64, maxDen int64) fraction {
	if math.IsNaN(x) || x <= 0 {
		return fraction{0, 1}
	}

	p0, q0 := int64(0), int64(1)
	p1, q1 := int64(1), int64(0)
	rem := x
	for i := 0; i < 64; i++ {
		a := int64(math.Floor(rem))
		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > maxDen {
			break
		}
		p0, q0 = p1, q1
		p1, q1 = p2, q2
		frac := rem - float64(a)
		if frac < 1e-9 {
			break
		}
		rem = 1 / frac
	}
	if q1 == 0 {
		return fraction{0, 1}
	}
	return fraction{p1, q1}
}
