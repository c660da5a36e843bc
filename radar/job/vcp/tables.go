// Package vcp holds the literal WSR-88D Volume Coverage Pattern tables
// (cut order, elevation angles, PRT bank numbers and pulse counts) and the
// arithmetic that turns them into per-cut dwell times and PRTs. The numbers
// here are NWS radar constants, not anything this project invented.
package vcp

import "github.com/weathergod/scanradsim/radar/units"

// Number identifies a supported WSR-88D VCP.
type Number int

const (
	VCP21  Number = 21
	VCP12  Number = 12
	VCP11  Number = 11
	VCP121 Number = 121
	VCP31  Number = 31
	VCP32  Number = 32
)

// basePRT is the pulse repetition time (microseconds) for each of the eight
// WSR-88D PRT bank numbers, computed as round(1e6 / pulse frequency Hz).
var basePRT = map[int]units.Duration{
	1: wsrPRT(322),
	2: wsrPRT(446),
	3: wsrPRT(644),
	4: wsrPRT(857),
	5: wsrPRT(1014),
	6: wsrPRT(1095),
	7: wsrPRT(1181),
	8: wsrPRT(1282),
}

func wsrPRT(freqHz int) units.Duration {
	// round(1e6/freq), matching the reference implementation's
	// int(round(...)) rather than a truncating integer divide.
	return units.Microseconds(int64((1e6/float64(freqHz))+0.5))
}

// Cuts gives, for each VCP, the elevation-table index executed at each
// successive step of the volume (repeats mean that elevation is visited
// more than once per volume, typically in a different PRT bank).
var Cuts = map[Number][]int{
	VCP21:  {0, 0, 1, 1, 2, 3, 4, 5, 6, 7, 8},
	VCP12:  {0, 0, 1, 1, 2, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	VCP11:  {0, 0, 1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	VCP121: {0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 3, 3, 4, 4, 5, 6, 7},
	VCP31:  {0, 0, 1, 1, 2, 2, 3, 4},
	VCP32:  {0, 0, 1, 1, 2, 3, 4},
}

// Elevs gives the elevation angle, in degrees, for each entry in that VCP's
// elevation table (indexed by the values in Cuts).
var Elevs = map[Number][]float64{
	VCP21:  {0.5, 1.45, 2.4, 3.35, 4.3, 6.0, 9.0, 14.6, 19.5},
	VCP12:  {0.5, 0.9, 1.3, 1.8, 2.4, 3.1, 4.0, 5.1, 6.4, 8.0, 10.0, 12.5, 15.6, 19.5},
	VCP11:  {0.5, 1.45, 2.4, 3.35, 4.3, 5.25, 6.2, 7.5, 8.7, 10.0, 12.0, 14.0, 16.7, 19.5},
	VCP121: {0.5, 1.45, 2.4, 3.35, 4.3, 6.0, 9.9, 14.6, 19.5},
	VCP31:  {0.5, 1.5, 2.5, 3.5, 4.5},
	VCP32:  {0.5, 1.5, 2.5, 3.5, 4.5},
}

// PRTNum gives, per step of the volume, the PRT bank number(s) in effect.
// A step with more than one entry is a batch-mode step: several PRT banks
// are each used for part of the dwell, and their times sum.
var PRTNum = map[Number][][]int{
	VCP21:  {{1}, {5}, {1}, {5}, {2, 5}, {2, 5}, {2, 5}, {3, 5}, {7}, {7}, {7}},
	VCP12:  {{1}, {5}, {1}, {5}, {1}, {5}, {1, 5}, {2, 5}, {2, 5}, {2, 5}, {3, 5}, {3, 5}, {6}, {7}, {8}, {8}, {8}},
	VCP11:  {{1}, {5}, {1}, {5}, {1, 5}, {2, 5}, {2, 5}, {3, 5}, {3, 5}, {6}, {7}, {7}, {7}, {7}, {7}, {7}},
	VCP121: {{1}, {8}, {6}, {4}, {1}, {8}, {6}, {4}, {1, 8}, {6}, {4}, {2, 8}, {6}, {4}, {2, 4}, {7}, {3, 5}, {7}},
	VCP31:  {{1}, {2}, {1}, {2}, {1}, {2}, {2}, {2}},
	VCP32:  {{1}, {5}, {1}, {5}, {2, 5}, {2, 5}, {2, 5}},
}

// PlsCnts gives, per step, the pulse count(s) paired elementwise with
// PRTNum's bank number(s) for that step.
var PlsCnts = map[Number][][]int{
	VCP21:  {{28}, {88}, {28}, {88}, {8, 70}, {8, 70}, {8, 70}, {12, 70}, {82}, {82}, {82}},
	VCP12:  {{15}, {40}, {15}, {40}, {15}, {40}, {3, 40}, {3, 29}, {3, 30}, {3, 30}, {3, 30}, {3, 30}, {3, 30}, {38}, {40}, {44}, {44}},
	VCP11:  {{17}, {52}, {16}, {52}, {6, 41}, {6, 41}, {6, 41}, {10, 41}, {10, 41}, {43}, {46}, {46}, {46}, {46}, {46}, {46}},
	VCP121: {{11}, {43}, {40}, {40}, {11}, {43}, {40}, {40}, {6, 40}, {40}, {40}, {6, 40}, {40}, {40}, {6, 40}, {40}, {43}, {43}},
	VCP31:  {{63}, {87}, {63}, {87}, {63}, {87}, {87}, {87}},
	VCP32:  {{64}, {220}, {64}, {220}, {11, 220}, {11, 220}, {11, 220}},
}

// DwellTimes returns, for each step of the given VCP's volume (in
// execution order), the total dwell time: the sum over that step's PRT
// bank(s) of pulseCount * basePRT[bank].
func DwellTimes(n Number) []units.Duration {
	prtNums := PRTNum[n]
	counts := PlsCnts[n]
	out := make([]units.Duration, len(prtNums))
	for i := range prtNums {
		var total units.Duration
		for k, bank := range prtNums[i] {
			total = total.Add(units.Microseconds(int64(counts[i][k]) * basePRT[bank].Microseconds()))
		}
		out[i] = total
	}
	return out
}

// PRTs returns, for each step, the average PRT: that step's total dwell
// time divided by its total pulse count. In batch-mode steps this is an
// average across banks, not any single bank's literal PRT.
func PRTs(n Number) []units.Duration {
	dwells := DwellTimes(n)
	counts := PlsCnts[n]
	out := make([]units.Duration, len(dwells))
	for i, dwell := range dwells {
		sum := 0
		for _, c := range counts[i] {
			sum += c
		}
		if sum == 0 {
			sum = 1
		}
		out[i] = units.Microseconds(dwell.Microseconds() / int64(sum))
	}
	return out
}
