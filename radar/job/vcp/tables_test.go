package vcp

import "testing"

func TestBasePRTRounding(t *testing.T) {
	// round(1e6/322) = 3106us, per the WSR-88D PRT bank table.
	if got := basePRT[1].Microseconds(); got != 3106 {
		t.Fatalf("basePRT[1] = %d, want 3106", got)
	}
}

func TestDwellTimesMatchTableLength(t *testing.T) {
	for n := range Cuts {
		dwells := DwellTimes(n)
		if len(dwells) != len(Cuts[n]) {
			t.Fatalf("VCP %d: DwellTimes length %d, want %d (len(Cuts))", n, len(dwells), len(Cuts[n]))
		}
		for i, d := range dwells {
			if d <= 0 {
				t.Fatalf("VCP %d step %d: non-positive dwell time %v", n, i, d)
			}
		}
	}
}

func TestPRTsMatchTableLength(t *testing.T) {
	for n := range Cuts {
		prts := PRTs(n)
		if len(prts) != len(Cuts[n]) {
			t.Fatalf("VCP %d: PRTs length %d, want %d", n, len(prts), len(Cuts[n]))
		}
	}
}

func TestVCP21BatchStepSumsBothBanks(t *testing.T) {
	// Step index 4 of VCP21 is a batch step: banks (2,5) with counts (8,70).
	dwells := DwellTimes(VCP21)
	want := basePRT[2].Microseconds()*8 + basePRT[5].Microseconds()*70
	if got := dwells[4].Microseconds(); got != want {
		t.Fatalf("VCP21 step 4 dwell = %d, want %d", got, want)
	}
}
