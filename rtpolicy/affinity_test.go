package rtpolicy

import "testing"

func TestParseSchedulerClass(t *testing.T) {
	cases := map[string]SchedulerClass{
		"fifo":     SchedulerFIFO,
		"rr":       SchedulerRR,
		"deadline": SchedulerDeadline,
		"other":    SchedulerOther,
		"bogus":    SchedulerOther,
		"":         SchedulerOther,
	}
	for in, want := range cases {
		if got := ParseSchedulerClass(in); got != want {
			t.Errorf("ParseSchedulerClass(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCPUListToMask(t *testing.T) {
	mask := CPUListToMask([]int{0, 2, 63})
	want := uint64(1)<<0 | uint64(1)<<2 | uint64(1)<<63
	if mask != want {
		t.Errorf("CPUListToMask = %b, want %b", mask, want)
	}

	// Out-of-range indices are silently ignored rather than panicking.
	if m := CPUListToMask([]int{64, -1}); m != 0 {
		t.Errorf("CPUListToMask with out-of-range indices = %b, want 0", m)
	}
}

func TestApplyNoAffinityNoScheduler(t *testing.T) {
	degraded, err := Apply(Policy{})
	if degraded || err != nil {
		t.Errorf("Apply(zero Policy) = (%v, %v), want (false, nil)", degraded, err)
	}
}
