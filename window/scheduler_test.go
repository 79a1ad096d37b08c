package window

import (
	"testing"

	"github.com/cortexbench/cortex/abi"
	"github.com/cortexbench/cortex/telemetry"
)

func identityAPI(calls *int) abi.API {
	return abi.API{
		Process: func(handle uintptr, input, output []float32) {
			*calls++
			copy(output, input)
		},
		Teardown: func(handle uintptr) {},
	}
}

func mustScheduler(t *testing.T, w, h, c int, warmupSeconds float64, sampleRateHz float64) (*Scheduler, *telemetry.Buffer) {
	t.Helper()
	telem := telemetry.NewBuffer(4)
	s, err := New(Config{
		WindowLengthSamples: w,
		HopSamples:          h,
		Channels:            c,
		SampleRateHz:        sampleRateHz,
		WarmupSeconds:       warmupSeconds,
		RunID:               "test-run",
	}, telem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, telem
}

func wantWindowCount(n, w, h int) int {
	if n < w {
		return 0
	}
	return (n-w)/h + 1
}

func TestWindowCountFormula(t *testing.T) {
	cases := []struct{ n, w, h int }{
		{0, 4, 2}, {3, 4, 2}, {4, 4, 2}, {5, 4, 2}, {6, 4, 2},
		{8, 4, 2}, {10, 4, 4}, {10, 4, 1},
	}
	for _, tc := range cases {
		var calls int
		s, _ := mustScheduler(t, tc.w, tc.h, 1, 0, 1000)
		if err := s.Register("noop", identityAPI(&calls), abi.PluginInitResult{}); err != nil {
			t.Fatalf("Register: %v", err)
		}

		samples := make([]float32, tc.n)
		for i := range samples {
			samples[i] = float32(i)
		}
		s.FeedSamples(samples)

		want := wantWindowCount(tc.n, tc.w, tc.h)
		if calls != want {
			t.Errorf("n=%d w=%d h=%d: dispatch count = %d, want %d", tc.n, tc.w, tc.h, calls, want)
		}
	}
}

func TestEmptyFeedNoDispatch(t *testing.T) {
	var calls int
	s, telem := mustScheduler(t, 4, 2, 1, 0, 1000)
	s.Register("noop", identityAPI(&calls), abi.PluginInitResult{})
	s.FeedSamples(nil)
	if calls != 0 || telem.Len() != 0 {
		t.Errorf("empty feed caused calls=%d telemLen=%d, want 0 and 0", calls, telem.Len())
	}
}

func TestIdentityKernelByteForByte(t *testing.T) {
	var calls int
	s, _ := mustScheduler(t, 4, 4, 1, 0, 1000)
	s.Register("noop", identityAPI(&calls), abi.PluginInitResult{})
	s.FeedSamples([]float32{1, 2, 3, 4})
	if s.plugins[0].output[0] != 1 || s.plugins[0].output[3] != 4 {
		t.Errorf("identity kernel output = %v, want [1 2 3 4]", s.plugins[0].output)
	}
}

func TestWarmupWindowsAreDiscarded(t *testing.T) {
	var calls int
	// warmup_seconds * sample_rate_hz / H = 1 * 4 / 2 = 2 warm-up windows.
	s, telem := mustScheduler(t, 4, 2, 1, 1.0, 4)
	s.Register("noop", identityAPI(&calls), abi.PluginInitResult{})

	samples := make([]float32, 20)
	s.FeedSamples(samples)

	totalWindows := wantWindowCount(20, 4, 2)
	if calls != totalWindows {
		t.Fatalf("dispatch count = %d, want %d", calls, totalWindows)
	}
	wantRecords := totalWindows - 2
	if telem.Len() != wantRecords {
		t.Errorf("telemetry len = %d, want %d (total %d minus 2 warm-up)", telem.Len(), wantRecords, totalWindows)
	}
}

func TestFlushDiscardsPartialWindow(t *testing.T) {
	var calls int
	s, telem := mustScheduler(t, 4, 2, 1, 0, 1000)
	s.Register("noop", identityAPI(&calls), abi.PluginInitResult{})
	s.FeedSamples([]float32{1, 2})
	s.Flush()
	if calls != 0 || telem.Len() != 0 {
		t.Errorf("partial window was dispatched: calls=%d telemLen=%d", calls, telem.Len())
	}
	s.Flush()
	if calls != 0 {
		t.Error("second flush should remain a no-op (idempotent)")
	}
}

func TestDestroyCallsTeardownOnEveryPlugin(t *testing.T) {
	var calls int
	var torn bool
	s, _ := mustScheduler(t, 4, 2, 1, 0, 1000)
	s.Register("noop", abi.API{
		Process:  identityAPI(&calls).Process,
		Teardown: func(handle uintptr) { torn = true },
	}, abi.PluginInitResult{})
	s.Destroy()
	if !torn {
		t.Error("Destroy should call Teardown for every registered plugin")
	}
}
