// Package telemetry captures per-window timing with bounded in-loop cost —
// a single append to a contiguous buffer plus a handful of integer stores —
// and serializes the result on run completion (spec component C5).
package telemetry

// WindowRecord is one dispatched window's timing, recorded after warm-up
// completes. PluginName is an interned reference into the run's plugin name
// table, not an owned copy.
//
// Invariants: StartNs >= ReleaseNs; EndNs >= StartNs;
// DeadlineMissed == (EndNs > DeadlineNs).
type WindowRecord struct {
	PluginName     string
	Repeat         int
	WindowIndex    int
	ReleaseNs      int64
	DeadlineNs     int64
	StartNs        int64
	EndNs          int64
	DeadlineMissed bool
	RunID          string

	// Shape and rate metadata carried per-record so writers need no side
	// channel to reconstruct the fixed field order in §6.
	WindowLengthSamples int
	HopSamples          int
	Channels            int
	SampleRateHz        float64
	DType               string
}

// LatencyNs returns end-start, the measured processing latency.
func (r WindowRecord) LatencyNs() int64 { return r.EndNs - r.StartNs }
