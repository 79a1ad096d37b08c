package window

import (
	"fmt"
	"time"

	"github.com/cortexbench/cortex/abi"
	"github.com/cortexbench/cortex/telemetry"
)

// lifecycle mirrors the three externally visible scheduler states from
// §4.4: no fourth state exists by construction.
type lifecycle int

const (
	created lifecycle = iota
	running
	destroyed
)

// plugin is one registered kernel: its bound API, its output buffer
// (allocated once from the init result's reported shape), and the opaque
// handle init returned.
type plugin struct {
	name    string
	api     abi.API
	handle  uintptr
	output  []float32
}

// Config describes one scheduler instance's fixed shape and pacing
// parameters, matching the PluginConfig negotiated with every registered
// plugin.
type Config struct {
	WindowLengthSamples int // W
	HopSamples          int // H
	Channels            int // C
	SampleRateHz        float64
	DType               string
	WarmupSeconds       float64
	RunID               string
}

// Scheduler forms overlapping windows from fed samples and dispatches each
// to every registered plugin in registration order (spec component C4).
// Not safe for concurrent use — by design, exactly one goroutine (the
// replayer's pacing thread, by convention) drives feed/flush at a time.
type Scheduler struct {
	cfg     Config
	buf     *shiftBuffer
	plugins []*plugin
	telem   *telemetry.Buffer
	summary *telemetry.Summary

	state lifecycle

	windowIndex    int
	repeat         int
	warmupRemaining int
}

// HopSamples returns H, the configured hop length in samples.
func (s *Scheduler) HopSamples() int { return s.cfg.HopSamples }

// SetSummary attaches a live end-of-run accumulator: every post-warm-up
// dispatch folds its outcome into sum via Observe. Optional; a nil or
// never-set summary is simply not fed.
func (s *Scheduler) SetSummary(sum *telemetry.Summary) { s.summary = sum }

// Channels returns C, the configured channel count.
func (s *Scheduler) Channels() int { return s.cfg.Channels }

// New constructs a scheduler in the created state. warmupRemaining is
// derived from warmup_seconds * sample_rate_hz / H, per §4.4.
func New(cfg Config, telem *telemetry.Buffer) (*Scheduler, error) {
	if cfg.HopSamples <= 0 || cfg.HopSamples > cfg.WindowLengthSamples {
		return nil, fmt.Errorf("window: invalid hop=%d for window=%d (need 0 < H <= W)", cfg.HopSamples, cfg.WindowLengthSamples)
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("window: channels must be > 0, got %d", cfg.Channels)
	}
	if cfg.SampleRateHz <= 0 {
		return nil, fmt.Errorf("window: sample_rate_hz must be > 0, got %v", cfg.SampleRateHz)
	}

	warmup := 0
	if cfg.WarmupSeconds > 0 {
		warmup = int(cfg.WarmupSeconds * cfg.SampleRateHz / float64(cfg.HopSamples))
	}

	return &Scheduler{
		cfg:             cfg,
		buf:             newShiftBuffer(cfg.WindowLengthSamples*cfg.Channels, cfg.HopSamples*cfg.Channels),
		telem:           telem,
		state:           created,
		warmupRemaining: warmup,
	}, nil
}

// Register binds a loaded, already-initialized plugin to this scheduler
// (the caller runs Init and passes its result) and allocates its output
// buffer from the reported shape — substituting the scheduler's own (W, C)
// when init_result reports zero for a dimension.
func (s *Scheduler) Register(name string, api abi.API, initResult abi.PluginInitResult) error {
	if s.state == destroyed {
		return fmt.Errorf("window: scheduler is destroyed")
	}
	outW, outC := initResult.ResolveOutputShape(s.cfg.WindowLengthSamples, s.cfg.Channels)
	n := outW * outC
	if n <= 0 {
		return fmt.Errorf("window: plugin %q reported non-positive output shape (%d x %d)", name, outW, outC)
	}
	s.plugins = append(s.plugins, &plugin{
		name:   name,
		api:    api,
		handle: initResult.Handle,
		output: make([]float32, n),
	})
	return nil
}

// FeedSamples appends count samples (count*channels floats, already
// interleaved) from buffer into the shift buffer, dispatching every time a
// full window accumulates. An empty feed (count == 0) causes no dispatch
// and no state change, per §8.
func (s *Scheduler) FeedSamples(samples []float32) {
	if len(samples) == 0 {
		return
	}
	s.state = running

	remaining := samples
	for len(remaining) > 0 {
		n := s.buf.feed(remaining)
		remaining = remaining[n:]
		if s.buf.full() {
			s.dispatch()
			s.buf.advance()
		}
		if n == 0 {
			// Buffer didn't accept anything even though samples remain:
			// only possible immediately after advance() if hop < window
			// and the caller fed more than one window's worth in a single
			// call with no intervening dispatch opportunity, which cannot
			// happen given the loop above — guard against infinite spin.
			break
		}
	}
}

// dispatch captures release/deadline, runs every registered plugin in
// order, and appends a WindowRecord per plugin once warm-up has elapsed.
func (s *Scheduler) dispatch() {
	releaseNs := time.Now().UnixNano()
	deadlineNs := releaseNs + int64(float64(s.cfg.HopSamples)/s.cfg.SampleRateHz*float64(time.Second))

	window := s.buf.window()
	warmingUp := s.warmupRemaining > 0

	for _, p := range s.plugins {
		startNs := time.Now().UnixNano()
		p.api.Process(p.handle, window, p.output)
		endNs := time.Now().UnixNano()

		if !warmingUp {
			rec := telemetry.WindowRecord{
				PluginName:          p.name,
				Repeat:              s.repeat,
				WindowIndex:         s.windowIndex,
				ReleaseNs:           releaseNs,
				DeadlineNs:          deadlineNs,
				StartNs:             startNs,
				EndNs:               endNs,
				DeadlineMissed:      endNs > deadlineNs,
				RunID:               s.cfg.RunID,
				WindowLengthSamples: s.cfg.WindowLengthSamples,
				HopSamples:          s.cfg.HopSamples,
				Channels:            s.cfg.Channels,
				SampleRateHz:        s.cfg.SampleRateHz,
				DType:               s.cfg.DType,
			}
			if s.telem != nil {
				s.telem.Append(rec)
			}
			if s.summary != nil {
				s.summary.Observe(rec)
			}
		}
	}

	if warmingUp {
		s.warmupRemaining--
	}
	s.windowIndex++
}

// Flush dispatches any remaining full window; a partial window (less than
// W samples accumulated) is discarded. Flush is idempotent.
func (s *Scheduler) Flush() {
	if s.buf.full() {
		s.dispatch()
		s.buf.advance()
	}
	s.buf.reset()
}

// BeginRepeat resets the per-repeat window index and tags subsequent
// dispatches with repeat r.
func (s *Scheduler) BeginRepeat(r int) {
	s.repeat = r
	s.windowIndex = 0
}

// Destroy tears down every registered plugin and transitions the scheduler
// to the destroyed state. The caller must not call FeedSamples or Flush
// afterward.
func (s *Scheduler) Destroy() {
	for _, p := range s.plugins {
		if p.api.Teardown != nil {
			p.api.Teardown(p.handle)
		}
	}
	s.plugins = nil
	s.state = destroyed
}
