// Package orchestrator executes every ready plugin against the configured
// dataset in strict sequence, writing telemetry after each (spec component
// C9).
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cortexbench/cortex/abi"
	"github.com/cortexbench/cortex/calibstate"
	"github.com/cortexbench/cortex/internal/config"
	"github.com/cortexbench/cortex/internal/cortexerr"
	"github.com/cortexbench/cortex/internal/obslog"
	"github.com/cortexbench/cortex/loader"
	"github.com/cortexbench/cortex/loadgen"
	"github.com/cortexbench/cortex/replay"
	"github.com/cortexbench/cortex/telemetry"
	"github.com/cortexbench/cortex/window"
)

// PluginOutcome records what happened to one ready plugin.
type PluginOutcome struct {
	Name         string
	Records      int
	Err          error
	WroteOutput  bool
}

// Result is the outcome of a full orchestrator run.
type Result struct {
	RunID    string
	Outcomes []PluginOutcome
}

// Orchestrator drives one configuration end to end.
type Orchestrator struct {
	cfg         config.RunConfig
	pluginsRoot string
	runID       string
	shutdown    atomic.Bool
}

// New constructs an Orchestrator for one validated configuration. Dataset
// paths and plugin spec URIs are resolved relative to pluginsRoot for
// plugin libraries and as given for the dataset path.
func New(cfg config.RunConfig, pluginsRoot string) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		pluginsRoot: pluginsRoot,
		runID:       uuid.NewString(),
	}
}

// RequestShutdown sets the cooperative shutdown flag observed between
// windows and between replayer ticks. It is safe to call from a signal
// handler.
func (o *Orchestrator) RequestShutdown() { o.shutdown.Store(true) }

// Run executes every ready plugin in sequence and returns the aggregated
// outcome plus a process exit code: 0 on any partial success, non-zero only
// if every plugin failed or a resource failure occurred (§7).
func (o *Orchestrator) Run() (Result, int) {
	log := obslog.Component("orchestrator")
	result := Result{RunID: o.runID}

	if err := os.MkdirAll(o.cfg.Output.Directory, 0o755); err != nil {
		log.Error().Err(err).Msg("failed to create output directory")
		return result, 1
	}

	cpuCount := runtime.NumCPU()
	anyResourceFailure := false
	anySucceeded := false

	for _, p := range o.cfg.Plugins {
		if !p.Ready() {
			continue
		}
		outcome := o.runOne(p, cpuCount)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Err == nil {
			anySucceeded = true
		} else if cortexerr.KindOf(outcome.Err) == cortexerr.KindResourceFailure {
			anyResourceFailure = true
		}

		if o.shutdown.Load() {
			break
		}
	}

	if !anySucceeded || anyResourceFailure {
		return result, 1
	}
	return result, 0
}

// runOne executes the full per-plugin lifecycle: scheduler construction,
// plugin load/register, optional background load, warm-up, repeats,
// teardown, and telemetry write.
func (o *Orchestrator) runOne(p config.PluginSpec, cpuCount int) PluginOutcome {
	log := obslog.Component("orchestrator")
	outcome := PluginOutcome{Name: p.Name}

	telem := telemetry.NewBuffer(1024)

	schedCfg := window.Config{
		WindowLengthSamples: p.Runtime.WindowLengthSamples,
		HopSamples:          p.Runtime.HopSamples,
		Channels:            p.Runtime.Channels,
		SampleRateHz:        o.cfg.Dataset.SampleRateHz,
		DType:               p.Runtime.DType,
		WarmupSeconds:       o.cfg.Benchmark.Parameters.WarmupSeconds,
		RunID:               o.runID,
	}
	sched, err := window.New(schedCfg, telem)
	if err != nil {
		outcome.Err = cortexerr.Wrap(cortexerr.KindConfiguration, "construct scheduler", err)
		return outcome
	}
	summary := telemetry.NewSummary()
	sched.SetSummary(summary)

	spec, err := loader.ParseSpec(p.SpecURI)
	if err != nil {
		outcome.Err = cortexerr.Wrap(cortexerr.KindLoadFailure, "parse plugin spec", err)
		return outcome
	}
	lib, err := loader.Open(o.pluginsRoot, spec)
	if err != nil {
		log.Warn().Err(err).Msg("plugin load failed; skipping")
		outcome.Err = cortexerr.Wrap(cortexerr.KindLoadFailure, fmt.Sprintf("load plugin %q", p.Name), err)
		return outcome
	}
	defer lib.Close()

	dtype, _ := abi.ParseDType(p.Runtime.DType)
	calibState, err := loadCalibrationState(p.CalibrationState)
	if err != nil {
		outcome.Err = cortexerr.Wrap(cortexerr.KindCalibrationFailure, fmt.Sprintf("load calibration state for %q", p.Name), err)
		return outcome
	}
	pluginCfg := abi.NewPluginConfig(
		o.cfg.Dataset.SampleRateHz,
		p.Runtime.WindowLengthSamples,
		p.Runtime.HopSamples,
		p.Runtime.Channels,
		dtype,
		p.Runtime.AllowInPlace,
		[]byte(p.Params),
		calibState,
	)

	initResult, err := lib.InitAndCheckVersion(pluginCfg)
	if err != nil {
		outcome.Err = cortexerr.Wrap(cortexerr.KindLoadFailure, fmt.Sprintf("init plugin %q", p.Name), err)
		return outcome
	}
	if err := sched.Register(p.Name, lib.API(), initResult); err != nil {
		outcome.Err = cortexerr.Wrap(cortexerr.KindLoadFailure, fmt.Sprintf("register plugin %q", p.Name), err)
		return outcome
	}

	profile, recognized := loadgen.ParseProfile(o.cfg.Benchmark.LoadProfile)
	if !recognized && o.cfg.Benchmark.LoadProfile != "" {
		log.Warn().Str("profile", o.cfg.Benchmark.LoadProfile).Msg("unrecognized load_profile; treating as idle")
	}
	ownerKey := "orchestrator:" + p.Name
	if err := loadgen.Start(ownerKey, profile, cpuCount); err != nil {
		log.Warn().Err(err).Msg("background load failed to start; continuing without it")
	}
	defer loadgen.Stop(ownerKey)

	segmentStart := telem.Len()

	if o.cfg.Benchmark.Parameters.WarmupSeconds > 0 {
		preWarmupLen := telem.Len()
		if err := o.runPhase(sched, o.cfg.Benchmark.Parameters.WarmupSeconds); err != nil {
			outcome.Err = cortexerr.Wrap(cortexerr.KindResourceFailure, "warm-up phase", err)
			sched.Destroy()
			return outcome
		}
		// Belt-and-suspenders: the scheduler's own warm-up counter should
		// already have suppressed every append during this phase.
		if telem.Len() != preWarmupLen {
			log.Warn().Int("unexpected_records", telem.Len()-preWarmupLen).Msg("warm-up phase accrued unexpected records; discarding")
		}
		segmentStart = telem.Len()
	}

	repeats := o.cfg.Benchmark.Parameters.Repeats
	if repeats < 1 {
		repeats = 1
	}
	for r := 0; r < repeats; r++ {
		if o.shutdown.Load() {
			break
		}
		sched.BeginRepeat(r)
		if err := o.runPhase(sched, o.cfg.Benchmark.Parameters.DurationSeconds); err != nil {
			outcome.Err = cortexerr.Wrap(cortexerr.KindResourceFailure, fmt.Sprintf("repeat %d", r), err)
			break
		}
	}

	sched.Destroy()

	snap := summary.Snapshot()
	log.Info().
		Str("plugin", p.Name).
		Int("windows_observed", snap.Count).
		Int("deadline_misses", snap.DeadlineMisses).
		Msg("run summary")

	segment := telem.Range(segmentStart, telem.Len())
	outcome.Records = len(segment)
	if err := o.writeSegment(p.Name, segment); err != nil {
		if outcome.Err == nil {
			outcome.Err = cortexerr.Wrap(cortexerr.KindResourceFailure, "write telemetry", err)
		}
		return outcome
	}
	outcome.WroteOutput = true
	return outcome
}

// runPhase streams the dataset through the scheduler for durationSeconds of
// wall-clock time, honoring the cooperative shutdown flag between ticks.
// The replayer's pacing goroutine is the dispatch thread spec §4.7/§5
// describe: the real-time scheduling class and CPU affinity are applied
// there, once, on the first tick, after runtime.LockOSThread has pinned
// that goroutine to its underlying OS thread for the rest of this phase —
// applying it any earlier (e.g. on the orchestrator's own goroutine) would
// pin a thread that never runs process().
func (o *Orchestrator) runPhase(sched *window.Scheduler, durationSeconds float64) error {
	if durationSeconds <= 0 {
		return nil
	}
	r, err := replay.New(replay.Config{
		DatasetPath:  o.cfg.Dataset.Path,
		SampleRateHz: o.cfg.Dataset.SampleRateHz,
		HopSamples:   sched.HopSamples(),
		Channels:     sched.Channels(),
	})
	if err != nil {
		return err
	}
	defer r.Destroy()

	log := obslog.Component("orchestrator")
	var applyPolicyOnce sync.Once

	deadline := time.Now().Add(time.Duration(durationSeconds * float64(time.Second)))
	err = r.Start(func(chunk []float32) bool {
		applyPolicyOnce.Do(func() {
			runtime.LockOSThread()
			applyRealtimePolicy(o.cfg.Realtime, log)
		})
		if o.shutdown.Load() || time.Now().After(deadline) {
			return false
		}
		sched.FeedSamples(chunk)
		return true
	})
	if err != nil {
		return err
	}
	time.Sleep(time.Until(deadline))
	r.Stop()
	sched.Flush()
	return nil
}

// writeSegment serializes records to the configured output directory and
// format, one file per plugin.
func (o *Orchestrator) writeSegment(pluginName string, records []telemetry.WindowRecord) error {
	format := o.cfg.Output.Format
	ext := "ndjson"
	if strings.EqualFold(format, "csv") {
		ext = "csv"
	}
	path := filepath.Join(o.cfg.Output.Directory, fmt.Sprintf("%s.%s", pluginName, ext))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	host, _ := os.Hostname()
	meta := telemetry.Metadata{
		RunID:    o.runID,
		Host:     host,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUCount: runtime.NumCPU(),
	}
	return telemetry.FormatterFor(format).Format(f, meta, records)
}

func loadCalibrationState(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("calibration state path %q must not contain \"..\"", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calibration state %q: %w", path, err)
	}
	defer f.Close()

	state, err := calibstate.Load(f)
	if err != nil {
		return nil, fmt.Errorf("decode calibration state %q: %w", path, err)
	}
	return state.Payload, nil
}
