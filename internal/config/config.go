// Package config binds the validated, in-memory run configuration consumed
// by the orchestrator (spec component C8). Parsing the external YAML form
// lives in load.go; this file defines the shape and its invariants.
package config

import "fmt"

// SystemConfig is informational metadata carried into telemetry output.
type SystemConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// DatasetConfig describes the binary sample file the replayer streams.
type DatasetConfig struct {
	Path         string  `yaml:"path"`
	SampleRateHz float64 `yaml:"sample_rate_hz"`
	Channels     int     `yaml:"channels"`
	Format       string  `yaml:"format"`
}

// DeadlineParams is required only when Realtime.Scheduler == "deadline".
type DeadlineParams struct {
	RuntimeUs  uint64 `yaml:"runtime_us"`
	PeriodUs   uint64 `yaml:"period_us"`
	DeadlineUs uint64 `yaml:"deadline_us"`
}

// RealtimeConfig configures the scheduling policy applicator (C7).
type RealtimeConfig struct {
	Scheduler   string         `yaml:"scheduler"`
	Priority    int            `yaml:"priority"`
	CPUAffinity []int          `yaml:"cpu_affinity"`
	DeadlineMs  float64        `yaml:"deadline_ms"`
	Deadline    DeadlineParams `yaml:"deadline"`
}

// BenchmarkParameters controls per-repeat timing.
type BenchmarkParameters struct {
	DurationSeconds float64 `yaml:"duration_seconds"`
	Repeats         int     `yaml:"repeats"`
	WarmupSeconds   float64 `yaml:"warmup_seconds"`
}

// BenchmarkConfig is the benchmark-shape section of the configuration.
type BenchmarkConfig struct {
	Metrics     []string            `yaml:"metrics"`
	Parameters  BenchmarkParameters `yaml:"parameters"`
	LoadProfile string              `yaml:"load_profile"`
}

// OutputConfig selects where and how telemetry is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"`
}

// PluginRuntime is the strictly-validated runtime shape for a ready
// plugin — unknown keys here are a configuration error (§6).
type PluginRuntime struct {
	WindowLengthSamples int    `yaml:"window_length_samples"`
	HopSamples          int    `yaml:"hop_samples"`
	Channels            int    `yaml:"channels"`
	DType               string `yaml:"dtype"`
	AllowInPlace        bool   `yaml:"allow_in_place"`
}

// PluginSpec is one entry in the plugins list.
type PluginSpec struct {
	Name             string        `yaml:"name"`
	Status           string        `yaml:"status"`
	SpecURI          string        `yaml:"spec_uri"`
	Runtime          PluginRuntime `yaml:"runtime"`
	Params           string        `yaml:"params"`
	CalibrationState string        `yaml:"calibration_state"`
}

// Ready reports whether this plugin is marked to run.
func (p PluginSpec) Ready() bool { return p.Status == "ready" }

// RunConfig is the validated, in-memory configuration consumed by the
// orchestrator.
type RunConfig struct {
	System    SystemConfig    `yaml:"system"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Output    OutputConfig    `yaml:"output"`
	Plugins   []PluginSpec    `yaml:"plugins"`
}

// Validate enforces the invariants from §3/§4.8. It checks every ready
// plugin; a plugin that is not ready is not validated further since it
// will be skipped entirely.
func (c RunConfig) Validate() error {
	if c.Dataset.SampleRateHz <= 0 {
		return fmt.Errorf("config: dataset.sample_rate_hz must be > 0, got %v", c.Dataset.SampleRateHz)
	}
	if c.Dataset.Channels <= 0 {
		return fmt.Errorf("config: dataset.channels must be > 0, got %d", c.Dataset.Channels)
	}
	if c.Benchmark.Parameters.Repeats < 1 {
		return fmt.Errorf("config: benchmark.parameters.repeats must be >= 1, got %d", c.Benchmark.Parameters.Repeats)
	}
	if c.Realtime.Scheduler == "deadline" {
		d := c.Realtime.Deadline
		if d.RuntimeUs == 0 || d.PeriodUs == 0 || d.DeadlineUs == 0 {
			return fmt.Errorf("config: realtime.deadline parameters are required when scheduler=deadline")
		}
	}

	for i, p := range c.Plugins {
		if !p.Ready() {
			continue
		}
		if p.SpecURI == "" {
			return fmt.Errorf("config: plugins[%d] %q is ready but has no spec_uri", i, p.Name)
		}
		h, w := p.Runtime.HopSamples, p.Runtime.WindowLengthSamples
		if h <= 0 || h > w {
			return fmt.Errorf("config: plugins[%d] %q has invalid hop/window (0 < H <= W required), got H=%d W=%d", i, p.Name, h, w)
		}
		if p.Runtime.Channels != 0 && p.Runtime.Channels != c.Dataset.Channels {
			return fmt.Errorf("config: plugins[%d] %q runtime.channels=%d does not match dataset.channels=%d", i, p.Name, p.Runtime.Channels, c.Dataset.Channels)
		}
	}
	return nil
}
