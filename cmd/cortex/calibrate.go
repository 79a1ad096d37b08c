package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cortexbench/cortex/abi"
	"github.com/cortexbench/cortex/calibstate"
	"github.com/cortexbench/cortex/loader"
	"github.com/cortexbench/cortex/replay"
)

// calibration-specific defaults; the calibrate verb's flag surface per
// spec.md §6 is limited to --kernel/--dataset/--windows/--output, so the
// shape parameters below are fixed rather than independently configurable.
const (
	calibWindowLengthSamples = 160
	calibChannels            = 1
	calibSampleRateHz        = 160
	calibStateVersion        = 1
)

// runCalibration executes the calibration-only path of one plugin: load the
// library, read enough training samples from dataset to cover windows
// windows, call its calibrate export, and persist the resulting blob in the
// on-disk calibration-state format (§6).
func runCalibration(pluginsRoot, kernelSpec, dataset string, windows int, output string) error {
	spec, err := loader.ParseSpec(kernelSpec)
	if err != nil {
		return fmt.Errorf("parse kernel spec: %w", err)
	}
	lib, err := loader.Open(pluginsRoot, spec)
	if err != nil {
		return fmt.Errorf("open kernel library: %w", err)
	}
	defer lib.Close()

	if !lib.API().IsTrainable() {
		return fmt.Errorf("kernel %q does not export calibrate", kernelSpec)
	}

	dtype, ok := abi.ParseDType(spec.DType)
	if !ok {
		return fmt.Errorf("unrecognized dtype %q in kernel spec", spec.DType)
	}

	cfg := abi.NewPluginConfig(calibSampleRateHz, calibWindowLengthSamples, calibWindowLengthSamples, calibChannels, dtype, false, nil, nil)

	trainingData, err := readTrainingData(dataset, windows*calibWindowLengthSamples*calibChannels)
	if err != nil {
		return fmt.Errorf("read training data: %w", err)
	}

	payload, err := lib.API().Calibrate(cfg, trainingData, windows)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	if payload == nil {
		return fmt.Errorf("calibrate returned a null state for kernel %q", kernelSpec)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := calibstate.Save(out, calibStateVersion, payload); err != nil {
		return fmt.Errorf("save calibration state: %w", err)
	}
	return nil
}

// readTrainingData reads up to wantFloats float32 samples from path,
// reusing the replayer's little-endian codec. A dataset shorter than
// wantFloats yields whatever it has.
func readTrainingData(path string, wantFloats int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	available := int(info.Size() / 4)
	n := wantFloats
	if n > available {
		n = available
	}
	raw := make([]byte, n*4)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	replay.DecodeFloat32LE(raw, out)
	return out, nil
}
