//go:build !((linux || darwin) && cgo)
// +build !linux,!darwin !cgo

// Stub dynamic-library binding for platforms or builds without cgo. Plugin
// loading is inherently a cgo/dlopen concern (§4.1); without it the loader
// degrades to a clear error rather than silently doing nothing, since a
// missing plugin backend is a configuration error, not a measurement
// condition to gracefully continue past.
package loader

import (
	"errors"

	"github.com/cortexbench/cortex/abi"
)

var errUnsupported = errors.New("loader: dynamic plugin loading requires cgo on linux or darwin")

type dlHandle struct{}

func dlOpen(path string) (dlHandle, error) { return dlHandle{}, errUnsupported }
func dlClose(h dlHandle) error             { return nil }

func dlLookupInit(h dlHandle) (func(abi.PluginConfig) (abi.PluginInitResult, error), error) {
	return nil, errUnsupported
}

func dlLookupProcess(h dlHandle) (func(handle uintptr, input, output []float32), error) {
	return nil, errUnsupported
}

func dlLookupTeardown(h dlHandle) (func(handle uintptr), error) {
	return nil, errUnsupported
}

func dlLookupCalibrate(h dlHandle) (func(cfg abi.PluginConfig, trainingData []float32, numWindows int) ([]byte, error), error) {
	return nil, errUnsupported
}
