// Package abi defines the frozen binary interface contract between the
// host and a dynamically loaded kernel plugin (spec component C2). The
// types here cross the host/plugin boundary: process must remain hermetic
// (no heap allocation, no I/O, no blocking syscalls) on every call, so the
// layout favors fixed-size, pre-allocated fields over anything that would
// force the host to allocate in the hot path.
package abi

import "unsafe"

// Version is the host's compile-time ABI version constant. §9 notes the
// source carried contradictory values (1, 2, 3 across files); this
// implementation settles on 2. The host stamps it into every PluginConfig
// (NewPluginConfig) and leaves the comparison to the plugin's init.
// PluginInitResult carries no version field, so the loader does not compare
// a plugin-reported version against this constant; it only rejects an init
// that fails or returns a null handle.
const Version uint32 = 2

// DType enumerates the sample encodings a plugin may advertise or require.
type DType int

const (
	DTypeFloat32 DType = iota
	DTypeQ15
	DTypeQ7
)

// String renders the dtype the way it appears in configuration (§6).
func (d DType) String() string {
	switch d {
	case DTypeFloat32:
		return "float32"
	case DTypeQ15:
		return "q15"
	case DTypeQ7:
		return "q7"
	default:
		return "unknown"
	}
}

// ParseDType maps a configuration string onto a DType.
func ParseDType(s string) (DType, bool) {
	switch s {
	case "float32":
		return DTypeFloat32, true
	case "q15":
		return DTypeQ15, true
	case "q7":
		return DTypeQ7, true
	default:
		return 0, false
	}
}

// Capability bits reserved in PluginInitResult.Capabilities.
type Capability uint32

const (
	// CapOfflineCalibration marks a plugin that exports calibrate and
	// consumes a calibration-state blob at init.
	CapOfflineCalibration Capability = 1 << 0
)

// Has reports whether the capability bit c is set.
func (caps Capability) Has(c Capability) bool { return caps&c != 0 }

// Blob is a caller-owned pointer+length pair, mirroring the ABI's raw
// buffer convention for the kernel-parameter and calibration-state blobs
// (§3). It is borrowed: the plugin must copy any bytes it needs to retain
// past the call that handed it the Blob.
type Blob struct {
	Data []byte
}

// PluginConfig is filled by the host and handed to a plugin's init
// function. struct_size records the host-sized struct so an older plugin
// built against a smaller struct can still validate the prefix fields it
// understands and tolerate the trailing bytes of a newer host (§4.2, §9).
type PluginConfig struct {
	ABIVersion          uint32
	StructSize          uint32
	SampleRateHz        float64
	WindowLengthSamples int
	HopSamples          int
	Channels            int
	DType               DType
	AllowInPlace        bool
	KernelParams        Blob
	CalibrationState    Blob
}

// StructSize returns the host-sized struct_size value to embed in a
// PluginConfig, per the trailing-byte-tolerance evolution rule of §4.2.
func StructSize() uint32 {
	return uint32(unsafe.Sizeof(PluginConfig{}))
}

// NewPluginConfig builds a PluginConfig stamped with the host's ABI version
// and struct size, ready for a loader to hand to a plugin's init function.
func NewPluginConfig(sampleRateHz float64, w, h, channels int, dtype DType, allowInPlace bool, kernelParams, calibState []byte) PluginConfig {
	return PluginConfig{
		ABIVersion:          Version,
		StructSize:          StructSize(),
		SampleRateHz:        sampleRateHz,
		WindowLengthSamples: w,
		HopSamples:          h,
		Channels:            channels,
		DType:               dtype,
		AllowInPlace:        allowInPlace,
		KernelParams:        Blob{Data: kernelParams},
		CalibrationState:    Blob{Data: calibState},
	}
}

// PluginInitResult is returned by a plugin's init function.
type PluginInitResult struct {
	Handle                  uintptr
	OutputWindowLenSamples  int
	OutputChannels          int
	Capabilities            Capability
}

// ResolveOutputShape applies the dimension policy of §4.4: a plugin that
// reports zero for either output dimension inherits the scheduler's own
// (W, C), accommodating plugins that reuse the input shape.
func (r PluginInitResult) ResolveOutputShape(w, c int) (outW, outC int) {
	outW, outC = r.OutputWindowLenSamples, r.OutputChannels
	if outW == 0 {
		outW = w
	}
	if outC == 0 {
		outC = c
	}
	return outW, outC
}

// API is the three-or-four function bundle resolved from a plugin library.
// Calibrate is nil unless the library exports it; its presence is what
// sets CapOfflineCalibration in practice, though the host also honors
// whatever Capabilities the plugin itself reports from Init.
type API struct {
	Init      func(cfg PluginConfig) (PluginInitResult, error)
	Process   func(handle uintptr, input, output []float32)
	Teardown  func(handle uintptr)
	Calibrate func(cfg PluginConfig, trainingData []float32, numWindows int) ([]byte, error)
}

// IsTrainable reports whether this API bundle exports calibrate.
func (a API) IsTrainable() bool { return a.Calibrate != nil }
