//go:build (linux || darwin) && cgo
// +build linux darwin
// +build cgo

// POSIX dynamic-library binding via dlopen/dlsym. The C side defines the
// mirror of abi.PluginConfig/abi.PluginInitResult so a plugin built against
// the C ABI sees exactly the layout §3/§4.2 describe, and a handful of
// trampolines that cast the dlsym'd symbol to the right C function-pointer
// type before calling through it — cgo cannot call an arbitrary function
// pointer directly, so the cast has to happen on the C side.
package loader

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	uint32_t abi_version;
	uint32_t struct_size;
	double   sample_rate_hz;
	int64_t  window_length_samples;
	int64_t  hop_samples;
	int64_t  channels;
	int32_t  dtype;
	uint8_t  allow_in_place;
	uint8_t  _pad[3];
	const uint8_t *kernel_params_ptr;
	int64_t  kernel_params_len;
	const uint8_t *calibration_state_ptr;
	int64_t  calibration_state_len;
} cortex_plugin_config_t;

typedef struct {
	uintptr_t handle;
	int64_t   output_window_length_samples;
	int64_t   output_channels;
	uint32_t  capabilities;
} cortex_plugin_init_result_t;

typedef cortex_plugin_init_result_t (*cortex_init_fn)(const cortex_plugin_config_t *cfg);
typedef void (*cortex_process_fn)(uintptr_t handle, const float *input, float *output);
typedef void (*cortex_teardown_fn)(uintptr_t handle);
typedef uint8_t *(*cortex_calibrate_fn)(const cortex_plugin_config_t *cfg, const float *training_data, int64_t num_windows, int64_t *out_len);

static cortex_plugin_init_result_t cortex_call_init(void *fn, const cortex_plugin_config_t *cfg) {
	return ((cortex_init_fn)fn)(cfg);
}
static void cortex_call_process(void *fn, uintptr_t handle, const float *input, float *output) {
	((cortex_process_fn)fn)(handle, input, output);
}
static void cortex_call_teardown(void *fn, uintptr_t handle) {
	((cortex_teardown_fn)fn)(handle);
}
static uint8_t *cortex_call_calibrate(void *fn, const cortex_plugin_config_t *cfg, const float *training_data, int64_t num_windows, int64_t *out_len) {
	return ((cortex_calibrate_fn)fn)(cfg, training_data, num_windows, out_len);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/cortexbench/cortex/abi"
)

// dlHandle wraps the opaque dlopen handle.
type dlHandle struct {
	h    unsafe.Pointer
	path string
}

func dlOpen(path string) (dlHandle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.dlopen(cpath, C.RTLD_NOW)
	if h == nil {
		return dlHandle{}, fmt.Errorf("dlopen: %s", C.GoString(C.dlerror()))
	}
	return dlHandle{h: h, path: path}, nil
}

func dlClose(h dlHandle) error {
	if h.h == nil {
		return nil
	}
	if C.dlclose(h.h) != 0 {
		return fmt.Errorf("dlclose: %s", C.GoString(C.dlerror()))
	}
	return nil
}

func dlSymbol(h dlHandle, name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror() // clear any pending error
	sym := C.dlsym(h.h, cname)
	if errStr := C.dlerror(); errStr != nil {
		return nil, fmt.Errorf("dlsym(%s): %s", name, C.GoString(errStr))
	}
	if sym == nil {
		return nil, fmt.Errorf("dlsym(%s): symbol not found", name)
	}
	return sym, nil
}

// toCConfig marshals a Go PluginConfig into the C mirror struct. Go keeps
// ownership of the backing byte slices for the duration of the call, which
// satisfies the borrowed-blob lifetime contract of §3.
func toCConfig(cfg abi.PluginConfig) (cStruct C.cortex_plugin_config_t, pin func()) {
	var pinner runtime.Pinner
	cStruct = C.cortex_plugin_config_t{
		abi_version:           C.uint32_t(cfg.ABIVersion),
		struct_size:           C.uint32_t(cfg.StructSize),
		sample_rate_hz:        C.double(cfg.SampleRateHz),
		window_length_samples: C.int64_t(cfg.WindowLengthSamples),
		hop_samples:           C.int64_t(cfg.HopSamples),
		channels:              C.int64_t(cfg.Channels),
		dtype:                 C.int32_t(cfg.DType),
	}
	if cfg.AllowInPlace {
		cStruct.allow_in_place = 1
	}
	if len(cfg.KernelParams.Data) > 0 {
		pinner.Pin(&cfg.KernelParams.Data[0])
		cStruct.kernel_params_ptr = (*C.uint8_t)(unsafe.Pointer(&cfg.KernelParams.Data[0]))
		cStruct.kernel_params_len = C.int64_t(len(cfg.KernelParams.Data))
	}
	if len(cfg.CalibrationState.Data) > 0 {
		pinner.Pin(&cfg.CalibrationState.Data[0])
		cStruct.calibration_state_ptr = (*C.uint8_t)(unsafe.Pointer(&cfg.CalibrationState.Data[0]))
		cStruct.calibration_state_len = C.int64_t(len(cfg.CalibrationState.Data))
	}
	// The struct handed to C holds Go pointers to the byte slices above,
	// and cgo rejects an argument whose memory holds unpinned Go pointers,
	// so the slices are pinned until the caller runs the returned func
	// after the C call returns.
	return cStruct, pinner.Unpin
}

func dlLookupInit(h dlHandle) (func(abi.PluginConfig) (abi.PluginInitResult, error), error) {
	sym, err := dlSymbol(h, "init")
	if err != nil {
		return nil, err
	}
	return func(cfg abi.PluginConfig) (abi.PluginInitResult, error) {
		cCfg, unpin := toCConfig(cfg)
		defer unpin()
		res := C.cortex_call_init(sym, &cCfg)
		return abi.PluginInitResult{
			Handle:                 uintptr(res.handle),
			OutputWindowLenSamples: int(res.output_window_length_samples),
			OutputChannels:         int(res.output_channels),
			Capabilities:           abi.Capability(res.capabilities),
		}, nil
	}, nil
}

func dlLookupProcess(h dlHandle) (func(handle uintptr, input, output []float32), error) {
	sym, err := dlSymbol(h, "process")
	if err != nil {
		return nil, err
	}
	return func(handle uintptr, input, output []float32) {
		var inPtr, outPtr *C.float
		if len(input) > 0 {
			inPtr = (*C.float)(unsafe.Pointer(&input[0]))
		}
		if len(output) > 0 {
			outPtr = (*C.float)(unsafe.Pointer(&output[0]))
		}
		C.cortex_call_process(sym, C.uintptr_t(handle), inPtr, outPtr)
	}, nil
}

func dlLookupTeardown(h dlHandle) (func(handle uintptr), error) {
	sym, err := dlSymbol(h, "teardown")
	if err != nil {
		return nil, err
	}
	return func(handle uintptr) {
		C.cortex_call_teardown(sym, C.uintptr_t(handle))
	}, nil
}

func dlLookupCalibrate(h dlHandle) (func(cfg abi.PluginConfig, trainingData []float32, numWindows int) ([]byte, error), error) {
	sym, err := dlSymbol(h, "calibrate")
	if err != nil {
		return nil, err
	}
	return func(cfg abi.PluginConfig, trainingData []float32, numWindows int) ([]byte, error) {
		cCfg, unpin := toCConfig(cfg)
		defer unpin()
		var dataPtr *C.float
		if len(trainingData) > 0 {
			dataPtr = (*C.float)(unsafe.Pointer(&trainingData[0]))
		}
		var outLen C.int64_t
		outPtr := C.cortex_call_calibrate(sym, &cCfg, dataPtr, C.int64_t(numWindows), &outLen)
		if outPtr == nil {
			return nil, fmt.Errorf("calibrate returned null state")
		}
		defer C.free(unsafe.Pointer(outPtr))
		return C.GoBytes(unsafe.Pointer(outPtr), C.int(outLen)), nil
	}, nil
}
