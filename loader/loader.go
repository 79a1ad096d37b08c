// Package loader resolves a plugin spec URI to a dynamic library, binds the
// ABI symbol set, rejects a failed or null-handle init, and builds the API
// table a scheduler dispatches through (spec component C1).
//
// A spec URI has the form `<dir>/<name>@<dtype>` (§4.1). The loader composes
// the on-disk library path by appending the platform dynamic-library
// prefix/suffix to <name> and rejects any URI containing a `..` path
// component, so a plugin spec can never escape the configured primitives
// root.
package loader

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cortexbench/cortex/abi"
)

// Spec is a parsed plugin spec URI.
type Spec struct {
	Dir   string
	Name  string
	DType string
}

// ParseSpec splits a spec URI of the form `<dir>/<name>@<dtype>` and rejects
// any `..` path component anywhere in it.
func ParseSpec(uri string) (Spec, error) {
	if strings.Contains(uri, "..") {
		return Spec{}, fmt.Errorf("loader: spec URI %q must not contain \"..\"", uri)
	}
	dir, nameDtype := filepath.Split(uri)
	name, dtype, ok := strings.Cut(nameDtype, "@")
	if !ok || name == "" {
		return Spec{}, fmt.Errorf("loader: spec URI %q missing @dtype suffix", uri)
	}
	return Spec{Dir: filepath.Clean(dir), Name: name, DType: dtype}, nil
}

// LibraryFileName returns the platform dynamic-library file name for a
// plugin name: libNAME.so on Linux, libNAME.dylib on Darwin.
func LibraryFileName(name string) string {
	switch runtime.GOOS {
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// ResolvePath composes and validates the on-disk library path for a spec,
// rejecting any result that escapes root.
func ResolvePath(root string, spec Spec) (string, error) {
	dir := spec.Dir
	if dir == "" || dir == "." {
		dir = root
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	path := filepath.Join(dir, LibraryFileName(spec.Name))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("loader: resolve root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("loader: resolve path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("loader: spec %q resolves outside primitives root %q", spec.Name, root)
	}
	return path, nil
}

// Library is a loaded plugin library. Its handle must remain live until
// after the last Teardown call through its API — the orchestrator must
// destroy the scheduler (which calls Teardown) before calling Close (§4.1).
type Library struct {
	path   string
	handle dlHandle
	api    abi.API
}

// Path returns the resolved on-disk library path this Library was opened
// from.
func (l *Library) Path() string { return l.path }

// API returns the bound symbol table. Calling any of its functions after
// Close is undefined behavior, mirroring the underlying dlopen contract.
func (l *Library) API() abi.API { return l.api }

// Open resolves spec against root, opens the resulting dynamic library, and
// binds the mandatory init/process/teardown symbols plus the optional
// calibrate symbol. It does not call Init; that happens in
// InitAndCheckVersion once the caller has built the PluginConfig.
func Open(root string, spec Spec) (*Library, error) {
	path, err := ResolvePath(root, spec)
	if err != nil {
		return nil, err
	}
	h, err := dlOpen(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %q: %w", path, err)
	}

	initFn, err := dlLookupInit(h)
	if err != nil {
		dlClose(h)
		return nil, fmt.Errorf("loader: %q missing symbol \"init\": %w", path, err)
	}
	processFn, err := dlLookupProcess(h)
	if err != nil {
		dlClose(h)
		return nil, fmt.Errorf("loader: %q missing symbol \"process\": %w", path, err)
	}
	teardownFn, err := dlLookupTeardown(h)
	if err != nil {
		dlClose(h)
		return nil, fmt.Errorf("loader: %q missing symbol \"teardown\": %w", path, err)
	}
	calibrateFn, _ := dlLookupCalibrate(h) // optional; absence is not an error

	return &Library{
		path:   path,
		handle: h,
		api: abi.API{
			Init:      initFn,
			Process:   processFn,
			Teardown:  teardownFn,
			Calibrate: calibrateFn,
		},
	}, nil
}

// Close unloads the library. The caller must guarantee no bound symbol is
// still in use — in practice, that Teardown has already been called for
// every handle obtained through Init.
func (l *Library) Close() error {
	return dlClose(l.handle)
}

// InitAndCheckVersion calls the plugin's Init with cfg, which carries the
// host's abi.Version and struct_size for the plugin to check. The
// PluginInitResult has no version field, so this function does not compare
// versions itself: it returns an error when Init fails or returns a null
// handle. When the library exports calibrate, CapOfflineCalibration is set
// in the returned Capabilities alongside whatever bits the plugin reported.
func (l *Library) InitAndCheckVersion(cfg abi.PluginConfig) (abi.PluginInitResult, error) {
	res, err := l.api.Init(cfg)
	if err != nil {
		return abi.PluginInitResult{}, fmt.Errorf("loader: %q init: %w", l.path, err)
	}
	if res.Handle == 0 {
		return abi.PluginInitResult{}, fmt.Errorf("loader: %q init returned a null handle", l.path)
	}
	if l.api.IsTrainable() {
		res.Capabilities |= abi.CapOfflineCalibration
	}
	return res, nil
}
