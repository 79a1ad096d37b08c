//go:build !linux && !windows
// +build !linux,!windows

// Stub implementation for platforms with neither a real-time scheduling
// class surface nor a stable affinity syscall wired up here. Degrades
// gracefully rather than failing the run, per §4.7.
package rtpolicy

import "errors"

func setAffinityPlatform(cpus []int) error {
	return errors.New("rtpolicy: CPU affinity not supported on this platform")
}

func setSchedulerPlatform(p Policy) error {
	return errors.New("rtpolicy: scheduling class policy not supported on this platform")
}
