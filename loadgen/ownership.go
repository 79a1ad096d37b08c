// Package loadgen manages the process-wide background load generator: a
// singleton external child process used to pin CPU frequency on platforms
// that lack a governor interface (spec component C6).
package loadgen

import (
	"sync"
)

// Profile selects a load intensity. Workers/load percentage are resolved
// against the detected CPU count at Start time.
type Profile string

const (
	ProfileIdle   Profile = "idle"
	ProfileMedium Profile = "medium"
	ProfileHeavy  Profile = "heavy"
)

// ParseProfile maps a configuration string to a Profile, treating any
// unrecognized value as idle with a reported warning — never a hard
// failure, since background load is advisory to measurement, not required
// for correctness.
func ParseProfile(s string) (p Profile, recognized bool) {
	switch Profile(s) {
	case ProfileIdle, ProfileMedium, ProfileHeavy:
		return Profile(s), true
	default:
		return ProfileIdle, false
	}
}

// controller is the process-wide background-load singleton. Only the
// instance that called Start may call Stop; calls from any other owner key
// are a no-op. This is the "process-wide singleton with ownership
// tracking" pattern: a resource holder guarded by a mutex (rather than a
// raw pointer comparison) with the owner identified by a stable string key
// supplied by the caller.
type controller struct {
	mu      sync.Mutex
	owner   string
	hasOwner bool
	proc    *childProcess
}

var global = &controller{}

// Start begins a background load under ownerKey if no load is currently
// running. Returns an error on double-start (an owner already holds the
// resource) or on a fork failure; a missing load-generator executable
// degrades gracefully (no child, no error) per §4.6.
func Start(ownerKey string, profile Profile, cpuCount int) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.hasOwner {
		return errAlreadyStarted
	}

	proc, err := spawn(profile, cpuCount)
	if err != nil {
		return err
	}
	global.owner = ownerKey
	global.hasOwner = true
	global.proc = proc
	return nil
}

// Stop releases the background load if ownerKey is the current owner; it
// is a no-op for any other caller, including one that never started a
// load.
func Stop(ownerKey string) error {
	global.mu.Lock()
	if !global.hasOwner || global.owner != ownerKey {
		global.mu.Unlock()
		return nil
	}
	proc := global.proc
	global.hasOwner = false
	global.owner = ""
	global.proc = nil
	global.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.shutdown()
}

// IsRunning reports whether a background load is currently active,
// regardless of owner. Intended for diagnostics only.
func IsRunning() bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.hasOwner
}
