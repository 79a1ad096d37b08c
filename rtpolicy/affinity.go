// Package rtpolicy applies the configured thread scheduling class and CPU
// affinity to the dispatch thread (spec component C7). Platform-specific
// implementations live in separate files guarded by build tags; this file
// holds the platform-neutral entry points.
package rtpolicy

import (
	"fmt"
	"runtime"

	"github.com/cortexbench/cortex/internal/normalize"
)

// SchedulerClass selects a real-time scheduling policy for the dispatch thread.
type SchedulerClass int

const (
	// SchedulerOther is the default, non-real-time scheduling class.
	SchedulerOther SchedulerClass = iota
	// SchedulerFIFO is a fixed-priority, run-to-block real-time class.
	SchedulerFIFO
	// SchedulerRR is a fixed-priority, round-robin real-time class.
	SchedulerRR
	// SchedulerDeadline is the deadline (sporadic-task) scheduling class.
	SchedulerDeadline
)

// ParseSchedulerClass maps a configuration string (§6 realtime.scheduler)
// onto a SchedulerClass. Unknown values fall back to SchedulerOther.
func ParseSchedulerClass(s string) SchedulerClass {
	switch s {
	case "fifo":
		return SchedulerFIFO
	case "rr":
		return SchedulerRR
	case "deadline":
		return SchedulerDeadline
	default:
		return SchedulerOther
	}
}

// Deadline carries the three deadline-scheduler parameters from §6
// (realtime.deadline.{runtime_us,period_us,deadline_us}).
type Deadline struct {
	RuntimeUs  uint64
	PeriodUs   uint64
	DeadlineUs uint64
}

// Policy describes the real-time policy to apply to the current OS thread.
type Policy struct {
	Class       SchedulerClass
	Priority    int // used by SchedulerFIFO/SchedulerRR
	Deadline    Deadline
	CPUAffinity []int // logical CPU indices; empty means no affinity pinning
}

// Apply pins the calling OS thread according to p. It is advisory: on
// platforms without support, or when the caller lacks the privilege to set
// the requested scheduling class, Apply reports the condition through the
// returned degraded flag and error (it does not log it itself) and leaves
// the thread under default scheduling instead of failing the run. It must be called from the goroutine that will run the
// dispatch loop, since Go exposes no cross-goroutine thread handle.
func Apply(p Policy) (degraded bool, err error) {
	if len(p.CPUAffinity) > 0 {
		cpus := normalize.CPUIndices(p.CPUAffinity, runtime.NumCPU())
		if len(cpus) == 0 {
			degraded = true
			err = fmt.Errorf("rtpolicy: affinity degraded: no requested CPU index is valid on this host")
		} else if aerr := setAffinityPlatform(cpus); aerr != nil {
			degraded = true
			err = fmt.Errorf("rtpolicy: affinity degraded: %w", aerr)
		}
	}
	if p.Class != SchedulerOther {
		if serr := setSchedulerPlatform(p); serr != nil {
			degraded = true
			if err != nil {
				err = fmt.Errorf("%w; scheduler degraded: %v", err, serr)
			} else {
				err = fmt.Errorf("rtpolicy: scheduler degraded: %w", serr)
			}
		}
	}
	return degraded, err
}

// CPUListToMask folds a list of logical CPU indices into a bitmask, mirroring
// the cpu_affinity configuration key from §6.
func CPUListToMask(cpus []int) uint64 {
	var mask uint64
	for _, c := range cpus {
		if c >= 0 && c < 64 {
			mask |= 1 << uint(c)
		}
	}
	return mask
}
