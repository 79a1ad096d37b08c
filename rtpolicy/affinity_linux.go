//go:build linux
// +build linux

// Linux implementation of thread CPU affinity and scheduling-class policy,
// built on golang.org/x/sys/unix rather than cgo: sched_setaffinity and
// sched_setscheduler are plain syscalls, so no C compiler is required to
// apply the real-time policy.
package rtpolicy

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func setAffinityPlatform(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity: %w", err)
	}
	return nil
}

func setSchedulerPlatform(p Policy) error {
	var policy int
	switch p.Class {
	case SchedulerFIFO:
		policy = unix.SCHED_FIFO
	case SchedulerRR:
		policy = unix.SCHED_RR
	case SchedulerDeadline:
		// SCHED_DEADLINE requires sched_setattr, not exposed by
		// golang.org/x/sys/unix's SchedSetscheduler; treat it as
		// unsupported here and degrade gracefully like any other
		// platform limitation.
		return fmt.Errorf("SCHED_DEADLINE not supported via sched_setscheduler")
	default:
		return nil
	}
	param := unix.SchedParam{Priority: int32(p.Priority)}
	if err := unix.SchedSetscheduler(0, policy, &param); err != nil {
		return fmt.Errorf("sched_setscheduler: %w", err)
	}
	return nil
}
