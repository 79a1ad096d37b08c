//go:build windows
// +build windows

// Windows implementation of thread CPU affinity. Windows exposes no
// equivalent of SCHED_FIFO/SCHED_RR/SCHED_DEADLINE through a stable syscall
// surface, so the scheduling-class half of the policy always degrades here;
// only affinity pinning is applied.
package rtpolicy

import (
	"fmt"
	"syscall"
)

func setAffinityPlatform(cpus []int) error {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask := kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread := kernel32.NewProc("GetCurrentThread")
	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(CPUListToMask(cpus))
	ret, _, callErr := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return fmt.Errorf("SetThreadAffinityMask: %w", callErr)
	}
	return nil
}

func setSchedulerPlatform(p Policy) error {
	return fmt.Errorf("rtpolicy: scheduling class %v not supported on windows", p.Class)
}
