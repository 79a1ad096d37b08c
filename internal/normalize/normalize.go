// Package normalize validates configured CPU indices against actual
// hardware topology before they reach a scheduling syscall, so a
// misconfigured cpu_affinity list degrades to "skip that index" rather than
// failing the affinity syscall outright.
package normalize

import "github.com/cortexbench/cortex/internal/obslog"

// CPUIndices filters requested down to indices in [0, maxCPUs), logging and
// dropping anything out of range. maxCPUs < 1 drops everything.
func CPUIndices(requested []int, maxCPUs int) []int {
	log := obslog.Component("normalize")
	if maxCPUs < 1 {
		if len(requested) > 0 {
			log.Warn().Msg("CPU topology reports zero cores; dropping all requested affinity indices")
		}
		return nil
	}
	out := make([]int, 0, len(requested))
	for _, c := range requested {
		if c < 0 || c >= maxCPUs {
			log.Warn().Int("cpu", c).Int("max_cpus", maxCPUs).Msg("CPU index out of range; dropping from affinity set")
			continue
		}
		out = append(out, c)
	}
	return out
}
