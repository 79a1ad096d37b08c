package orchestrator

import (
	"github.com/rs/zerolog"

	"github.com/cortexbench/cortex/internal/config"
	"github.com/cortexbench/cortex/rtpolicy"
)

// applyRealtimePolicy translates the configured realtime section into a
// rtpolicy.Policy and applies it to the current OS thread. Degraded
// application (unsupported platform, insufficient privileges) is logged
// and never treated as fatal, per §4.7.
func applyRealtimePolicy(cfg config.RealtimeConfig, log zerolog.Logger) {
	class := rtpolicy.ParseSchedulerClass(cfg.Scheduler)
	policy := rtpolicy.Policy{
		Class:       class,
		Priority:    cfg.Priority,
		CPUAffinity: cfg.CPUAffinity,
		Deadline: rtpolicy.Deadline{
			RuntimeUs:  cfg.Deadline.RuntimeUs,
			PeriodUs:   cfg.Deadline.PeriodUs,
			DeadlineUs: cfg.Deadline.DeadlineUs,
		},
	}
	degraded, err := rtpolicy.Apply(policy)
	if err != nil {
		log.Warn().Err(err).Msg("realtime policy application failed; continuing with default scheduling")
		return
	}
	if degraded {
		log.Warn().Msg("realtime policy degraded to default scheduling on this platform")
	}
}
