package loadgen

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/cortexbench/cortex/internal/obslog"
)

var errAlreadyStarted = errors.New("loadgen: background load already started by another owner")

// loadGeneratorBinary is the external worker executable invoked per
// profile. Resolving it is a PATH lookup; its absence is a graceful
// degradation per §4.6, not a configuration error.
const loadGeneratorBinary = "cortex-loadgen"

// shutdownTimeout bounds how long Stop waits for a graceful exit before
// force-killing stragglers.
const shutdownTimeout = 2 * time.Second

// childProcess tracks every worker spawned for one Start call.
type childProcess struct {
	cmds    *reapQueue
	live    []*exec.Cmd
	exited  []<-chan struct{}
}

// spawn resolves worker count/load percentage from profile and cpuCount,
// and launches that many cortex-loadgen instances. A missing binary is
// logged and treated as "no background load" rather than an error.
func spawn(profile Profile, cpuCount int) (*childProcess, error) {
	log := obslog.Component("loadgen")

	workers, percent := workersFor(profile, cpuCount)
	if workers == 0 {
		return &childProcess{cmds: newReapQueue()}, nil
	}

	binPath, err := exec.LookPath(loadGeneratorBinary)
	if err != nil {
		log.Warn().Str("binary", loadGeneratorBinary).Msg("background load generator not found; continuing with no background load")
		return &childProcess{cmds: newReapQueue()}, nil
	}

	cp := &childProcess{cmds: newReapQueue()}
	for i := 0; i < workers; i++ {
		cmd := exec.Command(binPath, "--percent", fmt.Sprintf("%d", percent))
		if err := cmd.Start(); err != nil {
			cp.shutdown()
			return nil, fmt.Errorf("loadgen: fork worker %d/%d: %w", i+1, workers, err)
		}
		cp.live = append(cp.live, cmd)
		cp.exited = append(cp.exited, cp.cmds.push(cmd))
	}
	return cp, nil
}

// workersFor resolves a profile into a worker count and per-worker load
// percentage against the detected CPU count N.
func workersFor(profile Profile, cpuCount int) (workers, percent int) {
	if cpuCount <= 0 {
		cpuCount = runtime.NumCPU()
	}
	switch profile {
	case ProfileMedium:
		return cpuCount / 2, 50
	case ProfileHeavy:
		return cpuCount, 90
	default:
		return 0, 0
	}
}

// shutdown sends a graceful termination signal to every live worker, waits
// up to shutdownTimeout for each to be reaped, then force-kills any
// stragglers still running past the deadline. Abnormal exits are logged by
// the reap queue but never fail the run.
func (cp *childProcess) shutdown() error {
	for _, cmd := range cp.live {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
		}
	}

	deadline := time.NewTimer(shutdownTimeout)
	defer deadline.Stop()

	for i, exited := range cp.exited {
		select {
		case <-exited:
		case <-deadline.C:
			for _, remaining := range cp.live[i:] {
				if remaining.Process != nil {
					_ = remaining.Process.Kill()
				}
			}
			cp.cmds.stop()
			return nil
		}
	}

	cp.cmds.stop()
	return nil
}
