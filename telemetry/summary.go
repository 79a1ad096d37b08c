package telemetry

import (
	"sync"
	"time"
)

// Summary is a bounded end-of-run accumulator: unlike Buffer, it holds no
// per-window history, just the few counters needed for a diagnostic line
// after a run completes.
type Summary struct {
	mu            sync.RWMutex
	count         int
	deadlineMisses int
	lastWindowIndex int
	lastDeadlineMissed bool
	updated       time.Time
}

// NewSummary returns an empty accumulator.
func NewSummary() *Summary {
	return &Summary{}
}

// Observe folds one record's outcome into the running counters.
func (s *Summary) Observe(r WindowRecord) {
	s.mu.Lock()
	s.count++
	if r.DeadlineMissed {
		s.deadlineMisses++
	}
	s.lastWindowIndex = r.WindowIndex
	s.lastDeadlineMissed = r.DeadlineMissed
	s.updated = time.Now()
	s.mu.Unlock()
}

// Snapshot is a point-in-time, race-free read of the accumulated counters.
type Snapshot struct {
	Count              int
	DeadlineMisses     int
	LastWindowIndex    int
	LastDeadlineMissed bool
	UpdatedAt          time.Time
}

// Snapshot returns the current counters.
func (s *Summary) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Count:              s.count,
		DeadlineMisses:     s.deadlineMisses,
		LastWindowIndex:    s.lastWindowIndex,
		LastDeadlineMissed: s.lastDeadlineMissed,
		UpdatedAt:          s.updated,
	}
}
