package replay

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPacerTicksUntilCallbackStops(t *testing.T) {
	p := newPacer(time.Millisecond)
	var count int64

	done := make(chan struct{})
	go func() {
		p.run(func() bool {
			n := atomic.AddInt64(&count, 1)
			return n < 5
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pacer did not stop itself after tick returned false")
	}
	if got := atomic.LoadInt64(&count); got != 5 {
		t.Errorf("tick count = %d, want 5", got)
	}
}

func TestPacerStopJoinsRun(t *testing.T) {
	p := newPacer(time.Hour)
	started := make(chan struct{})
	go func() {
		p.run(func() bool {
			close(started)
			return true
		})
	}()
	<-started
	p.stop()
	// stop() only returns after run's doneCh closes, so reaching here
	// proves run actually exited.
}
