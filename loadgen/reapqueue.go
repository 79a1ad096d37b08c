package loadgen

import (
	"os/exec"
	"sync"

	"github.com/eapache/queue"

	"github.com/cortexbench/cortex/internal/obslog"
)

// reapQueue is a FIFO of spawned child processes awaiting Wait(), drained
// by a single background goroutine so a slow or hung child never blocks the
// caller that spawned it. Backed by github.com/eapache/queue, used here to
// decouple "process exited" bookkeeping from the dispatch thread.
type reapQueue struct {
	mu    sync.Mutex
	items *queue.Queue
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

func newReapQueue() *reapQueue {
	rq := &reapQueue{
		items: queue.New(),
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go rq.run()
	return rq
}

// reapItem pairs a spawned command with a channel closed once it has been
// reaped, so a caller (Stop's bounded wait) can observe completion without
// calling Wait twice on the same process.
type reapItem struct {
	cmd    *exec.Cmd
	exited chan struct{}
}

// push enqueues a spawned command for reaping and returns a channel closed
// once that command has exited and been reaped.
func (rq *reapQueue) push(cmd *exec.Cmd) <-chan struct{} {
	item := reapItem{cmd: cmd, exited: make(chan struct{})}
	rq.mu.Lock()
	rq.items.Add(item)
	rq.mu.Unlock()
	select {
	case rq.wake <- struct{}{}:
	default:
	}
	return item.exited
}

func (rq *reapQueue) run() {
	defer close(rq.done)
	log := obslog.Component("loadgen")
	for {
		rq.mu.Lock()
		var item reapItem
		var have bool
		if rq.items.Length() > 0 {
			item = rq.items.Remove().(reapItem)
			have = true
		}
		rq.mu.Unlock()

		if !have {
			select {
			case <-rq.quit:
				return
			case <-rq.wake:
				continue
			}
		}

		if err := item.cmd.Wait(); err != nil {
			log.Warn().Err(err).Str("path", item.cmd.Path).Msg("background load worker exited abnormally")
		}
		close(item.exited)
	}
}

func (rq *reapQueue) stop() {
	select {
	case <-rq.quit:
	default:
		close(rq.quit)
	}
	<-rq.done
}
