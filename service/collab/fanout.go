package collab

import (
	"sync"

	"GridSync/logger"
)

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout is a bounded worker pool that pushes one payload to many
// per-connection queues. A handler never writes a socket directly, so
// a slow or dead recipient cannot block it.
type Fanout struct {
	jobs      chan fanoutJob
	done      chan struct{}
	closeOnce sync.Once
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue), done: make(chan struct{})}
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-f.done:
					return
				case job := <-f.jobs:
					for _, c := range job.conns {
						if !c.Enqueue(job.payload) {
							// Slow client: drop the frame rather than block the pool.
							logger.Infof("[fanout] drop frame conn=%s user=%s", c.ConnID, c.UserID)
						}
					}
				}
			}
		}()
	}
	return f
}

// Broadcast hands the payload to the pool. After Close it becomes a
// no-op, so late producers cannot race the shutdown.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	select {
	case <-f.done:
		return
	default:
	}
	select {
	case <-f.done:
	case f.jobs <- fanoutJob{conns: conns, payload: payload}:
	}
}

func (f *Fanout) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
