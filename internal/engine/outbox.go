package engine

import (
	"sync"

	"github.com/buemura/contractlens/internal/broadcast"
	"github.com/buemura/contractlens/pkg/types"
)

// outbox delivers reports to the hub from a single goroutine, in the order
// they were pushed. Subscribers may call back into the engine.
type outbox struct {
	hub    *broadcast.Hub
	mu     sync.Mutex
	queue  []*types.Report
	signal chan struct{}
	stop   chan struct{}
}

func newOutbox(hub *broadcast.Hub) *outbox {
	o := &outbox{
		hub:    hub,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *outbox) push(r *types.Report) {
	o.mu.Lock()
	o.queue = append(o.queue, r)
	o.mu.Unlock()
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *outbox) run() {
	for {
		select {
		case <-o.stop:
			return
		case <-o.signal:
		}
		for {
			o.mu.Lock()
			batch := o.queue
			o.queue = nil
			o.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, r := range batch {
				o.hub.Publish(r)
			}
		}
	}
}

// close stops delivery without waiting, so it is safe to call from a
// subscriber. Queued reports are dropped.
func (o *outbox) close() {
	close(o.stop)
}
