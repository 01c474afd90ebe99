package client

import (
	"sync"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// notice is one queued render hook call. A settled notice carries no state;
// it marks that every earlier notice of the session has been handled.
type notice struct {
	s       *session
	st      domain.ClientStreamState
	settled bool
}

// dispatcher delivers notices in push order from a single goroutine at a
// time. push never blocks, so it is safe to call with locks held.
type dispatcher struct {
	deliver func(notice)

	mu      sync.Mutex
	queue   []notice
	running bool
}

func newDispatcher(deliver func(notice)) *dispatcher {
	return &dispatcher{deliver: deliver}
}

func (d *dispatcher) push(n notice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, n)
	if !d.running {
		d.running = true
		go d.drain()
	}
}

// drain runs until the queue is empty. A later push starts a new drain.
func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, n := range batch {
			d.deliver(n)
		}
	}
}
