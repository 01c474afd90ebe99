package client

import (
	"sync"
	"time"
)

// DefaultRenderInterval is the flush cadence of the visible text.
const DefaultRenderInterval = 50 * time.Millisecond

// scheduler calls tick at a fixed interval until stopped.
type scheduler struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startScheduler(interval time.Duration, tick func()) *scheduler {
	if interval <= 0 {
		interval = DefaultRenderInterval
	}
	s := &scheduler{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				// A stop racing with the tick wins.
				select {
				case <-s.stop:
					return
				default:
				}
				tick()
			}
		}
	}()
	return s
}

// Stop halts the ticker and returns once no tick is running or can run.
// It is safe to call more than once.
func (s *scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
