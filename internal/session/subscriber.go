package session

import (
	"sync"

	"vaultspark/internal/session/models"
)

// subscriber delivers snapshots to one handler on its own goroutine, in the
// order they were queued. The queue is unbounded so a slow handler never
// blocks a transition.
type subscriber struct {
	handler func(models.Snapshot)

	mu    sync.Mutex
	queue []models.Snapshot

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscriber(handler func(models.Snapshot)) *subscriber {
	return &subscriber{
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *subscriber) enqueue(snap models.Snapshot) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.handler(next)
		}
	}
}
