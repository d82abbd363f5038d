package auth

import (
	"sync"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
)

// subscriber is an unbounded, ordered mailbox in front of an output channel.
// A slow reader never blocks the hub and never loses an event.
type subscriber struct {
	out  chan models.SessionEvent
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []models.SessionEvent
}

func newSubscriber() *subscriber {
	s := &subscriber{
		out:  make(chan models.SessionEvent),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) push(ev models.SessionEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	close(s.done)
}

func (s *subscriber) run() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}
