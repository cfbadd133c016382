package detectionService

import (
	"DebrisDetector/internal/entity"
)

// Subscribe returns a channel that receives the current state and every later
// transition. Only the newest undelivered state is kept; a slow reader skips
// intermediate states. The returned func unsubscribes and closes the channel.
func (s *detectionService) Subscribe() (<-chan entity.State, func()) {
	ch := make(chan entity.State, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.state
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}

	return ch, unsubscribe
}

// setState must be called with s.mu held.
func (s *detectionService) setState(state entity.State) {
	s.state = state

	for _, ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
