package session

import (
	"sync"
	"time"
)

// Event describes a committed mutation.
type Event struct {
	Operation string    `json:"operation"`
	Selected  string    `json:"selected,omitempty"`
	Problems  int       `json:"problems"`
	Time      time.Time `json:"time"`
}

// broadcaster fans events out to subscribers.
type broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subscribers: make(map[chan Event]struct{})}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, ch)
			close(ch)
		})
	}
}

// broadcast never blocks. Slow subscribers miss events.
func (b *broadcaster) broadcast(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			dropped++
		}
	}
	return dropped
}
