package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/manipd/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
// Safe for concurrent use. The TTL is ignored: an in-process holder cannot
// vanish without releasing.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates a new in-memory locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock acquires key, blocking until it is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
