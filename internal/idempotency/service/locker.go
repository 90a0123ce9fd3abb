package service

import (
	"context"
	"sync"

	"github.com/smallbiznis/tably/internal/idempotency/domain"
)

// localLocker serializes first attempts per ledger key within the process.
// Sufficient for the single-terminal deployment; multi-process setups use
// the redis locker instead.
type localLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() domain.Locker {
	return &localLocker{slots: map[string]*slot{}}
}

func (l *localLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			l.put(key, s)
		}, nil
	case <-ctx.Done():
		l.put(key, s)
		return nil, ctx.Err()
	}
}

func (l *localLocker) put(key string, s *slot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}
