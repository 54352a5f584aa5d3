package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Local is a Locker for a single process. Each train gets a one-slot channel that
// acts as a mutex with a bounded wait.
type Local struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[int]chan struct{}
}

func NewLocal(wait time.Duration) *Local {
	return &Local{
		wait:  wait,
		slots: make(map[int]chan struct{}),
	}
}

func (l *Local) slot(trainID int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[trainID]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[trainID] = s
	}
	return s
}

func (l *Local) Acquire(ctx context.Context, trainID int) (func(), error) {
	s := l.slot(trainID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: train %d after %s", ErrLockTimeout, trainID, l.wait)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
