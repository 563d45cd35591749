// Package keylock serializes work per key while letting different keys proceed concurrently.
package keylock

import (
	"context"
	"sync"
)

// Locker hands out one lock per key. Waiters for the same key are served in arrival order.
type Locker interface {
	// Lock blocks until the key is free or the context is done. The returned function releases the key.
	Lock(ctx context.Context, key string) (unlock func(), err error)
	// Len returns the number of keys that are held or waited on.
	Len() int
}

type entry struct {
	// ch has a buffer of one; holding the lock means having sent into it.
	ch   chan struct{}
	refs int
}

type locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a Locker.
func New() Locker {
	return &locker{entries: make(map[string]*entry)}
}

func (l *locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
