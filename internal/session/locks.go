package session

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// keyedLocks is a set of mutexes keyed by session ID. Entries exist only
// while someone holds or waits for them.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyLock)}
}

func (k *keyedLocks) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{sem: semaphore.NewWeighted(1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		k.drop(key, l)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			k.drop(key, l)
		})
	}, nil
}

func (k *keyedLocks) drop(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
