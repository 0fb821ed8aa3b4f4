// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "sync"

// pinLocks hands out one mutex per PIN. Entries are dropped once no
// goroutine holds or waits on them. The zero value is ready to use.
type pinLocks struct {
	mu    sync.Mutex
	locks map[string]*pinLock
}

type pinLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until pin is free and returns the matching unlock
func (l *pinLocks) lock(pin string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*pinLock)
	}
	pl, ok := l.locks[pin]
	if !ok {
		pl = &pinLock{}
		l.locks[pin] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, pin)
		}
		l.mu.Unlock()
	}
}

// lockPair locks two PINs in a fixed order so concurrent renames can't deadlock
func (l *pinLocks) lockPair(a, b string) func() {
	if a == b {
		return l.lock(a)
	}
	if b < a {
		a, b = b, a
	}
	unlockA := l.lock(a)
	unlockB := l.lock(b)
	return func() {
		unlockB()
		unlockA()
	}
}
