package driver

// limiter.go bounds how many tables convert at once.
//
// Every table holds its converted rows in memory until it is written, so the
// number of tables in flight bounds peak memory. The limiter is a semaphore:
// Acquire blocks until a slot frees up or the context ends.

import (
	"context"
	"sync"
)

// DefaultWorkers is used when a non-positive limit is given.
const DefaultWorkers = 2

// Limiter controls concurrent table conversions using a semaphore pattern.
type Limiter struct {
	semaphore chan struct{}

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter that allows at most max tables at once.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = DefaultWorkers
	}
	return &Limiter{
		semaphore: make(chan struct{}, max),
	}
}

// Acquire blocks until a slot is free or ctx is done.
// The caller MUST call Release() when the table completes (use defer).
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// Active returns the number of tables currently converting.
func (l *Limiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Max returns the maximum number of concurrent tables.
func (l *Limiter) Max() int {
	return cap(l.semaphore)
}
