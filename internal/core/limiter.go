package core

// limiter.go bounds the number of parses running at once.
//
// ParseLimiter is a semaphore: when every slot is taken a caller waits up to
// maxWait before failing with ErrTooManyParses. WaitForDrain blocks until all
// active parses finish and is used for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyParses is returned when no slot frees up within the wait time.
var ErrTooManyParses = errors.New("too many parses in progress, please try again later")

// DefaultMaxConcurrentParses is the default limit for parallel parses.
const DefaultMaxConcurrentParses = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ParseLimiter controls concurrent parse processing.
type ParseLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewParseLimiter creates a limiter that allows at most maxConcurrent parses.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ParseLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it when done.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.inc(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyParses
	}
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (l *ParseLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.inc(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ParseLimiter) Release() {
	l.inc(-1)
	<-l.semaphore
}

func (l *ParseLimiter) inc(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// ActiveCount returns the number of running parses.
func (l *ParseLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *ParseLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// MaxConcurrent returns the slot count.
func (l *ParseLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// WaitForDrain blocks until no parse is running or ctx is done.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ParseLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
