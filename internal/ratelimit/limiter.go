// Package ratelimit provides fixed-window request counting keyed by an
// arbitrary string, with in-memory and Redis backed implementations.
package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type Limiter interface {
	Allow(key string, limit int, window time.Duration) Decision
	Close()
}

// Decision carries the counter state alongside the verdict so callers can
// expose quota headers.
type Decision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

type windowState struct {
	count     int
	windowEnd time.Time
}

type MemoryLimiter struct {
	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]windowState
	stopCh  chan struct{}
	once    sync.Once
}

func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]windowState),
		stopCh:  make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow counts the attempt and rejects once the window count exceeds limit.
// The window end is fixed at the first attempt of the window; rejected
// attempts do not extend it.
func (l *MemoryLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.entries[key]
	if !ok || now.After(state.windowEnd) {
		state = windowState{count: 1, windowEnd: now.Add(window)}
		l.entries[key] = state
		return Decision{Allowed: true, Count: state.count, WindowEnd: state.windowEnd}
	}
	if state.count >= limit {
		return Decision{Allowed: false, Count: state.count, WindowEnd: state.windowEnd}
	}
	state.count++
	l.entries[key] = state
	return Decision{Allowed: true, Count: state.count, WindowEnd: state.windowEnd}
}

func (l *MemoryLimiter) Close() {
	l.once.Do(func() {
		close(l.stopCh)
	})
}

func (l *MemoryLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(l.now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *MemoryLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, state := range l.entries {
		if now.After(state.windowEnd) {
			delete(l.entries, key)
		}
	}
}
