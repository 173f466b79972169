package auth

import (
	"sync"
	"time"
)

// AttemptTracker counts failed login/registration attempts per key (username
// or client IP) and hard-locks the key for a fixed window once a threshold of
// failures is reached. A success clears the counter.
type AttemptTracker interface {
	// Locked reports whether the key is currently locked and, if so, for how
	// much longer.
	Locked(key string) (bool, time.Duration)
	RecordFailure(key string)
	RecordSuccess(key string)
}

type attemptState struct {
	failures    int
	lockedUntil time.Time
}

// MemoryAttemptTracker is the process-local backend: counters are lost on
// restart, which is acceptable at single-instance deployment scale.
type MemoryAttemptTracker struct {
	mu        sync.Mutex
	attempts  map[string]*attemptState
	threshold int
	window    time.Duration
}

func NewMemoryAttemptTracker(threshold int, window time.Duration) *MemoryAttemptTracker {
	return &MemoryAttemptTracker{
		attempts:  make(map[string]*attemptState),
		threshold: threshold,
		window:    window,
	}
}

func (t *MemoryAttemptTracker) Locked(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.attempts[key]
	if !ok {
		return false, 0
	}
	remaining := time.Until(s.lockedUntil)
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

func (t *MemoryAttemptTracker) RecordFailure(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.attempts[key]
	if !ok {
		s = &attemptState{}
		t.attempts[key] = s
	}
	// Failures inside an active lock window don't extend it.
	if time.Now().Before(s.lockedUntil) {
		return
	}

	s.failures++
	if s.failures >= t.threshold {
		s.lockedUntil = time.Now().Add(t.window)
	}
}

func (t *MemoryAttemptTracker) RecordSuccess(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
}

// Reset clears every counter. Test helper.
func (t *MemoryAttemptTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts = make(map[string]*attemptState)
}
