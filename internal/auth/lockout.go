package auth

import (
	"sync"
	"time"
)

const (
	// DefaultMaxOTPFailures is the number of wrong codes that locks a key.
	DefaultMaxOTPFailures = 5
	// DefaultOTPLockout is how long a locked key refuses codes.
	DefaultOTPLockout = time.Minute

	staleAttempts = time.Hour
)

type attempts struct {
	failures    int
	lastFailure time.Time
	lockUntil   time.Time
}

// lockout counts failed second-factor attempts per key. Once a key reaches
// maxFailures it is locked for duration, and every further failure renews
// the lock until a success resets the count.
type lockout struct {
	mu          sync.Mutex
	maxFailures int
	duration    time.Duration
	entries     map[string]*attempts
}

func newLockout(maxFailures int, duration time.Duration) *lockout {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxOTPFailures
	}
	if duration <= 0 {
		duration = DefaultOTPLockout
	}
	return &lockout{
		maxFailures: maxFailures,
		duration:    duration,
		entries:     make(map[string]*attempts),
	}
}

// locked reports whether any of keys is locked at now.
func (l *lockout) locked(now time.Time, keys ...string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if a, ok := l.entries[k]; ok && now.Before(a.lockUntil) {
			return true
		}
	}
	return false
}

// fail records a failed attempt against every key.
func (l *lockout) fail(now time.Time, keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		a, ok := l.entries[k]
		if !ok {
			a = &attempts{}
			l.entries[k] = a
		}
		a.failures++
		a.lastFailure = now
		if a.failures >= l.maxFailures {
			a.lockUntil = now.Add(l.duration)
		}
	}
}

func (l *lockout) reset(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.entries, k)
	}
}

// prune drops unlocked keys whose last failure is older than staleAttempts.
func (l *lockout) prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, a := range l.entries {
		if !now.Before(a.lockUntil) && now.Sub(a.lastFailure) > staleAttempts {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func emailKey(email string) string { return "email:" + email }

func sessionKey(token string) string { return "session:" + token }
