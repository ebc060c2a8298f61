package rate

import (
	"sync"
	"time"
)

// pruneThreshold bounds the window map: once the map grows past it,
// stale windows are dropped inline on the next write.
const pruneThreshold = 4096

// Config holds rate limiter tuning parameters.
type Config struct {
	Window      time.Duration
	MaxAttempts int
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter enforces fixed-window attempt budgets keyed by (bucket, key).
// It is in-process; counters reset when the window elapses and are not
// shared across replicas.
type Limiter struct {
	config Config

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

// New creates a [Limiter] with the given window and attempt budget.
func New(cfg Config) *Limiter {
	return &Limiter{
		config:  cfg,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check reports whether the key is within its attempt budget without
// recording an attempt. Returns ErrRateLimited once the budget is spent.
func (l *Limiter) Check(bucket, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[bucket+":"+key]
	if !ok {
		return nil
	}
	if !l.now().Before(w.resetAt) {
		delete(l.windows, bucket+":"+key)
		return nil
	}
	if w.count >= l.config.MaxAttempts {
		return ErrRateLimited
	}

	return nil
}

// Increment records a failed attempt for the key. The first attempt in a
// window starts the cooldown clock.
func (l *Limiter) Increment(bucket, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bump(bucket + ":" + key)
}

// Allow records an attempt and checks the budget in one step. Used for
// operations where every request counts, not only failures.
func (l *Limiter) Allow(bucket, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.bump(bucket + ":" + key)
	if w.count > l.config.MaxAttempts {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the counter for the key. Called after successful login.
func (l *Limiter) Reset(bucket, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, bucket+":"+key)
}

func (l *Limiter) bump(mapKey string) *window {
	now := l.now()

	w, ok := l.windows[mapKey]
	if !ok || !now.Before(w.resetAt) {
		if len(l.windows) > pruneThreshold {
			l.prune(now)
		}
		w = &window{count: 1, resetAt: now.Add(l.config.Window)}
		l.windows[mapKey] = w
		return w
	}

	w.count++
	return w
}

func (l *Limiter) prune(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
