package auth

import (
	"sync"
	"time"
)

type window struct {
	count     int
	startedAt time.Time
}

// Limiter - фиксированное окно попыток на ключ (ip:логин)
type Limiter struct {
	mu      sync.Mutex
	max     int
	period  time.Duration
	windows map[string]window
	now     func() time.Time
}

// NewLimiter: max попыток за period; max <= 0 - 8 попыток, period <= 0 - 5 минут
func NewLimiter(max int, period time.Duration) *Limiter {
	if max <= 0 {
		max = 8
	}
	if period <= 0 {
		period = 5 * time.Minute
	}
	return &Limiter{max: max, period: period, windows: make(map[string]window), now: time.Now}
}

// Allow засчитывает попытку; false - лимит окна исчерпан
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startedAt) > l.period {
		if len(l.windows) > 4096 {
			l.prune(now)
		}
		l.windows[key] = window{count: 1, startedAt: now}
		return true
	}
	w.count++
	l.windows[key] = w
	return w.count <= l.max
}

func (l *Limiter) prune(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.startedAt) > l.period {
			delete(l.windows, k)
		}
	}
}
