package utils

import (
	"sync"
	"time"
)

// Debouncer - trailing debounce: fn срабатывает через d после последнего Trigger
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewDebouncer создает debouncer
func NewDebouncer(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

// Trigger откладывает срабатывание еще на d
func (b *Debouncer) Trigger() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.d, b.fn)
		return
	}
	b.timer.Reset(b.d)
}

// Flush отменяет ожидание и вызывает fn сразу, если что-то ожидало
func (b *Debouncer) Flush() {
	b.mu.Lock()
	pending := b.timer != nil && b.timer.Stop()
	b.mu.Unlock()
	if pending {
		b.fn()
	}
}

// Stop отменяет ожидающее срабатывание; дальнейшие Trigger игнорируются
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
}
