package localsync

import (
	"context"
	"sync"
	"time"
)

// Signal - "состояние изменилось" от одного из процессов (вкладок) на этой машине
type Signal struct {
	Origin string    `json:"origin"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
}

// Bus - транспорт сигналов между процессами. Реализации взаимозаменяемы:
// MemoryBus (один процесс), FileBus (fsnotify), PollingBus (страховка).
type Bus interface {
	Publish(ctx context.Context, sig Signal) error
	Subscribe(fn func(Signal))
	Close() error
}

// MemoryBus - широковещание внутри процесса
type MemoryBus struct {
	mu     sync.RWMutex
	subs   []func(Signal)
	closed bool
}

// NewMemoryBus создает шину в памяти
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish синхронно раздает сигнал всем подписчикам
func (b *MemoryBus) Publish(ctx context.Context, sig Signal) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	subs := append([]func(Signal){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(sig)
	}
	return nil
}

func (b *MemoryBus) Subscribe(fn func(Signal)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subs = nil
	b.mu.Unlock()
	return nil
}

// subscribers - общий список колбэков для файловых транспортов
type subscribers struct {
	mu   sync.RWMutex
	subs []func(Signal)
}

func (s *subscribers) add(fn func(Signal)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *subscribers) dispatch(sig Signal) {
	s.mu.RLock()
	subs := append([]func(Signal){}, s.subs...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(sig)
	}
}
