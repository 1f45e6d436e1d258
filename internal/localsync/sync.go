package localsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"comandapos/server/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sync склеивает частые изменения в один сигнал и раздает чужие сигналы.
// Свои сигналы и дубли (один сигнал через несколько транспортов) отбрасываются.
type Sync struct {
	origin string
	buses  []Bus
	seq    atomic.Uint64
	deb    *utils.Debouncer

	mu     sync.Mutex
	seen   map[string]uint64
	remote []func(Signal)
}

// NewSync подписывается на все шины; debounce <= 0 - 120ms
func NewSync(debounce time.Duration, buses ...Bus) *Sync {
	if debounce <= 0 {
		debounce = 120 * time.Millisecond
	}
	s := &Sync{
		origin: uuid.NewString(),
		buses:  buses,
		seen:   make(map[string]uint64),
	}
	s.deb = utils.NewDebouncer(debounce, s.publish)
	for _, b := range buses {
		b.Subscribe(s.receive)
	}
	return s
}

// Origin - id этого процесса
func (s *Sync) Origin() string {
	return s.origin
}

// Emit - состояние изменилось; сигнал уйдет после паузы
func (s *Sync) Emit() {
	s.deb.Trigger()
}

// Flush отправляет отложенный сигнал сразу
func (s *Sync) Flush() {
	s.deb.Flush()
}

// OnRemote регистрирует обработчик чужих сигналов
func (s *Sync) OnRemote(fn func(Signal)) {
	s.mu.Lock()
	s.remote = append(s.remote, fn)
	s.mu.Unlock()
}

func (s *Sync) publish() {
	sig := Signal{Origin: s.origin, Seq: s.seq.Add(1), At: time.Now()}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, b := range s.buses {
		if err := b.Publish(ctx, sig); err != nil {
			log.Warn().Err(err).Msg("⚠️ localsync: сигнал не отправлен")
		}
	}
}

func (s *Sync) receive(sig Signal) {
	if sig.Origin == "" || sig.Origin == s.origin {
		return
	}
	s.mu.Lock()
	if last, ok := s.seen[sig.Origin]; ok && sig.Seq <= last {
		s.mu.Unlock()
		return
	}
	s.seen[sig.Origin] = sig.Seq
	handlers := append([]func(Signal){}, s.remote...)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(sig)
	}
}

// Close отправляет отложенный сигнал и закрывает шины
func (s *Sync) Close() error {
	s.deb.Flush()
	s.deb.Stop()
	var errs []error
	for _, b := range s.buses {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
