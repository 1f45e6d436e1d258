package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"comandapos/server/internal/models"
	"comandapos/server/internal/utils"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ListenerConfig - настройки клиентского realtime канала
type ListenerConfig struct {
	URL          string        // ws://host:port/ws
	Debounce     time.Duration // склейка пачки событий в один pull
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	PingInterval time.Duration
	Dialer       *websocket.Dialer
}

// Listener держит websocket к серверу и превращает события в снапшот-pull.
// Пока соединения нет, клиент работает на последнем снапшоте.
type Listener struct {
	cfg       ListenerConfig
	pull      func(ctx context.Context) error
	connected atomic.Bool
}

// NewListener создает listener; pull вызывается на каждый (пере)коннект и после debounce
func NewListener(cfg ListenerConfig, pull func(ctx context.Context) error) *Listener {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 300 * time.Millisecond
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 8 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}
	return &Listener{cfg: cfg, pull: pull}
}

// Backoff - min(cap, base * 2^attempt)
func Backoff(base, cap time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return cap
	}
	d := base << uint(attempt)
	if d <= 0 || d > cap {
		return cap
	}
	return d
}

// Connected - есть ли сейчас соединение
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

// Run подключается и переподключается до отмены контекста
func (l *Listener) Run(ctx context.Context) error {
	attempt := 0
	for {
		conn, _, err := l.cfg.Dialer.DialContext(ctx, l.cfg.URL, nil)
		if err == nil {
			attempt = 0
			log.Info().Str("url", l.cfg.URL).Msg("🔌 Realtime подключен")
			l.serve(ctx, conn)
			log.Warn().Str("url", l.cfg.URL).Msg("🔌 Realtime отключен")
		} else if ctx.Err() == nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("⚠️ Realtime: не удалось подключиться")
		}
		if ctx.Err() != nil {
			return nil
		}

		wait := Backoff(l.cfg.BackoffBase, l.cfg.BackoffCap, attempt)
		attempt++
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *Listener) serve(ctx context.Context, conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	l.connected.Store(true)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		conn.Close()
		wg.Wait()
		l.connected.Store(false)
	}()

	// закрытие соединения по отмене прерывает ReadMessage
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	deb := utils.NewDebouncer(l.cfg.Debounce, func() { l.doPull(connCtx) })
	defer deb.Stop()

	l.doPull(connCtx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev models.RealtimeEvent
		if json.Unmarshal(data, &ev) == nil && (ev.Type == models.EventConnected || ev.Type == models.EventPong) {
			continue
		}
		deb.Trigger()
	}
}

func (l *Listener) doPull(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := l.pull(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("⚠️ Realtime: снапшот не получен, остаемся на прошлом")
	}
}
