package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/localsync"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/state"
	"github.com/rs/zerolog/log"
)

// Mode - режим работы, выбирается при старте и не меняется
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeServer Mode = "server"
)

// Options - зависимости клиента
type Options struct {
	Mode    Mode
	Backend Backend // обязателен в серверном режиме
	Engine  *pos.Engine
	State   *state.Store
	Policy  *Policy // nil - DefaultPolicy
	// Files и Sync - хранение и сигналы между процессами локального режима (опционально)
	Files *localsync.FileStore
	Sync  *localsync.Sync
}

// Client - слой согласованности между UI и состоянием.
// Локальный режим: мутации синхронно идут в движок. Серверный: оптимистичная
// правка, запрос к бэкенду, затем снапшот заменяет оверлей целиком.
type Client struct {
	mode    Mode
	backend Backend
	engine  *pos.Engine
	state   *state.Store
	policy  Policy
	files   *localsync.FileStore
	signals *localsync.Sync

	mu      sync.Mutex
	notices []func(Notice)
}

// New собирает клиента
func New(opts Options) (*Client, error) {
	if opts.Mode != ModeLocal && opts.Mode != ModeServer {
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if opts.Mode == ModeServer && opts.Backend == nil {
		return nil, errors.New("server mode requires a backend")
	}
	if opts.Engine == nil {
		opts.Engine = pos.NewEngine()
	}
	if opts.State == nil {
		opts.State = state.NewStore(pos.SeedBook())
	}
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	c := &Client{
		mode:    opts.Mode,
		backend: opts.Backend,
		engine:  opts.Engine,
		state:   opts.State,
		policy:  policy,
		files:   opts.Files,
		signals: opts.Sync,
	}
	if c.signals != nil {
		c.signals.OnRemote(c.onRemoteSignal)
	}
	return c, nil
}

// Mode - текущий режим
func (c *Client) Mode() Mode {
	return c.mode
}

// State - контейнер состояния (для подписки UI)
func (c *Client) State() *state.Store {
	return c.state
}

// OnNotice регистрирует получателя уведомлений "применено локально"
func (c *Client) OnNotice(fn func(Notice)) {
	c.mu.Lock()
	c.notices = append(c.notices, fn)
	c.mu.Unlock()
}

// Boot - первичная загрузка: файл состояния в локальном режиме, снапшот в серверном.
// Ошибка снапшота не фатальна: клиент работает на том, что есть.
func (c *Client) Boot(ctx context.Context) error {
	if c.mode == ModeServer {
		return c.Pull(ctx)
	}
	if c.files == nil {
		return nil
	}
	p, err := c.files.Load()
	if err != nil {
		return err
	}
	if p == nil {
		// первый запуск: сохраняем стартовые данные
		c.persist()
		return nil
	}
	c.state.RestoreCarts(p.Carts, p.ActiveID)
	c.state.Replace(p.Book)
	log.Info().Str("path", c.files.Path()).Int("comandas", len(p.Book.Comandas)).Msg("💾 Локальное состояние загружено")
	return nil
}

// Pull заменяет подтвержденную базу снапшотом сервера. В локальном режиме ничего не делает.
func (c *Client) Pull(ctx context.Context) error {
	if c.mode != ModeServer {
		return nil
	}
	snap, err := c.backend.Snapshot(ctx)
	if err != nil {
		return err
	}
	c.state.Reconcile(snap)
	return nil
}

// mutate - общий путь всех мутаций. apply - локальная логика над копией состояния,
// remote - вызов бэкенда. Notice != nil означает, что операция выполнена локально.
func (c *Client) mutate(ctx context.Context, op string, apply func(b *pos.Book) error, remote func(ctx context.Context) error) (*Notice, error) {
	if c.mode == ModeLocal {
		if err := c.state.Commit(apply); err != nil {
			return nil, err
		}
		c.afterCommit()
		return nil, nil
	}

	if err := c.state.Optimistic(apply); err != nil {
		// сервер авторитетен: локальная проверка могла устареть
		log.Debug().Err(err).Str("op", op).Msg("оптимистичная правка не применена")
	}

	err := remote(ctx)
	if err == nil {
		if pullErr := c.Pull(ctx); pullErr != nil {
			log.Warn().Err(pullErr).Str("op", op).Msg("⚠️ Снапшот после записи не получен")
		}
		return nil, nil
	}

	var unavailable *domain.BackendUnavailableError
	if !errors.As(err, &unavailable) {
		c.state.Rollback()
		return nil, err
	}
	if !c.policy.Allows(op) {
		c.state.Rollback()
		log.Warn().Err(err).Str("op", op).Msg("⛔ Бэкенд недоступен, локальный fallback запрещен")
		return nil, &domain.PolicyBlockedError{Op: op, Cause: err}
	}

	c.state.Rollback()
	if commitErr := c.state.Commit(apply); commitErr != nil {
		return nil, commitErr
	}
	c.afterCommit()
	notice := Notice{Op: op, AppliedLocally: true, Cause: err}
	log.Warn().Err(err).Str("op", op).Msg("📴 Бэкенд недоступен, операция применена локально")
	c.emitNotice(notice)
	return &notice, nil
}

func (c *Client) emitNotice(n Notice) {
	c.mu.Lock()
	handlers := append([]func(Notice){}, c.notices...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(n)
	}
}

// afterCommit сохраняет состояние и будит соседние процессы
func (c *Client) afterCommit() {
	c.persist()
	if c.signals != nil {
		c.signals.Emit()
	}
}

func (c *Client) persist() {
	if c.files == nil {
		return
	}
	p := localsync.Persisted{
		Book:     c.state.Confirmed(),
		Carts:    c.state.Carts(),
		ActiveID: c.state.ActiveComanda(),
	}
	if c.signals != nil {
		p.Origin = c.signals.Origin()
	}
	if err := c.files.Save(p); err != nil {
		log.Error().Err(err).Str("path", c.files.Path()).Msg("❌ Не удалось сохранить локальное состояние")
	}
}

// onRemoteSignal - соседний процесс изменил файл состояния
func (c *Client) onRemoteSignal(sig localsync.Signal) {
	if c.files == nil {
		return
	}
	p, err := c.files.Load()
	if err != nil || p == nil {
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ localsync: состояние соседа не прочитано")
		}
		return
	}
	c.state.RestoreCarts(p.Carts, c.state.ActiveComanda())
	c.state.Replace(p.Book)
	log.Debug().Str("origin", sig.Origin).Uint64("seq", sig.Seq).Msg("localsync: состояние обновлено")
}

// Close отправляет отложенный сигнал
func (c *Client) Close() error {
	if c.signals != nil {
		return c.signals.Close()
	}
	return nil
}
