// comanda-pos - терминал оператора: локальный режим (файл + сигналы между
// процессами) или серверный (HTTP бэкенд + websocket обновления).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"comandapos/server/internal/client"
	"comandapos/server/internal/config"
	"comandapos/server/internal/localsync"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/realtime"
	"comandapos/server/internal/state"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	mode := flag.String("mode", cfg.BackendMode, "local | server")
	backendURL := flag.String("backend", cfg.BackendURL, "адрес сервера для режима server")
	stateFile := flag.String("state", cfg.LocalStateFile, "файл состояния для режима local")
	noFallback := flag.Bool("no-fallback", !cfg.AllowLocalFallback, "запретить локальный fallback при недоступном сервере")
	verbose := flag.Bool("v", false, "подробный лог")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg.BackendMode = *mode
	cfg.BackendURL = strings.TrimRight(*backendURL, "/")
	cfg.LocalStateFile = *stateFile
	cfg.AllowLocalFallback = !*noFallback

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	app, err := setup(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	app.pos.OnNotice(func(n client.Notice) {
		fmt.Fprintln(os.Stderr, "⚠️", n.String())
	})
	if err := app.pos.Boot(ctx); err != nil {
		// без начального снапшота работаем на стартовых данных
		log.Warn().Err(err).Msg("⚠️ Начальная загрузка не удалась")
	}

	sh := newShell(app.pos, os.Stdout)
	sh.login = app.login

	// одна команда из аргументов - без интерактива
	if len(args) > 0 {
		return sh.exec(ctx, args)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for _, bg := range app.background {
		bg := bg
		g.Go(func() error { return bg(gctx) })
	}
	g.Go(func() error {
		// EOF на stdin завершает и фоновые горутины
		defer cancel()
		return sh.repl(gctx, bufio.NewScanner(os.Stdin))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type app struct {
	pos        *client.Client
	login      authenticator
	background []func(ctx context.Context) error
}

func (a *app) close() {
	if err := a.pos.Close(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Ошибка закрытия клиента")
	}
}

func setup(cfg *config.Config) (*app, error) {
	engine := pos.NewEngine()
	st := state.NewStore(pos.SeedBook())
	policy := client.DefaultPolicy()
	policy.AllowLocalFallback = cfg.AllowLocalFallback

	a := &app{}
	if cfg.IsServerMode() {
		backend := client.NewHTTPBackend(cfg.BackendURL, cfg.RequestTimeout)
		if cfg.BackendToken != "" {
			backend.SetToken(cfg.BackendToken)
		}
		a.login = backend
		c, err := client.New(client.Options{
			Mode:    client.ModeServer,
			Backend: backend,
			Engine:  engine,
			State:   st,
			Policy:  &policy,
		})
		if err != nil {
			return nil, err
		}
		listener := realtime.NewListener(realtime.ListenerConfig{
			URL:         wsURL(cfg.BackendURL),
			Debounce:    cfg.RealtimeDebounce,
			BackoffBase: cfg.BackoffBase,
			BackoffCap:  cfg.BackoffCap,
		}, c.Pull)
		a.pos = c
		a.background = append(a.background, listener.Run)
		log.Info().Str("backend", cfg.BackendURL).Msg("🌐 Серверный режим")
		return a, nil
	}

	files := localsync.NewFileStore(cfg.LocalStateFile)
	buses := []localsync.Bus{localsync.NewPollingBus(files.SignalPath(), cfg.LocalPollInterval)}
	if fb, err := localsync.NewFileBus(files.SignalPath()); err != nil {
		// без fsnotify остается опрос
		log.Warn().Err(err).Msg("⚠️ fsnotify недоступен, только опрос файла")
	} else {
		buses = append(buses, fb)
	}
	sync := localsync.NewSync(cfg.LocalEmitDebounce, buses...)
	c, err := client.New(client.Options{
		Mode:   client.ModeLocal,
		Engine: engine,
		State:  st,
		Policy: &policy,
		Files:  files,
		Sync:   sync,
	})
	if err != nil {
		_ = sync.Close()
		return nil, err
	}
	a.pos = c
	log.Info().Str("file", files.Path()).Msg("💾 Локальный режим")
	return a, nil
}

// wsURL - http://host:port -> ws://host:port/ws
func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	}
	return base + "/ws"
}

