package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof" // Для профилирования памяти
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"comandapos/server/internal/api"
	"comandapos/server/internal/auth"
	"comandapos/server/internal/config"
	"comandapos/server/internal/database"
	"comandapos/server/internal/events"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/realtime"
	"comandapos/server/internal/store"
	"comandapos/server/internal/utils"
)

func main() {
	// .env может не быть в production окружении
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)

	if envErr != nil {
		log.Info().Msg("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Info().Msg("✅ Переменные окружения загружены из .env файла")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("❌ Сервер остановлен с ошибкой")
	}
	log.Info().Msg("👋 Сервер остановлен")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	storage, users, closeStorage := openStorage(ctx, cfg)
	defer closeStorage()

	authService, err := auth.NewService(users, auth.Options{
		Secret:            cfg.JWTSecret,
		TTL:               cfg.JWTExpiresIn,
		MinPasswordLength: cfg.AuthMinPasswordLength,
		Production:        cfg.IsProduction(),
	})
	if err != nil {
		return err
	}
	if !auth.SecretStrong(cfg.JWTSecret) {
		log.Warn().Msg("⚠️ JWT_SECRET слабый: для production нужен секрет от 32 символов")
	}
	if err := authService.Bootstrap(ctx, cfg.AdminBootstrapPassword); err != nil {
		return err
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisSentinelAddrs, cfg.RedisMasterName)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis connection failed (continuing without Redis)")
		redisClient = nil
	}
	defer database.CloseRedis(redisClient)

	var redisUtil *utils.RedisClient
	if redisClient != nil {
		redisUtil = utils.NewRedisClient(redisClient)
	}

	publisher := openPublishers(cfg)

	hub := api.NewHub()
	fanout := realtime.NewFanout(hub, redisUtil, cfg.RealtimeChannel, publisher)
	defer func() {
		if err := fanout.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️ Ошибка закрытия брокеров")
		}
	}()

	deps := api.RouterDeps{
		Storage:     storage,
		Notifier:    fanout,
		Hub:         hub,
		Auth:        authService,
		AuthLimiter: auth.NewLimiter(cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow),
	}
	// nil *utils.RedisClient в интерфейсе - не nil, поэтому только при наличии
	if redisUtil != nil {
		deps.Presence = fanout
		deps.Redis = redisUtil
	}
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return fanout.Run(gctx)
	})
	if redisUtil == nil && cfg.KafkaBrokers != "" {
		// без Redis события других инстансов приходят из Kafka
		sub := events.NewKafkaSubscriber(cfg.KafkaBrokers, cfg.KafkaTopic, fanout.Origin(), kafkaAuth(cfg))
		g.Go(func() error {
			return sub.Run(gctx, fanout.Relay)
		})
	}
	g.Go(func() error {
		log.Info().Str("port", cfg.ServerPort).Msg("🚀 Server starting")
		log.Info().Msgf("📡 API доступен на http://0.0.0.0:%s/api, WebSocket на /ws", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("🛑 Останавливаем HTTP сервер...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		memoryStatsLoop(gctx)
		return nil
	})

	if cfg.PprofPort != "" {
		go func() {
			log.Info().Msgf("🔍 pprof доступен на http://localhost:%s/debug/pprof/", cfg.PprofPort)
			if err := http.ListenAndServe("localhost:"+cfg.PprofPort, nil); err != nil {
				log.Warn().Err(err).Msg("⚠️ pprof server failed to start")
			}
		}()
	}

	return g.Wait()
}

// openStorage поднимает PostgreSQL; если БД недоступна, сервер работает на памяти
func openStorage(ctx context.Context, cfg *config.Config) (api.Storage, auth.Users, func()) {
	memory := func() (api.Storage, auth.Users, func()) {
		log.Warn().Msg("⚠️ Продолжаем без БД: состояние в памяти, данные не переживут рестарт")
		return store.NewMemoryStore(pos.SeedBook(), pos.NewEngine()), auth.NewMemoryUsers(), func() {}
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("⚠️ DATABASE_URL не установлен")
		return memory()
	}
	log.Info().Str("url", maskDatabaseURL(cfg.DatabaseURL)).Msg("📋 DATABASE_URL установлен")

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Error().Err(err).Msg("❌ Migration failed")
			return memory()
		}
		log.Info().Msg("✅ Database migrations completed")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("❌ PostgreSQL connection failed")
		return memory()
	}
	st := store.NewStore(db)
	if err := st.Seed(ctx); err != nil {
		log.Error().Err(err).Msg("❌ Не удалось заполнить стартовые данные")
	}
	return st, st, func() {
		if err := database.ClosePostgres(db); err != nil {
			log.Warn().Err(err).Msg("⚠️ Ошибка закрытия PostgreSQL")
		}
	}
}

// openPublishers подключает брокеры, которые есть в конфиге
func openPublishers(cfg *config.Config) events.Publisher {
	var pubs events.Multi
	if cfg.KafkaBrokers != "" {
		log.Info().Str("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("📡 KAFKA_BROKERS установлен")
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, kafkaAuth(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Kafka publisher не создан")
		} else {
			pubs = append(pubs, p)
		}
	}
	if cfg.RabbitMQURL != "" {
		p, err := events.DialRabbit(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ RabbitMQ недоступен, события туда не пойдут")
		} else {
			pubs = append(pubs, p)
		}
	}
	if len(pubs) == 0 {
		return events.Noop{}
	}
	return pubs
}

func kafkaAuth(cfg *config.Config) events.KafkaAuth {
	return events.KafkaAuth{
		Username: cfg.KafkaUsername,
		Password: cfg.KafkaPassword,
		CACert:   cfg.KafkaCACert,
	}
}

// maskDatabaseURL прячет пароль
func maskDatabaseURL(url string) string {
	if idx := strings.Index(url, "@"); idx > 0 {
		if schemeIdx := strings.Index(url, "://"); schemeIdx > 0 && schemeIdx < idx {
			return url[:schemeIdx+3] + "***@" + url[idx+1:]
		}
	}
	return url
}

// memoryStatsLoop периодически логирует статистику памяти
func memoryStatsLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logMemoryStats()
		}
	}
}

func logMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	heapAllocMB := float64(m.HeapAlloc) / 1024 / 1024
	numGoroutines := runtime.NumGoroutine()

	log.Debug().
		Float64("heap_alloc_mb", heapAllocMB).
		Float64("sys_mb", float64(m.Sys)/1024/1024).
		Uint32("gc", m.NumGC).
		Int("goroutines", numGoroutines).
		Msg("💾 Memory Stats")

	if numGoroutines > 1000 {
		log.Warn().Int("goroutines", numGoroutines).Msg("⚠️ WARNING: High number of goroutines (possible goroutine leak)")
	}
	if heapAllocMB > 500 {
		log.Warn().Float64("heap_alloc_mb", heapAllocMB).Msg("⚠️ WARNING: High memory usage (possible memory leak)")
	}
}
