package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Режимы работы клиента
const (
	ModeLocal  = "local"
	ModeServer = "server"
)

type Config struct {
	DatabaseURL        string
	RedisURL           string
	RedisSentinelAddrs []string // Адреса Sentinel (через запятую)
	RedisMasterName    string   // Имя мастера в Sentinel
	RealtimeChannel    string   // Redis канал для раздачи событий между инстансами
	KafkaBrokers       string
	KafkaUsername      string
	KafkaPassword      string
	KafkaCACert        string
	KafkaTopic         string
	RabbitMQURL        string
	RabbitMQExchange   string
	ServerPort         string
	Environment        string
	LogLevel           string
	RunMigrations      bool
	PprofPort          string // пусто - pprof выключен

	// Авторизация админских операций
	JWTSecret              string
	JWTExpiresIn           time.Duration
	AuthMinPasswordLength  int
	AuthRateLimitWindow    time.Duration
	AuthRateLimitMax       int
	AdminBootstrapPassword string

	// Клиентская часть
	BackendMode        string // local | server
	BackendURL         string
	AllowLocalFallback bool // глобальный выключатель contingency fallback
	RequestTimeout     time.Duration
	RealtimeDebounce   time.Duration
	BackoffBase        time.Duration // задержка переподключения: min(cap, base*2^attempt)
	BackoffCap         time.Duration
	LocalStateFile     string
	LocalPollInterval  time.Duration
	LocalEmitDebounce  time.Duration
	BackendToken       string // Bearer токен для защищенных маршрутов
}

// Load читает конфигурацию из окружения (.env подгружается в main через godotenv)
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// Railway и подобные могут отдавать разные имена переменных для PostgreSQL
	databaseURL := firstNonEmpty(v, "DATABASE_URL", "POSTGRES_URL", "PGDATABASE_URL")
	if databaseURL == "" {
		pgHost := v.GetString("PGHOST")
		if pgHost != "" {
			pgUser := v.GetString("PGUSER")
			if pgPassword := v.GetString("PGPASSWORD"); pgPassword != "" {
				pgUser = pgUser + ":" + pgPassword
			}
			databaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=disable",
				pgUser, pgHost, v.GetString("PGPORT"), v.GetString("PGDATABASE"))
		}
	}

	redisURL := firstNonEmpty(v, "REDIS_URL", "REDISCLOUD_URL")
	if redisURL == "" {
		if redisHost := v.GetString("REDISHOST"); redisHost != "" {
			auth := ""
			if redisPassword := v.GetString("REDISPASSWORD"); redisPassword != "" {
				auth = ":" + redisPassword + "@"
			}
			redisURL = fmt.Sprintf("redis://%s%s:%s/%s", auth, redisHost, v.GetString("REDISPORT"), v.GetString("REDISDB"))
		}
	}

	return &Config{
		DatabaseURL:        databaseURL,
		RedisURL:           redisURL,
		RedisSentinelAddrs: splitList(v.GetString("REDIS_SENTINEL_ADDRS")),
		RedisMasterName:    v.GetString("REDIS_MASTER_NAME"),
		RealtimeChannel:    v.GetString("REALTIME_CHANNEL"),
		KafkaBrokers:       v.GetString("KAFKA_BROKERS"),
		KafkaUsername:      v.GetString("KAFKA_USERNAME"),
		KafkaPassword:      v.GetString("KAFKA_PASSWORD"),
		KafkaCACert:        v.GetString("KAFKA_CA_CERT"),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:   v.GetString("RABBITMQ_EXCHANGE"),
		ServerPort:         v.GetString("PORT"),
		Environment:        v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		PprofPort:          v.GetString("PPROF_PORT"),

		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTExpiresIn:           v.GetDuration("JWT_EXPIRES_IN"),
		AuthMinPasswordLength:  v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
		AuthRateLimitWindow:    millis(v, "AUTH_RATE_LIMIT_WINDOW_MS"),
		AuthRateLimitMax:       v.GetInt("AUTH_RATE_LIMIT_MAX_ATTEMPTS"),
		AdminBootstrapPassword: v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),

		BackendMode:        normalizeMode(v.GetString("BACKEND_MODE")),
		BackendURL:         strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		AllowLocalFallback: v.GetBool("ALLOW_LOCAL_FALLBACK"),
		RequestTimeout:     millis(v, "REQUEST_TIMEOUT_MS"),
		RealtimeDebounce:   millis(v, "REALTIME_DEBOUNCE_MS"),
		BackoffBase:        millis(v, "REALTIME_BACKOFF_BASE_MS"),
		BackoffCap:         millis(v, "REALTIME_BACKOFF_CAP_MS"),
		LocalStateFile:     v.GetString("LOCAL_STATE_FILE"),
		LocalPollInterval:  millis(v, "LOCAL_POLL_MS"),
		LocalEmitDebounce:  millis(v, "LOCAL_EMIT_DEBOUNCE_MS"),
		BackendToken:       v.GetString("BACKEND_TOKEN"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGPORT", "5432")
	v.SetDefault("PGUSER", "postgres")
	v.SetDefault("PGDATABASE", "comandas")
	v.SetDefault("REDISPORT", "6379")
	v.SetDefault("REDISDB", "0")
	v.SetDefault("REDIS_MASTER_NAME", "mymaster")
	v.SetDefault("REALTIME_CHANNEL", "comandas:realtime")
	v.SetDefault("KAFKA_TOPIC", "comandas.events")
	v.SetDefault("RABBITMQ_EXCHANGE", "comandas")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRES_IN", "15m")
	v.SetDefault("AUTH_MIN_PASSWORD_LENGTH", 8)
	v.SetDefault("AUTH_RATE_LIMIT_WINDOW_MS", 300000)
	v.SetDefault("AUTH_RATE_LIMIT_MAX_ATTEMPTS", 8)
	v.SetDefault("ADMIN_BOOTSTRAP_PASSWORD", "admin")
	v.SetDefault("BACKEND_MODE", ModeLocal)
	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("ALLOW_LOCAL_FALLBACK", true)
	v.SetDefault("REQUEST_TIMEOUT_MS", 8000)
	v.SetDefault("REALTIME_DEBOUNCE_MS", 250)
	v.SetDefault("REALTIME_BACKOFF_BASE_MS", 300)
	v.SetDefault("REALTIME_BACKOFF_CAP_MS", 8000)
	v.SetDefault("LOCAL_STATE_FILE", "restaurant-pos-storage.json")
	v.SetDefault("LOCAL_POLL_MS", 1000)
	v.SetDefault("LOCAL_EMIT_DEBOUNCE_MS", 120)
}

// IsProduction - боевое окружение
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsServerMode - клиент работает через бэкенд
func (c *Config) IsServerMode() bool {
	return c.BackendMode == ModeServer
}

func normalizeMode(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "server", "api":
		return ModeServer
	default:
		return ModeLocal
	}
}

func firstNonEmpty(v *viper.Viper, keys ...string) string {
	for _, k := range keys {
		if value := v.GetString(k); value != "" {
			return value
		}
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}
