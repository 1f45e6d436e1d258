package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ConnectRedis подключается к Redis (с поддержкой Sentinel).
// Redis нужен только для раздачи realtime событий между инстансами,
// поэтому пустой redisURL без Sentinel - не ошибка: вернется nil клиент.
func ConnectRedis(ctx context.Context, redisURL string, sentinelAddrs []string, masterName string) (*redis.Client, error) {
	var client *redis.Client
	switch {
	case len(sentinelAddrs) > 0 && masterName != "":
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    masterName,
			SentinelAddrs: sentinelAddrs,
			PoolSize:      50,
			MinIdleConns:  5,
			MaxRetries:    3,
			DialTimeout:   5 * time.Second,
			ReadTimeout:   3 * time.Second,
			WriteTimeout:  3 * time.Second,
		})
	case redisURL != "":
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		// Pub/Sub держит свое соединение, остальное - редкие INCR/DECR
		opt.PoolSize = 50
		opt.MinIdleConns = 5
		opt.MaxRetries = 3
		client = redis.NewClient(opt)
	default:
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if len(sentinelAddrs) > 0 && masterName != "" {
		log.Info().Str("master", masterName).Strs("sentinels", sentinelAddrs).Msg("✅ Redis Sentinel connected successfully")
	} else {
		log.Info().Msg("✅ Redis connected successfully (direct connection)")
	}
	return client, nil
}

// CloseRedis закрывает подключение к Redis
func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
