package utils

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisClient обертка над Redis клиентом для realtime слоя
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient создает обертку
func NewRedisClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// PublishJSON публикует значение в канал (Pub/Sub)
func (r *RedisClient) PublishJSON(ctx context.Context, channel string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Subscribe подписывается на канал и возвращает канал сообщений и функцию закрытия
func (r *RedisClient) Subscribe(ctx context.Context, channel string) (<-chan *redis.Message, func() error) {
	pubsub := r.client.Subscribe(ctx, channel)
	return pubsub.Channel(), pubsub.Close
}

// Increment увеличивает счетчик на 1
func (r *RedisClient) Increment(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// Decrement уменьшает счетчик на 1
func (r *RedisClient) Decrement(ctx context.Context, key string) (int64, error) {
	return r.client.Decr(ctx, key).Result()
}

// GetInt читает счетчик; отсутствующий ключ = 0
func (r *RedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	s, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// Ping проверяет соединение
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
