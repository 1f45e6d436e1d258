package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"comandapos/server/internal/events"
	"comandapos/server/internal/models"
	"comandapos/server/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientsKey = "comandas:ws_clients"

// Broadcaster - локальный хаб инстанса
type Broadcaster interface {
	BroadcastEvent(ev models.RealtimeEvent)
}

// Fanout доводит событие о коммите до всех терминалов: локальный хаб сразу,
// другие инстансы через Redis Pub/Sub, внешние потребители через брокер
type Fanout struct {
	hub       Broadcaster
	redis     *utils.RedisClient
	channel   string
	origin    string
	publisher events.Publisher

	publishTimeout time.Duration
	wg             sync.WaitGroup
}

// NewFanout создает fanout. redis и publisher могут быть nil.
func NewFanout(hub Broadcaster, redis *utils.RedisClient, channel string, publisher events.Publisher) *Fanout {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Fanout{
		hub:            hub,
		redis:          redis,
		channel:        channel,
		origin:         uuid.New().String(),
		publisher:      publisher,
		publishTimeout: 5 * time.Second,
	}
}

// Origin - id этого инстанса в событиях
func (f *Fanout) Origin() string {
	return f.origin
}

// Notify рассылает событие. Ошибки транспорта логируются: мутация уже закоммичена.
func (f *Fanout) Notify(ctx context.Context, eventType string, payload interface{}) {
	ev, err := models.NewRealtimeEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("❌ Не удалось собрать событие")
		return
	}
	ev.Origin = f.origin
	f.hub.BroadcastEvent(ev)

	// запрос может завершиться раньше публикации
	bg := context.WithoutCancel(ctx)
	if f.redis != nil {
		rctx, cancel := context.WithTimeout(bg, 2*time.Second)
		if err := f.redis.PublishJSON(rctx, f.channel, ev); err != nil {
			log.Warn().Err(err).Str("type", ev.Type).Msg("⚠️ Redis: событие не разослано другим инстансам")
		}
		cancel()
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		pctx, cancel := context.WithTimeout(bg, f.publishTimeout)
		defer cancel()
		if err := f.publisher.Publish(pctx, ev); err != nil {
			log.Warn().Err(err).Str("type", ev.Type).Msg("⚠️ Событие не опубликовано в брокер")
		}
	}()
}

// Relay передает в локальный хаб событие другого инстанса; свои пропускаются
func (f *Fanout) Relay(ev models.RealtimeEvent) {
	if ev.Origin == f.origin {
		return
	}
	f.hub.BroadcastEvent(ev)
}

// Run слушает Redis канал до отмены контекста. Без Redis сразу возвращает nil.
func (f *Fanout) Run(ctx context.Context) error {
	if f.redis == nil {
		return nil
	}
	messages, closeFn := f.redis.Subscribe(ctx, f.channel)
	defer closeFn()
	log.Info().Str("channel", f.channel).Msg("📡 Подписка на realtime канал Redis")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var ev models.RealtimeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("⚠️ Redis: битое событие пропущено")
				continue
			}
			f.Relay(ev)
		}
	}
}

// Close дожидается фоновых публикаций и закрывает брокер
func (f *Fanout) Close() error {
	f.wg.Wait()
	return f.publisher.Close()
}

// Join учитывает подключение в общем счетчике
func (f *Fanout) Join(ctx context.Context) {
	if f.redis == nil {
		return
	}
	if _, err := f.redis.Increment(ctx, clientsKey); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis: счетчик клиентов не увеличен")
	}
}

// Leave уменьшает общий счетчик
func (f *Fanout) Leave(ctx context.Context) {
	if f.redis == nil {
		return
	}
	if _, err := f.redis.Decrement(ctx, clientsKey); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis: счетчик клиентов не уменьшен")
	}
}

// ClusterClients - число терминалов по всем инстансам
func (f *Fanout) ClusterClients(ctx context.Context) (int64, error) {
	if f.redis == nil {
		return 0, errors.New("redis is not configured")
	}
	return f.redis.GetInt(ctx, clientsKey)
}
