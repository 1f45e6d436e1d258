package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comandapos/server/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher пишет события в топик, ключ сообщения - id команды или тип события,
// чтобы события одной команды шли в одну партицию
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher создает writer. Соединение ленивое, первая ошибка придет из Publish.
func NewKafkaPublisher(brokers, topic string, auth KafkaAuth) (*KafkaPublisher, error) {
	list := ParseKafkaBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers are empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
		Transport:              auth.Transport(),
	}
	log.Info().Strs("brokers", list).Str("topic", topic).Msg("📡 Kafka publisher создан")
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

// Publish отправляет событие
func (p *KafkaPublisher) Publish(ctx context.Context, ev models.RealtimeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(messageKey(ev)),
		Value: body,
		Time:  time.UnixMilli(ev.TS),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close сбрасывает буфер и закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriber читает события других инстансов. У каждого инстанса своя
// consumer group, поэтому событие получают все.
type KafkaSubscriber struct {
	reader *kafka.Reader
	origin string
}

// NewKafkaSubscriber создает reader с начальной позицией в конце топика
func NewKafkaSubscriber(brokers, topic, origin string, auth KafkaAuth) *KafkaSubscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     ParseKafkaBrokers(brokers),
		Topic:       topic,
		GroupID:     "comandas-realtime-" + origin,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      auth.Dialer(),
	})
	return &KafkaSubscriber{reader: reader, origin: origin}
}

// Run передает в handle чужие события до отмены контекста
func (s *KafkaSubscriber) Run(ctx context.Context, handle func(models.RealtimeEvent)) error {
	log.Info().Str("topic", s.reader.Config().Topic).Msg("📡 Kafka subscriber запущен")
	defer s.reader.Close()
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("🛑 Kafka subscriber остановлен")
				return nil
			}
			log.Warn().Err(err).Msg("⚠️ Kafka subscriber ошибка чтения")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		var ev models.RealtimeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn().Err(err).Msg("⚠️ Kafka: битое событие пропущено")
			continue
		}
		if ev.Origin == s.origin {
			continue
		}
		handle(ev)
	}
}

func messageKey(ev models.RealtimeEvent) string {
	var payload struct {
		ComandaID int64 `json:"comanda_id"`
	}
	if len(ev.Payload) > 0 && json.Unmarshal(ev.Payload, &payload) == nil && payload.ComandaID > 0 {
		return fmt.Sprintf("comanda-%d", payload.ComandaID)
	}
	return ev.Type
}
