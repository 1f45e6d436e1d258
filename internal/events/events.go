package events

import (
	"context"
	"errors"

	"comandapos/server/internal/models"
)

// Publisher отправляет доменные события во внешний брокер (кухонные экраны,
// аналитика, бухгалтерия). Ошибка публикации не откатывает мутацию.
type Publisher interface {
	Publish(ctx context.Context, ev models.RealtimeEvent) error
	Close() error
}

// Noop - брокер не настроен
type Noop struct{}

func (Noop) Publish(ctx context.Context, ev models.RealtimeEvent) error { return nil }
func (Noop) Close() error                                             { return nil }

// Multi рассылает событие во все брокеры
type Multi []Publisher

// Publish публикует во все брокеры и собирает ошибки
func (m Multi) Publish(ctx context.Context, ev models.RealtimeEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close закрывает все брокеры
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
