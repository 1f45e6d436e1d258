package models

import (
	"encoding/json"
	"time"
)

// Типы realtime событий. Клиенту важен только факт изменения, тип - для логов и отладки.
const (
	EventConnected        = "realtime.connected"
	EventPong             = "pong"
	EventMenuChanged      = "menu.changed"
	EventCategoryChanged  = "category.changed"
	EventComandaChanged   = "comanda.changed"
	EventOrderSubmitted   = "order.submitted"
	EventOrderItemChanged = "order_item.changed"
	EventOrderReopened    = "order.reopened"
	EventComandaFinalized = "comanda.finalized"
	EventPaymentsUpdated  = "receipt.payments_updated"
)

// RealtimeEvent - конверт сообщения в /ws и в Redis канале
type RealtimeEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TS      int64           `json:"ts"` // unix ms
	Origin  string          `json:"origin,omitempty"`
}

// NewRealtimeEvent упаковывает payload в конверт
func NewRealtimeEvent(eventType string, payload interface{}) (RealtimeEvent, error) {
	ev := RealtimeEvent{Type: eventType, TS: time.Now().UnixMilli()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return ev, err
		}
		ev.Payload = raw
	}
	return ev, nil
}
