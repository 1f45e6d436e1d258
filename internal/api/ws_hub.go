package api

import (
	"context"
	"encoding/json"
	"sync"

	"comandapos/server/internal/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// wsClient - соединение с собственной блокировкой записи: gorilla не допускает
// конкурентных писателей, а пишут и хаб, и обработчик ping
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsClient) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

// Hub управляет WebSocket соединениями терминалов (официанты, кухня, касса)
type Hub struct {
	clients   map[*wsClient]bool
	broadcast chan []byte
	mutex     sync.RWMutex
}

// NewHub создает хаб
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*wsClient]bool),
		broadcast: make(chan []byte, 256), // Буферизованный канал для производительности
	}
}

// Run раздает сообщения до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.mutex.RLock()
			var failed []*wsClient
			for client := range h.clients {
				if err := client.write(msg); err != nil {
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()
			// Удаляем клиентов с ошибкой записи
			for _, client := range failed {
				h.RemoveClient(client)
			}
		}
	}
}

// AddClient добавляет клиента
func (h *Hub) AddClient(client *wsClient) {
	h.mutex.Lock()
	h.clients[client] = true
	h.mutex.Unlock()
}

// RemoveClient удаляет клиента
func (h *Hub) RemoveClient(client *wsClient) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.conn.Close()
	}
	h.mutex.Unlock()
}

// BroadcastMessage отправляет сырое сообщение всем подключенным клиентам
func (h *Hub) BroadcastMessage(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		// Если канал переполнен, пропускаем сообщение (не блокируем)
		log.Warn().Msg("⚠️ Канал хаба переполнен, событие пропущено")
	}
}

// BroadcastEvent отправляет событие {type, payload, ts}
func (h *Hub) BroadcastEvent(ev models.RealtimeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("❌ Не удалось сериализовать событие")
		return
	}
	h.BroadcastMessage(data)
}

// GetClientsCount возвращает количество подключенных клиентов
func (h *Hub) GetClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.conn.Close()
		delete(h.clients, client)
	}
}
