package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"comandapos/server/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Терминалы ходят с разных origin (планшеты, касса, dev-сервер)
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Presence - учет клиентов по всем инстансам (Redis). nil - только локальный хаб.
type Presence interface {
	Join(ctx context.Context)
	Leave(ctx context.Context)
	ClusterClients(ctx context.Context) (int64, error)
}

// RealtimeController - /ws и статус realtime канала
type RealtimeController struct {
	hub      *Hub
	presence Presence
}

// NewRealtimeController создает контроллер. presence может быть nil.
func NewRealtimeController(hub *Hub, presence Presence) *RealtimeController {
	return &RealtimeController{hub: hub, presence: presence}
}

// ServeWS обрабатывает WebSocket подключения терминалов
func (rc *RealtimeController) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Ошибка обновления WebSocket соединения")
		return
	}

	client := &wsClient{conn: conn}
	rc.hub.AddClient(client)
	if rc.presence != nil {
		rc.presence.Join(c.Request.Context())
	}
	log.Info().Int("clients", rc.hub.GetClientsCount()).Msg("📱 Терминал подключен")

	defer func() {
		rc.hub.RemoveClient(client)
		if rc.presence != nil {
			rc.presence.Leave(context.Background())
		}
		log.Info().Int("clients", rc.hub.GetClientsCount()).Msg("📱 Терминал отключен")
	}()

	if welcome, err := models.NewRealtimeEvent(models.EventConnected, nil); err == nil {
		if err := client.writeJSON(welcome); err != nil {
			return
		}
	}

	// Читаем сообщения от клиента: ping -> pong, остальное игнорируем
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("⚠️ WebSocket ошибка")
			}
			break
		}
		if !isPing(data) {
			continue
		}
		pong, _ := models.NewRealtimeEvent(models.EventPong, nil)
		if err := client.writeJSON(pong); err != nil {
			break
		}
	}
}

// Status возвращает число подключенных клиентов
func (rc *RealtimeController) Status(c *gin.Context) {
	resp := gin.H{
		"ok":      true,
		"clients": rc.hub.GetClientsCount(),
	}
	if rc.presence != nil {
		if n, err := rc.presence.ClusterClients(c.Request.Context()); err == nil {
			resp["cluster_clients"] = n
		}
	}
	c.JSON(http.StatusOK, resp)
}

func isPing(data []byte) bool {
	text := strings.TrimSpace(string(data))
	if strings.EqualFold(text, "ping") {
		return true
	}
	var msg struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(data, &msg) == nil && strings.EqualFold(msg.Type, "ping")
}
