package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Pinger - зависимость, которую health проверяет параллельно с БД
type Pinger interface {
	Ping(ctx context.Context) error
}

// StateController - health и полный снимок состояния
type StateController struct {
	storage Storage
	redis   Pinger
}

// NewStateController создает контроллер. redis может быть nil.
func NewStateController(storage Storage, redis Pinger) *StateController {
	return &StateController{storage: storage, redis: redis}
}

// Health проверяет БД и Redis параллельно
func (sc *StateController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var dbOK, redisOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbOK = sc.storage.Ping(gctx) == nil
		return nil
	})
	if sc.redis != nil {
		g.Go(func() error {
			redisOK = sc.redis.Ping(gctx) == nil
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":      dbOK,
		"service": "comanda-pos",
		"db":      dbOK,
		"redis":   redisOK,
	})
}

// State возвращает полный снимок: меню, категории, команды, заказы, позиции
func (sc *StateController) State(c *gin.Context) {
	snap, err := sc.storage.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
