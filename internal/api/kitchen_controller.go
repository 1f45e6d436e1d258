package api

import (
	"net/http"

	"comandapos/server/internal/report"
	"github.com/gin-gonic/gin"
)

// KitchenController - экран кухни поверх снапшота
type KitchenController struct {
	storage Storage
}

func NewKitchenController(storage Storage) *KitchenController {
	return &KitchenController{storage: storage}
}

// Board GET /api/kitchen/board - очередь (pending/preparing) и история по командам
func (kc *KitchenController) Board(c *gin.Context) {
	snap, err := kc.storage.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report.BuildKitchenBoard(snap))
}
