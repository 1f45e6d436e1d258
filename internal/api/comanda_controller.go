package api

import (
	"errors"
	"io"
	"net/http"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ComandaController - команды: админка, открытие, отмена открытия, закрытие
type ComandaController struct {
	storage  Storage
	notifier Notifier
}

// NewComandaController создает контроллер команд
func NewComandaController(storage Storage, notifier Notifier) *ComandaController {
	return &ComandaController{storage: storage, notifier: notifier}
}

// ListComandas GET /api/comandas
func (cc *ComandaController) ListComandas(c *gin.Context) {
	comandas, err := cc.storage.ListComandas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comandas)
}

// CreateComanda POST /api/comandas
func (cc *ComandaController) CreateComanda(c *gin.Context) {
	var req struct {
		Number int `json:"number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	created, err := cc.storage.CreateComanda(c.Request.Context(), req.Number)
	if err != nil {
		respondError(c, err)
		return
	}
	cc.notifier.Notify(c.Request.Context(), models.EventComandaChanged, gin.H{"id": created.ID})
	c.JSON(http.StatusCreated, created)
}

// UpdateComanda PUT /api/comandas/:id - сейчас только открытие (status=occupied)
func (cc *ComandaController) UpdateComanda(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.ComandaStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	if req.Status != models.ComandaOccupied {
		badRequest(c, "команду освобождают через cancel-opening или finalize")
		return
	}
	comanda, err := cc.storage.SelectComanda(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	cc.notifier.Notify(c.Request.Context(), models.EventComandaChanged, gin.H{"id": id})
	c.JSON(http.StatusOK, comanda)
}

// DeleteComanda DELETE /api/comandas/:id
func (cc *ComandaController) DeleteComanda(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.storage.DeleteComanda(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	cc.notifier.Notify(c.Request.Context(), models.EventComandaChanged, gin.H{"id": id, "deleted": true})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CancelOpening POST /api/comandas/:id/cancel-opening
func (cc *ComandaController) CancelOpening(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cancelled, err := cc.storage.CancelOpening(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if cancelled {
		cc.notifier.Notify(c.Request.Context(), models.EventComandaChanged, gin.H{"id": id})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cancelled": cancelled})
}

// Finalize POST /api/comandas/:id/finalize
func (cc *ComandaController) Finalize(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var pay domain.Payment
	// пустое тело (в т.ч. chunked) - оплата не указана
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&pay); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "invalid data: "+err.Error())
			return
		}
	}
	res, err := cc.storage.Finalize(c.Request.Context(), id, pay)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int64("comanda_id", id).Str("receipt_id", res.ReceiptID).
		Int64("total_cents", res.Receipt.TotalCents).Msg("🧾 Команда закрыта")
	cc.notifier.Notify(c.Request.Context(), models.EventComandaFinalized, gin.H{
		"comanda_id": id,
		"receipt_id": res.ReceiptID,
	})
	c.JSON(http.StatusOK, res)
}
