package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"comandapos/server/internal/models"
	"comandapos/server/internal/report"
	"github.com/gin-gonic/gin"
)

// OrderController - заказы и позиции заказов
type OrderController struct {
	storage  Storage
	notifier Notifier
}

// NewOrderController создает контроллер заказов
func NewOrderController(storage Storage, notifier Notifier) *OrderController {
	return &OrderController{storage: storage, notifier: notifier}
}

// SubmitOrderRequest - корзина команды
type SubmitOrderRequest struct {
	ComandaID int64             `json:"comanda_id"`
	Items     []models.CartLine `json:"items"`
}

// ListOrders GET /api/orders
func (oc *OrderController) ListOrders(c *gin.Context) {
	orders, err := oc.storage.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// History GET /api/orders/history?limit=100
func (oc *OrderController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	history, err := oc.storage.OrderHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// ExportHistory GET /api/orders/history/export?q=&from=2026-03-01&to=2026-03-31&tz=America/Sao_Paulo
// Отдает xlsx с листами Historico и Resumo.
func (oc *OrderController) ExportHistory(c *gin.Context) {
	loc := time.Local
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			badRequest(c, "invalid tz")
			return
		}
		loc = l
	}
	filter := report.HistoryFilter{Query: c.Query("q")}
	if v := c.Query("from"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			badRequest(c, "invalid from")
			return
		}
		start, _ := report.DayBounds(day, loc)
		filter.From = &start
	}
	if v := c.Query("to"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			badRequest(c, "invalid to")
			return
		}
		_, end := report.DayBounds(day, loc)
		filter.To = &end
	}

	snap, err := oc.storage.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	rows := report.FilterHistoryRows(report.BuildHistoryRows(snap), filter)

	name := fmt.Sprintf("historico-%s.xlsx", time.Now().In(loc).Format("20060102-1504"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := report.WriteHistoryWorkbook(c.Writer, rows, snap.Orders, loc); err != nil {
		respondError(c, err)
	}
}

// SubmitOrder POST /api/orders
func (oc *OrderController) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	if req.ComandaID <= 0 {
		badRequest(c, "comanda_id обязателен")
		return
	}
	res, err := oc.storage.SubmitOrder(c.Request.Context(), req.ComandaID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	oc.notifier.Notify(c.Request.Context(), models.EventOrderSubmitted, gin.H{
		"comanda_id": req.ComandaID,
		"order_id":   res.Order.ID,
		"items":      len(res.Items),
	})
	c.JSON(http.StatusCreated, res)
}

// AddItem POST /api/orders/:id/items
func (oc *OrderController) AddItem(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var line models.CartLine
	if err := c.ShouldBindJSON(&line); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	item, err := oc.storage.AddItemToOrder(c.Request.Context(), orderID, line)
	if err != nil {
		respondError(c, err)
		return
	}
	oc.notifier.Notify(c.Request.Context(), models.EventOrderItemChanged, gin.H{"order_id": orderID, "item_id": item.ID})
	c.JSON(http.StatusCreated, item)
}

// ReopenOrder POST /api/orders/:id/reopen
func (oc *OrderController) ReopenOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := oc.storage.ReopenOrder(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	oc.notifier.Notify(c.Request.Context(), models.EventOrderReopened, gin.H{"order_id": orderID})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UpdateItem PUT /api/order-items/:id - статус и/или количество
func (oc *OrderController) UpdateItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status   *models.ItemStatus `json:"status"`
		Quantity *int              `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	if req.Status == nil && req.Quantity == nil {
		badRequest(c, "нужен status или quantity")
		return
	}

	ctx := c.Request.Context()
	var (
		item    *models.OrderItem
		deleted bool
	)
	if req.Quantity != nil {
		updated, err := oc.storage.UpdateItemQuantity(ctx, itemID, *req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		item, deleted = updated, updated == nil
	}
	if req.Status != nil && !deleted {
		updated, err := oc.storage.SetItemStatus(ctx, itemID, *req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		item = &updated
	}

	oc.notifier.Notify(ctx, models.EventOrderItemChanged, gin.H{"item_id": itemID, "deleted": deleted})
	if deleted {
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem DELETE /api/order-items/:id
func (oc *OrderController) DeleteItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := oc.storage.DeleteItem(c.Request.Context(), itemID); err != nil {
		respondError(c, err)
		return
	}
	oc.notifier.Notify(c.Request.Context(), models.EventOrderItemChanged, gin.H{"item_id": itemID, "deleted": true})
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true})
}
