package api

import (
	"net/http"

	"comandapos/server/internal/models"
	"comandapos/server/internal/report"
	"github.com/gin-gonic/gin"
)

// ReceiptController - чеки и оплаты
type ReceiptController struct {
	storage  Storage
	notifier Notifier
}

// NewReceiptController создает контроллер чеков
func NewReceiptController(storage Storage, notifier Notifier) *ReceiptController {
	return &ReceiptController{storage: storage, notifier: notifier}
}

// GetReceipt GET /api/receipts/:receiptId
func (rc *ReceiptController) GetReceipt(c *gin.Context) {
	r, err := rc.storage.GetReceipt(c.Request.Context(), c.Param("receiptId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Text GET /api/receipts/:receiptId/text - чек для термопринтера
func (rc *ReceiptController) Text(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("receiptId")
	r, err := rc.storage.GetReceipt(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	payments, err := rc.storage.GetReceiptPayments(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	snap, err := rc.storage.Snapshot(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, report.BuildReceiptText(report.ReceiptInputFor(snap, r, payments)))
}

// GetPayments GET /api/receipts/:receiptId/payments
func (rc *ReceiptController) GetPayments(c *gin.Context) {
	rows, err := rc.storage.GetReceiptPayments(c.Request.Context(), c.Param("receiptId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []models.ReceiptPayment{}
	}
	c.JSON(http.StatusOK, gin.H{"receipt_id": c.Param("receiptId"), "payments": rows})
}

// UpsertPayments PUT /api/receipts/:receiptId/payments - полная замена набора
func (rc *ReceiptController) UpsertPayments(c *gin.Context) {
	var req struct {
		Payments []models.PaymentPart `json:"payments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	receiptID := c.Param("receiptId")
	receipt, rows, err := rc.storage.UpsertReceiptPayments(c.Request.Context(), receiptID, req.Payments)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []models.ReceiptPayment{}
	}
	rc.notifier.Notify(c.Request.Context(), models.EventPaymentsUpdated, gin.H{"receipt_id": receiptID})
	c.JSON(http.StatusOK, gin.H{"receipt": receipt, "payments": rows})
}

// Reopen POST /api/receipts/:receiptId/reopen
func (rc *ReceiptController) Reopen(c *gin.Context) {
	receiptID := c.Param("receiptId")
	if err := rc.storage.ReopenReceipt(c.Request.Context(), receiptID); err != nil {
		respondError(c, err)
		return
	}
	rc.notifier.Notify(c.Request.Context(), models.EventOrderReopened, gin.H{"receipt_id": receiptID})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
