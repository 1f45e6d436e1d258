package pos

import (
	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
)

// FinalizeResult - итог закрытия команды
type FinalizeResult struct {
	ReceiptID string                  `json:"receipt_id"`
	Receipt   models.Receipt          `json:"receipt"`
	Payments  []models.ReceiptPayment `json:"payments,omitempty"`
}

// Finalize закрывает команду. Если на кухне есть незавершенные позиции, возвращает
// BlockedByKitchenError и ничего не меняет.
func (e *Engine) Finalize(b *Book, comandaID int64, pay domain.Payment) (*FinalizeResult, error) {
	c := b.comanda(comandaID)
	if c == nil {
		return nil, domain.NotFound("команда", comandaID)
	}
	if n := domain.CountKitchenBlocking(comandaID, b.Orders, b.OrderItems, b.Categories); n > 0 {
		return nil, &domain.BlockedByKitchenError{ComandaID: comandaID, Pending: n}
	}
	open := domain.OpenOrders(comandaID, b.Orders)
	if len(open) == 0 {
		return nil, domain.Validationf("у команды %d нет открытых заказов", c.Number)
	}
	var parts []models.PaymentPart
	if pay.IsSplit() {
		if err := domain.ValidatePayments(pay.Parts); err != nil {
			return nil, err
		}
		parts = domain.SanitizePayments(pay.Parts)
		if len(parts) == 0 {
			return nil, domain.Validationf("не указано ни одной части оплаты")
		}
	}

	now := e.now()
	receiptID := domain.ExistingReceiptID(open)
	if receiptID == "" {
		receiptID = domain.NewReceiptID(comandaID, now)
	}
	method := pay.OrderMethod()

	closing := make(map[int64]struct{}, len(open))
	for i := range b.Orders {
		o := &b.Orders[i]
		if o.ComandaID != comandaID || o.IsClosed() {
			continue
		}
		closing[o.ID] = struct{}{}
		o.Status = models.OrderClosed
		closedAt := now
		o.ClosedAt = &closedAt
		if o.ReceiptID == nil {
			o.ReceiptID = models.StringPtr(receiptID)
		}
		if method != nil {
			o.PaymentMethod = models.StringPtr(*method)
		} else {
			o.PaymentMethod = nil
		}
	}
	for i := range b.OrderItems {
		it := &b.OrderItems[i]
		if _, ok := closing[it.OrderID]; ok && it.Status != models.ItemCanceled {
			it.Status = models.ItemDelivered
		}
	}
	c.Status = models.ComandaAvailable
	c.Total = 0

	// набор оплат заменяется целиком: при одном методе старая разбивка удаляется
	if len(parts) > 0 {
		if b.Payments == nil {
			b.Payments = make(map[string][]models.PaymentPart)
		}
		b.Payments[receiptID] = parts
	} else {
		delete(b.Payments, receiptID)
		parts = []models.PaymentPart{}
	}
	receipt := e.refreshReceipt(b, receiptID, parts)

	return &FinalizeResult{ReceiptID: receiptID, Receipt: receipt, Payments: paymentRows(receiptID, parts)}, nil
}

// UpsertPayments полностью заменяет набор оплат чека и пересчитывает заголовок.
// Повтор с теми же частями дает тот же результат.
func (e *Engine) UpsertPayments(b *Book, receiptID string, parts []models.PaymentPart) (models.Receipt, []models.ReceiptPayment, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return models.Receipt{}, nil, err
	}
	if err := domain.ValidatePayments(parts); err != nil {
		return models.Receipt{}, nil, err
	}
	if !b.hasReceipt(receiptID) {
		return models.Receipt{}, nil, domain.NotFound("чек", receiptID)
	}
	clean := domain.SanitizePayments(parts)
	if b.Payments == nil {
		b.Payments = make(map[string][]models.PaymentPart)
	}
	if len(clean) == 0 {
		delete(b.Payments, receiptID)
	} else {
		b.Payments[receiptID] = clean
	}
	receipt := e.refreshReceipt(b, receiptID, clean)
	return receipt, paymentRows(receiptID, clean), nil
}

// Receipt возвращает заголовок чека
func (e *Engine) Receipt(b *Book, receiptID string) (models.Receipt, error) {
	r, ok := b.Receipts[receiptID]
	if !ok {
		return models.Receipt{}, domain.NotFound("чек", receiptID)
	}
	return r, nil
}

// ReceiptPayments возвращает части оплаты чека
func (e *Engine) ReceiptPayments(b *Book, receiptID string) []models.ReceiptPayment {
	return paymentRows(receiptID, b.Payments[receiptID])
}

func (b *Book) hasReceipt(receiptID string) bool {
	if _, ok := b.Receipts[receiptID]; ok {
		return true
	}
	for _, o := range b.Orders {
		if o.ReceiptID != nil && *o.ReceiptID == receiptID {
			return true
		}
	}
	return false
}

// refreshReceipt пересобирает заголовок чека; created_at сохраняется.
// parts == nil - берутся сохраненные оплаты, пустой срез - метод по заказам.
func (e *Engine) refreshReceipt(b *Book, receiptID string, parts []models.PaymentPart) models.Receipt {
	if parts == nil {
		parts = b.Payments[receiptID]
	}
	var comanda *models.Comanda
	for _, o := range b.Orders {
		if o.ReceiptID != nil && *o.ReceiptID == receiptID {
			comanda = b.comanda(o.ComandaID)
			break
		}
	}
	r := domain.BuildReceipt(receiptID, b.Orders, b.OrderItems, comanda, parts)
	now := e.now()
	if r.ClosedAt.IsZero() {
		r.ClosedAt = now
	}
	if b.Receipts == nil {
		b.Receipts = make(map[string]models.Receipt)
	}
	if prev, ok := b.Receipts[receiptID]; ok {
		r.CreatedAt = prev.CreatedAt
	} else {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	b.Receipts[receiptID] = r
	return r
}

func paymentRows(receiptID string, parts []models.PaymentPart) []models.ReceiptPayment {
	if len(parts) == 0 {
		return nil
	}
	rows := make([]models.ReceiptPayment, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, models.ReceiptPayment{ReceiptID: receiptID, Method: p.Method, AmountCents: p.AmountCents})
	}
	return rows
}
