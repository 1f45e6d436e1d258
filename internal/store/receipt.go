package store

import (
	"context"
	"errors"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryEntry - закрытый заказ для экрана истории
type HistoryEntry struct {
	Order   models.Order       `json:"order"`
	Items   []models.OrderItem `json:"items"`
	Receipt *models.Receipt    `json:"receipt,omitempty"`
}

// Finalize закрывает все открытые заказы команды одной транзакцией.
// Незавершенная кухня блокирует закрытие без изменений.
func (s *Store) Finalize(ctx context.Context, comandaID int64, pay domain.Payment) (*pos.FinalizeResult, error) {
	var parts []models.PaymentPart
	if pay.IsSplit() {
		if err := domain.ValidatePayments(pay.Parts); err != nil {
			return nil, err
		}
		parts = domain.SanitizePayments(pay.Parts)
		if len(parts) == 0 {
			return nil, domain.Validationf("не указано ни одной части оплаты")
		}
	} else {
		parts = []models.PaymentPart{}
	}

	var result *pos.FinalizeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockComanda(tx, comandaID)
		if err != nil {
			return err
		}
		cats, err := loadCategories(tx)
		if err != nil {
			return err
		}
		open, err := openOrdersOf(tx, comandaID)
		if err != nil {
			return err
		}
		items, err := itemsOf(tx, open)
		if err != nil {
			return err
		}
		if n := domain.CountKitchenBlocking(comandaID, open, items, cats); n > 0 {
			return &domain.BlockedByKitchenError{ComandaID: comandaID, Pending: n}
		}
		if len(open) == 0 {
			return domain.Validationf("у команды %d нет открытых заказов", c.Number)
		}

		now := s.now()
		receiptID := domain.ExistingReceiptID(open)
		if receiptID == "" {
			receiptID = domain.NewReceiptID(comandaID, now)
		}
		ids := orderIDs(open)

		if err := tx.Model(&models.Order{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":         models.OrderClosed,
			"closed_at":      now,
			"payment_method": pay.OrderMethod(),
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("id IN ? AND receipt_id IS NULL", ids).
			Update("receipt_id", receiptID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("order_id IN ? AND status <> ?", ids, models.ItemCanceled).
			Update("status", models.ItemDelivered).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comanda{}).Where("id = ?", comandaID).Updates(map[string]interface{}{
			"status": models.ComandaAvailable,
			"total":  0,
		}).Error; err != nil {
			return err
		}

		// при одном методе старая разбивка переоткрытого чека удаляется
		rows, err := replacePayments(tx, receiptID, parts)
		if err != nil {
			return err
		}
		receipt, err := upsertReceipt(tx, receiptID, parts, now)
		if err != nil {
			return err
		}
		result = &pos.FinalizeResult{ReceiptID: receiptID, Receipt: receipt, Payments: rows}
		return nil
	})
	return result, err
}

// GetReceipt возвращает заголовок чека
func (s *Store) GetReceipt(ctx context.Context, receiptID string) (models.Receipt, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return models.Receipt{}, err
	}
	var r models.Receipt
	err := s.db.WithContext(ctx).Where("receipt_id = ?", receiptID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, domain.NotFound("чек", receiptID)
	}
	return r, err
}

// GetReceiptPayments возвращает части оплаты чека
func (s *Store) GetReceiptPayments(ctx context.Context, receiptID string) ([]models.ReceiptPayment, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return nil, err
	}
	var rows []models.ReceiptPayment
	err := s.db.WithContext(ctx).Where("receipt_id = ?", receiptID).Order("id").Find(&rows).Error
	return rows, err
}

// UpsertReceiptPayments полностью заменяет оплаты чека и пересобирает заголовок.
// Повтор с теми же частями идемпотентен.
func (s *Store) UpsertReceiptPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (models.Receipt, []models.ReceiptPayment, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return models.Receipt{}, nil, err
	}
	if err := domain.ValidatePayments(parts); err != nil {
		return models.Receipt{}, nil, err
	}
	clean := domain.SanitizePayments(parts)

	var (
		receipt models.Receipt
		rows    []models.ReceiptPayment
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Order{}).Where("receipt_id = ?", receiptID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := tx.Model(&models.Receipt{}).Where("receipt_id = ?", receiptID).Count(&n).Error; err != nil {
				return err
			}
		}
		if n == 0 {
			return domain.NotFound("чек", receiptID)
		}

		var err error
		if rows, err = replacePayments(tx, receiptID, clean); err != nil {
			return err
		}
		receipt, err = upsertReceipt(tx, receiptID, clean, s.now())
		return err
	})
	return receipt, rows, err
}

// OrderHistory - закрытые заказы, свежие сначала
func (s *Store) OrderHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := s.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Where("status = ?", models.OrderClosed).
		Order("closed_at DESC NULLS LAST, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	items, err := itemsOf(db, orders)
	if err != nil {
		return nil, err
	}

	var receiptIDs []string
	seen := make(map[string]struct{})
	for _, o := range orders {
		if o.ReceiptID == nil {
			continue
		}
		if _, ok := seen[*o.ReceiptID]; !ok {
			seen[*o.ReceiptID] = struct{}{}
			receiptIDs = append(receiptIDs, *o.ReceiptID)
		}
	}
	receipts := make(map[string]models.Receipt, len(receiptIDs))
	if len(receiptIDs) > 0 {
		var rows []models.Receipt
		if err := db.Where("receipt_id = ANY(?)", pq.Array(receiptIDs)).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			receipts[r.ReceiptID] = r
		}
	}

	out := make([]HistoryEntry, 0, len(orders))
	for _, o := range orders {
		e := HistoryEntry{Order: o, Items: domain.ItemsOfOrders([]models.Order{o}, items)}
		if o.ReceiptID != nil {
			if r, ok := receipts[*o.ReceiptID]; ok {
				e.Receipt = &r
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// replacePayments: delete + insert, набор частей заменяется целиком
func replacePayments(tx *gorm.DB, receiptID string, parts []models.PaymentPart) ([]models.ReceiptPayment, error) {
	if err := tx.Where("receipt_id = ?", receiptID).Delete(&models.ReceiptPayment{}).Error; err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}
	rows := make([]models.ReceiptPayment, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, models.ReceiptPayment{ReceiptID: receiptID, Method: p.Method, AmountCents: p.AmountCents})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// upsertReceipt пересобирает заголовок чека из заказов. parts == nil - метод
// определяется по сохраненным оплатам, пустой срез - по заказам.
func upsertReceipt(tx *gorm.DB, receiptID string, parts []models.PaymentPart, now time.Time) (models.Receipt, error) {
	var orders []models.Order
	if err := tx.Where("receipt_id = ?", receiptID).Find(&orders).Error; err != nil {
		return models.Receipt{}, err
	}
	items, err := itemsOf(tx, orders)
	if err != nil {
		return models.Receipt{}, err
	}
	if parts == nil {
		var rows []models.ReceiptPayment
		if err := tx.Where("receipt_id = ?", receiptID).Find(&rows).Error; err != nil {
			return models.Receipt{}, err
		}
		for _, r := range rows {
			parts = append(parts, models.PaymentPart{Method: r.Method, AmountCents: r.AmountCents})
		}
	}
	var comanda *models.Comanda
	if len(orders) > 0 {
		var c models.Comanda
		if err := tx.First(&c, orders[0].ComandaID).Error; err == nil {
			comanda = &c
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Receipt{}, err
		}
	}

	r := domain.BuildReceipt(receiptID, orders, items, comanda, parts)
	if r.ClosedAt.IsZero() {
		r.ClosedAt = now
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "receipt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"comanda_id", "comanda_number", "closed_at", "total_cents", "payment_method", "updated_at"}),
	}).Create(&r).Error
	if err != nil {
		return models.Receipt{}, err
	}
	var saved models.Receipt
	err = tx.Where("receipt_id = ?", receiptID).First(&saved).Error
	return saved, err
}
