package store

import (
	"context"
	"errors"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"gorm.io/gorm"
)

// ListComandas возвращает команды по номеру
func (s *Store) ListComandas(ctx context.Context) ([]models.Comanda, error) {
	var comandas []models.Comanda
	err := s.db.WithContext(ctx).Order("number").Find(&comandas).Error
	return comandas, err
}

// CreateComanda создает команду с уникальным номером
func (s *Store) CreateComanda(ctx context.Context, number int) (models.Comanda, error) {
	if number <= 0 {
		return models.Comanda{}, domain.Validationf("номер команды должен быть больше нуля")
	}
	c := models.Comanda{Number: number, Status: models.ComandaAvailable}
	err := s.db.WithContext(ctx).Create(&c).Error
	if isUniqueViolation(err) {
		return models.Comanda{}, &domain.ConflictError{Code: domain.CodeComandaNumberExists, Message: "команда с таким номером уже существует"}
	}
	return c, err
}

// DeleteComanda удаляет свободную команду без заказов
func (s *Store) DeleteComanda(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockComanda(tx, id)
		if err != nil {
			return err
		}
		var orders []models.Order
		if err := tx.Where("comanda_id = ?", id).Limit(1).Find(&orders).Error; err != nil {
			return err
		}
		if err := pos.CheckDeletable(c, orders); err != nil {
			return err
		}
		return tx.Delete(&models.Comanda{}, id).Error
	})
}

// SelectComanda открывает команду: свободная становится занятой
func (s *Store) SelectComanda(ctx context.Context, id int64) (models.Comanda, error) {
	var c models.Comanda
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = lockComanda(tx, id)
		if err != nil {
			return err
		}
		if c.Status != models.ComandaAvailable {
			return nil
		}
		c.Status = models.ComandaOccupied
		return tx.Model(&models.Comanda{}).Where("id = ?", id).Update("status", c.Status).Error
	})
	return c, err
}

// CancelOpening освобождает занятую команду с нулевой суммой. false - ничего не изменено.
func (s *Store) CancelOpening(ctx context.Context, id int64) (bool, error) {
	cancelled := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockComanda(tx, id)
		if err != nil {
			return err
		}
		if c.Status != models.ComandaOccupied {
			return nil
		}
		open, err := openOrdersOf(tx, id)
		if err != nil {
			return err
		}
		items, err := itemsOf(tx, open)
		if err != nil {
			return err
		}
		if domain.ComputeTotal(id, open, items) != 0 {
			return nil
		}

		if len(open) > 0 {
			ids := orderIDs(open)
			if err := tx.Model(&models.OrderItem{}).Where("order_id IN ?", ids).
				Update("status", models.ItemCanceled).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Order{}).Where("id IN ?", ids).Updates(map[string]interface{}{
				"status":    models.OrderClosed,
				"closed_at": s.now(),
			}).Error; err != nil {
				return err
			}
		}
		cancelled = true
		return tx.Model(&models.Comanda{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status": models.ComandaAvailable,
			"total":  0,
		}).Error
	})
	return cancelled, err
}

// ListOrders возвращает все заказы
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Order("id").Find(&orders).Error
	return orders, err
}

// GetOrder возвращает заказ с позициями
func (s *Store) GetOrder(ctx context.Context, id int64) (models.Order, []models.OrderItem, error) {
	db := s.db.WithContext(ctx)
	o, err := loadOrder(db, id)
	if err != nil {
		return o, nil, err
	}
	items, err := itemsOf(db, []models.Order{o})
	return o, items, err
}

// SubmitOrder добавляет корзину в последний открытый заказ команды или создает новый.
// Все строки проверяются до первой записи.
func (s *Store) SubmitOrder(ctx context.Context, comandaID int64, lines []models.CartLine) (*pos.SubmitResult, error) {
	if len(lines) == 0 {
		return nil, domain.Validationf("корзина пуста")
	}
	if len(lines) > domain.MaxOrderItems {
		return nil, domain.Validationf("слишком много позиций: %d (максимум %d)", len(lines), domain.MaxOrderItems)
	}

	var result *pos.SubmitResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockComanda(tx, comandaID); err != nil {
			return err
		}
		cats, err := loadCategories(tx)
		if err != nil {
			return err
		}
		menu, err := menuByID(tx, lines)
		if err != nil {
			return err
		}

		resolved := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			mi, ok := menu[line.MenuItemID]
			if !ok {
				return domain.NotFound("позиция меню", line.MenuItemID)
			}
			it, err := domain.ResolveLine(line, mi, cats)
			if err != nil {
				return err
			}
			resolved = append(resolved, it)
		}

		var order models.Order
		err = tx.Where("comanda_id = ? AND status <> ?", comandaID, models.OrderClosed).
			Order("created_at DESC, id DESC").First(&order).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			order = models.Order{ComandaID: comandaID, Status: models.OrderOpen, CreatedAt: s.now()}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		for i := range resolved {
			resolved[i].OrderID = order.ID
		}
		if err := tx.Create(&resolved).Error; err != nil {
			return err
		}

		all, err := itemsOf(tx, []models.Order{order})
		if err != nil {
			return err
		}
		order.Status = domain.DeriveOrderStatus(all)
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", order.Status).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comanda{}).Where("id = ?", comandaID).Update("status", models.ComandaOccupied).Error; err != nil {
			return err
		}
		if _, err := recalcComanda(tx, comandaID); err != nil {
			return err
		}
		result = &pos.SubmitResult{Order: order, Items: resolved}
		return nil
	})
	return result, err
}

// AddItemToOrder добавляет строку в существующий заказ; в закрытый - сразу delivered
func (s *Store) AddItemToOrder(ctx context.Context, orderID int64, line models.CartLine) (models.OrderItem, error) {
	var created models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		var mi models.MenuItem
		if err := tx.First(&mi, line.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("позиция меню", line.MenuItemID)
			}
			return err
		}
		cats, err := loadCategories(tx)
		if err != nil {
			return err
		}
		if line.Quantity == 0 {
			line.Quantity = 1
		}
		created, err = domain.ResolveLine(line, mi, cats)
		if err != nil {
			return err
		}
		if order.IsClosed() {
			created.Status = models.ItemDelivered
		}
		created.OrderID = orderID
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if !order.IsClosed() {
			if err := tx.Model(&models.Comanda{}).Where("id = ?", order.ComandaID).
				Update("status", models.ComandaOccupied).Error; err != nil {
				return err
			}
		}
		return afterItemChange(tx, order, s.now())
	})
	return created, err
}

// SetItemStatus - переход статуса позиции по машине состояний
func (s *Store) SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) (models.OrderItem, error) {
	var updated models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, order, err := s.lockItem(tx, itemID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(it.Status, status); err != nil {
			return err
		}
		it.Status = status
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", itemID).Update("status", status).Error; err != nil {
			return err
		}
		updated = it
		return afterItemChange(tx, order, s.now())
	})
	return updated, err
}

// UpdateItemQuantity меняет количество; quantity <= 0 удаляет позицию (тогда nil)
func (s *Store) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.OrderItem, error) {
	var updated *models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, order, err := s.lockItem(tx, itemID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			if err := tx.Delete(&models.OrderItem{}, itemID).Error; err != nil {
				return err
			}
		} else {
			if err := domain.ValidateLine(quantity, it.Price); err != nil {
				return err
			}
			it.Quantity = quantity
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error; err != nil {
				return err
			}
			updated = &it
		}
		return afterItemChange(tx, order, s.now())
	})
	return updated, err
}

// DeleteItem удаляет позицию заказа
func (s *Store) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := s.UpdateItemQuantity(ctx, itemID, 0)
	return err
}

// ReopenOrder переоткрывает заказ; receipt id сохраняется
func (s *Store) ReopenOrder(ctx context.Context, orderID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		return reopen(tx, []models.Order{order})
	})
}

// ReopenReceipt переоткрывает все заказы чека
func (s *Store) ReopenReceipt(ctx context.Context, receiptID string) error {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Where("receipt_id = ?", receiptID).Order("id").Find(&orders).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return domain.NotFound("чек", receiptID)
		}
		return reopen(tx, orders)
	})
}

func reopen(tx *gorm.DB, orders []models.Order) error {
	comandas := make(map[int64]struct{})
	for _, o := range orders {
		if _, ok := comandas[o.ComandaID]; !ok {
			if _, err := lockComanda(tx, o.ComandaID); err != nil {
				return err
			}
			comandas[o.ComandaID] = struct{}{}
		}
	}
	for _, stale := range orders {
		// заказ мог закрыться или переоткрыться до блокировки
		o, err := loadOrder(tx, stale.ID)
		if err != nil {
			return err
		}
		if !o.IsClosed() {
			continue
		}
		items, err := itemsOf(tx, []models.Order{o})
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"status":    domain.DeriveOrderStatus(items),
			"closed_at": gorm.Expr("NULL"),
		}).Error; err != nil {
			return err
		}
	}
	for id := range comandas {
		if err := tx.Model(&models.Comanda{}).Where("id = ?", id).Update("status", models.ComandaOccupied).Error; err != nil {
			return err
		}
		if _, err := recalcComanda(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// lockOrder блокирует команду заказа и перечитывает заказ под блокировкой
func lockOrder(tx *gorm.DB, orderID int64) (models.Order, error) {
	order, err := loadOrder(tx, orderID)
	if err != nil {
		return order, err
	}
	if _, err := lockComanda(tx, order.ComandaID); err != nil {
		return order, err
	}
	return loadOrder(tx, orderID)
}

// lockItem читает позицию, ее заказ и блокирует команду
func (s *Store) lockItem(tx *gorm.DB, itemID int64) (models.OrderItem, models.Order, error) {
	it, err := loadItem(tx, itemID)
	if err != nil {
		return it, models.Order{}, err
	}
	order, err := loadOrder(tx, it.OrderID)
	if err != nil {
		return it, order, err
	}
	if _, err := lockComanda(tx, order.ComandaID); err != nil {
		return it, order, err
	}
	// позиция и заказ могли поменяться до блокировки
	if it, err = loadItem(tx, itemID); err != nil {
		return it, order, err
	}
	order, err = loadOrder(tx, it.OrderID)
	return it, order, err
}

func menuByID(tx *gorm.DB, lines []models.CartLine) (map[int64]models.MenuItem, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}
	var items []models.MenuItem
	if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]models.MenuItem, len(items))
	for _, mi := range items {
		out[mi.ID] = mi
	}
	return out, nil
}

func orderIDs(orders []models.Order) []int64 {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
