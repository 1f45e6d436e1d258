package client

import (
	"context"
	"errors"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
)

// View - то, что видит оператор (с неподтвержденными правками)
func (c *Client) View() *pos.Book {
	return c.state.View()
}

// Cart - корзина команды
func (c *Client) Cart(comandaID int64) pos.Cart {
	return c.state.Cart(comandaID)
}

// ActiveComanda - выбранная команда
func (c *Client) ActiveComanda() int64 {
	return c.state.ActiveComanda()
}

// AddToCart кладет позицию меню в корзину команды. Корзина живет только на клиенте.
func (c *Client) AddToCart(comandaID, menuItemID int64, opts pos.CartOptions) (pos.Cart, error) {
	view := c.state.View()
	var item *models.MenuItem
	for i := range view.MenuItems {
		if view.MenuItems[i].ID == menuItemID {
			item = &view.MenuItems[i]
			break
		}
	}
	if item == nil {
		return nil, domain.NotFound("позиция меню", menuItemID)
	}
	if !hasComanda(view, comandaID) {
		return nil, domain.NotFound("команда", comandaID)
	}
	cart, err := pos.AddToCart(c.state.Cart(comandaID), *item, view.Categories, opts)
	if err != nil {
		return nil, err
	}
	c.setCart(comandaID, cart)
	return cart, nil
}

// IncrementCartLine +1 к строке корзины
func (c *Client) IncrementCartLine(comandaID int64, tempID string) pos.Cart {
	cart := c.state.Cart(comandaID).Increment(tempID)
	c.setCart(comandaID, cart)
	return cart
}

// DecrementCartLine -1; строка с нулем удаляется
func (c *Client) DecrementCartLine(comandaID int64, tempID string) pos.Cart {
	cart := c.state.Cart(comandaID).Decrement(tempID)
	c.setCart(comandaID, cart)
	return cart
}

// RemoveCartLine удаляет строку корзины
func (c *Client) RemoveCartLine(comandaID int64, tempID string) pos.Cart {
	cart := c.state.Cart(comandaID).Remove(tempID)
	c.setCart(comandaID, cart)
	return cart
}

// ClearCart очищает корзину
func (c *Client) ClearCart(comandaID int64) {
	c.setCart(comandaID, nil)
}

func (c *Client) setCart(comandaID int64, cart pos.Cart) {
	c.state.SetCart(comandaID, cart)
	if c.mode == ModeLocal {
		c.afterCommit()
	}
}

// SelectComanda открывает команду и делает ее активной
func (c *Client) SelectComanda(ctx context.Context, comandaID int64) (models.Comanda, *Notice, error) {
	var local, remote models.Comanda
	notice, err := c.mutate(ctx, OpSelectComanda,
		func(b *pos.Book) (err error) {
			local, err = c.engine.SelectComanda(b, comandaID)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.SelectComanda(ctx, comandaID)
			return err
		})
	if err != nil {
		return models.Comanda{}, nil, err
	}
	c.state.SetActiveComanda(comandaID)
	return pick(c, notice, remote, local), notice, nil
}

// CancelOpening отменяет открытие пустой команды; false - команда не тронута
func (c *Client) CancelOpening(ctx context.Context, comandaID int64) (bool, *Notice, error) {
	var local, remote bool
	notice, err := c.mutate(ctx, OpCancelOpening,
		func(b *pos.Book) (err error) {
			local, err = c.engine.CancelOpening(b, comandaID)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.CancelOpening(ctx, comandaID)
			return err
		})
	if err != nil {
		return false, nil, err
	}
	cancelled := pick(c, notice, remote, local)
	if cancelled {
		c.setCart(comandaID, nil)
		if c.state.ActiveComanda() == comandaID {
			c.state.SetActiveComanda(0)
		}
	}
	return cancelled, notice, nil
}

// SubmitOrder отправляет корзину команды на кухню/в заказ. Корзина очищается при успехе.
func (c *Client) SubmitOrder(ctx context.Context, comandaID int64) (*pos.SubmitResult, *Notice, error) {
	lines := c.state.Cart(comandaID)
	if len(lines) == 0 {
		return nil, nil, domain.Validationf("корзина пуста")
	}
	var local, remote *pos.SubmitResult
	notice, err := c.mutate(ctx, OpSubmitOrder,
		func(b *pos.Book) (err error) {
			local, err = c.engine.SubmitOrder(b, comandaID, lines)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.SubmitOrder(ctx, comandaID, lines)
			return err
		})
	if err != nil {
		return nil, nil, err
	}
	c.setCart(comandaID, nil)
	return pick(c, notice, remote, local), notice, nil
}

// AddItemToOrder добавляет позицию прямо в заказ (в т.ч. закрытый - чек пересчитается)
func (c *Client) AddItemToOrder(ctx context.Context, orderID int64, line models.CartLine) (models.OrderItem, *Notice, error) {
	var local, remote models.OrderItem
	notice, err := c.mutate(ctx, OpAddItemToOrder,
		func(b *pos.Book) (err error) {
			local, err = c.engine.AddItemToOrder(b, orderID, line)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.AddItemToOrder(ctx, orderID, line)
			return err
		})
	if err != nil {
		return models.OrderItem{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// SetItemStatus - переход статуса позиции (кухня)
func (c *Client) SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) (models.OrderItem, *Notice, error) {
	if !status.Valid() {
		return models.OrderItem{}, nil, domain.Validationf("неизвестный статус %q", status)
	}
	var local, remote models.OrderItem
	notice, err := c.mutate(ctx, OpSetItemStatus,
		func(b *pos.Book) (err error) {
			local, err = c.engine.SetItemStatus(b, itemID, status)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.SetItemStatus(ctx, itemID, status)
			return err
		})
	if err != nil {
		return models.OrderItem{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// UpdateItemQuantity меняет количество; <= 0 удаляет позицию (возвращается nil)
func (c *Client) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.OrderItem, *Notice, error) {
	var local, remote *models.OrderItem
	notice, err := c.mutate(ctx, OpUpdateItemQuantity,
		func(b *pos.Book) (err error) {
			local, err = c.engine.UpdateItemQuantity(b, itemID, quantity)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.UpdateItemQuantity(ctx, itemID, quantity)
			return err
		})
	if err != nil {
		return nil, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// DeleteItem удаляет позицию заказа
func (c *Client) DeleteItem(ctx context.Context, itemID int64) (*Notice, error) {
	return c.mutate(ctx, OpDeleteItem,
		func(b *pos.Book) error { return c.engine.DeleteItem(b, itemID) },
		func(ctx context.Context) error { return c.backend.DeleteItem(ctx, itemID) })
}

// ReopenOrder переоткрывает закрытый заказ
func (c *Client) ReopenOrder(ctx context.Context, orderID int64) (*Notice, error) {
	return c.mutate(ctx, OpReopen,
		func(b *pos.Book) error { return c.engine.ReopenOrder(b, orderID) },
		func(ctx context.Context) error { return c.backend.ReopenOrder(ctx, orderID) })
}

// ReopenReceipt переоткрывает все заказы чека; id чека сохранится при следующем закрытии
func (c *Client) ReopenReceipt(ctx context.Context, receiptID string) (*Notice, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return nil, err
	}
	return c.mutate(ctx, OpReopen,
		func(b *pos.Book) error { return c.engine.ReopenReceipt(b, receiptID) },
		func(ctx context.Context) error { return c.backend.ReopenReceipt(ctx, receiptID) })
}

// PaymentDialog фиксирует итог команды на момент открытия окна оплаты
type PaymentDialog struct {
	ComandaID  int64
	TotalCents int64
	OpenedAt   time.Time
}

// OpenPaymentDialog запоминает итог, с которым будет сверяться разбивка
func (c *Client) OpenPaymentDialog(comandaID int64) (PaymentDialog, error) {
	view := c.state.View()
	for _, cm := range view.Comandas {
		if cm.ID == comandaID {
			total := domain.ComputeTotal(comandaID, view.Orders, view.OrderItems)
			return PaymentDialog{ComandaID: comandaID, TotalCents: total, OpenedAt: time.Now()}, nil
		}
	}
	return PaymentDialog{}, domain.NotFound("команда", comandaID)
}

// FinalizeComanda закрывает команду. Разбивка проверяется против итога диалога до
// любой мутации. Без сервера закрытие по умолчанию запрещено (PolicyBlockedError).
func (c *Client) FinalizeComanda(ctx context.Context, dlg PaymentDialog, pay domain.Payment) (*pos.FinalizeResult, *Notice, error) {
	if pay.IsSplit() {
		if err := domain.ValidateSplit(pay.Parts, dlg.TotalCents); err != nil {
			return nil, nil, err
		}
	}
	comandaID := dlg.ComandaID
	var local, remote *pos.FinalizeResult
	notice, err := c.mutate(ctx, OpFinalize,
		func(b *pos.Book) (err error) {
			local, err = c.engine.Finalize(b, comandaID, pay)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.Finalize(ctx, comandaID, pay)
			return err
		})
	if err != nil {
		return nil, nil, err
	}
	if c.state.ActiveComanda() == comandaID {
		c.state.SetActiveComanda(0)
	}
	return pick(c, notice, remote, local), notice, nil
}

// PaymentsResult - заголовок чека и новые строки оплаты
type PaymentsResult struct {
	Receipt  models.Receipt
	Payments []models.ReceiptPayment
}

// UpsertPayments полностью заменяет оплаты чека. Повтор с тем же набором ничего не меняет.
func (c *Client) UpsertPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (*PaymentsResult, *Notice, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidatePayments(parts); err != nil {
		return nil, nil, err
	}
	var local, remote PaymentsResult
	notice, err := c.mutate(ctx, OpUpsertPayments,
		func(b *pos.Book) (err error) {
			local.Receipt, local.Payments, err = c.engine.UpsertPayments(b, receiptID, parts)
			return err
		},
		func(ctx context.Context) (err error) {
			remote.Receipt, remote.Payments, err = c.backend.UpsertPayments(ctx, receiptID, parts)
			return err
		})
	if err != nil {
		return nil, nil, err
	}
	res := pick(c, notice, remote, local)
	return &res, notice, nil
}

// Receipt возвращает чек: с сервера, а если он недоступен или режим локальный - из локальных данных
func (c *Client) Receipt(ctx context.Context, receiptID string) (models.Receipt, error) {
	if c.mode == ModeServer {
		r, err := c.backend.GetReceipt(ctx, receiptID)
		var unavailable *domain.BackendUnavailableError
		if err == nil || !errors.As(err, &unavailable) {
			return r, err
		}
	}
	return c.engine.Receipt(c.state.View(), receiptID)
}

// ReceiptPayments - строки оплаты чека; при недоступном сервере - локальные
func (c *Client) ReceiptPayments(ctx context.Context, receiptID string) ([]models.ReceiptPayment, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return nil, err
	}
	if c.mode == ModeServer {
		rows, err := c.backend.GetReceiptPayments(ctx, receiptID)
		var unavailable *domain.BackendUnavailableError
		if err == nil || !errors.As(err, &unavailable) {
			return rows, err
		}
	}
	return c.engine.ReceiptPayments(c.state.View(), receiptID), nil
}

// CreateComanda - новая команда с физическим номером
func (c *Client) CreateComanda(ctx context.Context, number int) (models.Comanda, *Notice, error) {
	var local, remote models.Comanda
	notice, err := c.mutate(ctx, OpCreateComanda,
		func(b *pos.Book) (err error) {
			local, err = c.engine.AddComanda(b, number)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.CreateComanda(ctx, number)
			return err
		})
	if err != nil {
		return models.Comanda{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// DeleteComanda удаляет свободную команду без заказов
func (c *Client) DeleteComanda(ctx context.Context, comandaID int64) (*Notice, error) {
	return c.mutate(ctx, OpDeleteComanda,
		func(b *pos.Book) error { return c.engine.DeleteComanda(b, comandaID) },
		func(ctx context.Context) error { return c.backend.DeleteComanda(ctx, comandaID) })
}

// CreateMenuItem - новая позиция меню
func (c *Client) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, *Notice, error) {
	var local, remote models.MenuItem
	notice, err := c.mutate(ctx, OpCatalog,
		func(b *pos.Book) (err error) {
			local, err = c.engine.CreateMenuItem(b, item)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.CreateMenuItem(ctx, item)
			return err
		})
	if err != nil {
		return models.MenuItem{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// UpdateMenuItem - частичное обновление позиции меню
func (c *Client) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, *Notice, error) {
	var local, remote models.MenuItem
	notice, err := c.mutate(ctx, OpCatalog,
		func(b *pos.Book) (err error) {
			local, err = c.engine.UpdateMenuItem(b, id, patch)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.UpdateMenuItem(ctx, id, patch)
			return err
		})
	if err != nil {
		return models.MenuItem{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// DeleteMenuItem удаляет позицию меню
func (c *Client) DeleteMenuItem(ctx context.Context, id int64) (*Notice, error) {
	return c.mutate(ctx, OpCatalog,
		func(b *pos.Book) error { return c.engine.DeleteMenuItem(b, id) },
		func(ctx context.Context) error { return c.backend.DeleteMenuItem(ctx, id) })
}

// UpsertCategory создает или обновляет категорию
func (c *Client) UpsertCategory(ctx context.Context, cat models.Category) (models.Category, *Notice, error) {
	var local, remote models.Category
	notice, err := c.mutate(ctx, OpCatalog,
		func(b *pos.Book) (err error) {
			local, err = c.engine.UpsertCategory(b, cat)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.UpsertCategory(ctx, cat)
			return err
		})
	if err != nil {
		return models.Category{}, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// DeleteCategory удаляет категорию; ее позиции переезжают в резервную. Возвращает число перенесенных.
func (c *Client) DeleteCategory(ctx context.Context, id string) (int, *Notice, error) {
	var local, remote int
	notice, err := c.mutate(ctx, OpCatalog,
		func(b *pos.Book) (err error) {
			local, err = c.engine.DeleteCategory(b, id)
			return err
		},
		func(ctx context.Context) (err error) {
			remote, err = c.backend.DeleteCategory(ctx, id)
			return err
		})
	if err != nil {
		return 0, nil, err
	}
	return pick(c, notice, remote, local), notice, nil
}

// pick - результат сервера, если запрос до него дошел, иначе локальный
func pick[T any](c *Client, notice *Notice, remote, local T) T {
	if notice != nil || c.mode == ModeLocal {
		return local
	}
	return remote
}

func hasComanda(b *pos.Book, id int64) bool {
	for _, cm := range b.Comandas {
		if cm.ID == id {
			return true
		}
	}
	return false
}
