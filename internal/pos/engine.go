package pos

import (
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
)

// Engine - локальная бизнес-логика команд. Сам состояния не хранит: все операции
// синхронно мутируют переданный Book. Используется в локальном режиме и как
// fallback в серверном.
type Engine struct {
	now func() time.Time
}

// Option настраивает Engine
type Option func(*Engine)

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine создает движок
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now - текущее время движка
func (e *Engine) Now() time.Time {
	return e.now()
}

// SubmitResult - заказ и созданные позиции
type SubmitResult struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// SelectComanda открывает команду: свободная становится занятой, сумма не меняется
func (e *Engine) SelectComanda(b *Book, id int64) (models.Comanda, error) {
	c := b.comanda(id)
	if c == nil {
		return models.Comanda{}, domain.NotFound("команда", id)
	}
	if c.Status == models.ComandaAvailable {
		c.Status = models.ComandaOccupied
	}
	return *c, nil
}

// CancelOpening отменяет открытие пустой команды. Возвращает false без мутаций,
// если команда не занята или сумма не нулевая.
func (e *Engine) CancelOpening(b *Book, id int64) (bool, error) {
	c := b.comanda(id)
	if c == nil {
		return false, domain.NotFound("команда", id)
	}
	if c.Status != models.ComandaOccupied || domain.ComputeTotal(id, b.Orders, b.OrderItems) != 0 {
		return false, nil
	}

	now := e.now()
	for i := range b.Orders {
		o := &b.Orders[i]
		if o.ComandaID != id || o.IsClosed() {
			continue
		}
		for j := range b.OrderItems {
			if b.OrderItems[j].OrderID == o.ID {
				b.OrderItems[j].Status = models.ItemCanceled
			}
		}
		o.Status = models.OrderClosed
		o.ClosedAt = &now
	}
	c.Status = models.ComandaAvailable
	c.Total = 0
	return true, nil
}

// SubmitOrder добавляет корзину в активный заказ команды (последний открытый или новый)
func (e *Engine) SubmitOrder(b *Book, comandaID int64, lines []models.CartLine) (*SubmitResult, error) {
	c := b.comanda(comandaID)
	if c == nil {
		return nil, domain.NotFound("команда", comandaID)
	}
	if len(lines) == 0 {
		return nil, domain.Validationf("корзина пуста")
	}
	if len(lines) > domain.MaxOrderItems {
		return nil, domain.Validationf("слишком много позиций: %d (максимум %d)", len(lines), domain.MaxOrderItems)
	}

	// Сначала валидируем все строки, чтобы при ошибке ничего не поменять
	resolved := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		mi := b.menuItem(line.MenuItemID)
		if mi == nil {
			return nil, domain.NotFound("позиция меню", line.MenuItemID)
		}
		it, err := domain.ResolveLine(line, *mi, b.Categories)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, it)
	}

	order := e.activeOrder(b, comandaID)
	if order == nil {
		b.Orders = append(b.Orders, models.Order{
			ID:        b.nextOrderID(),
			ComandaID: comandaID,
			Status:    models.OrderOpen,
			CreatedAt: e.now(),
		})
		order = &b.Orders[len(b.Orders)-1]
	}

	created := make([]models.OrderItem, 0, len(resolved))
	for _, it := range resolved {
		it.ID = b.nextItemID()
		it.OrderID = order.ID
		b.OrderItems = append(b.OrderItems, it)
		created = append(created, it)
	}

	order.Status = domain.DeriveOrderStatus(b.itemsOf(order.ID))
	result := &SubmitResult{Order: *order, Items: created}

	c = b.comanda(comandaID)
	c.Status = models.ComandaOccupied
	c.Total = domain.ComputeTotal(comandaID, b.Orders, b.OrderItems)
	return result, nil
}

// activeOrder - последний незакрытый заказ команды
func (e *Engine) activeOrder(b *Book, comandaID int64) *models.Order {
	var active *models.Order
	for i := range b.Orders {
		o := &b.Orders[i]
		if o.ComandaID != comandaID || o.IsClosed() {
			continue
		}
		if active == nil || o.CreatedAt.After(active.CreatedAt) || (o.CreatedAt.Equal(active.CreatedAt) && o.ID > active.ID) {
			active = o
		}
	}
	return active
}

// SetItemStatus - переход статуса позиции по машине состояний
func (e *Engine) SetItemStatus(b *Book, itemID int64, status models.ItemStatus) (models.OrderItem, error) {
	it := b.item(itemID)
	if it == nil {
		return models.OrderItem{}, domain.NotFound("позиция заказа", itemID)
	}
	order := b.order(it.OrderID)
	if order == nil {
		return models.OrderItem{}, domain.NotFound("заказ", it.OrderID)
	}
	if err := domain.CheckTransition(it.Status, status); err != nil {
		return models.OrderItem{}, err
	}
	it.Status = status
	updated := *it
	e.afterItemChange(b, order)
	return updated, nil
}

// UpdateItemQuantity меняет количество; quantity <= 0 удаляет позицию.
// Возвращает nil, если позиция удалена.
func (e *Engine) UpdateItemQuantity(b *Book, itemID int64, quantity int) (*models.OrderItem, error) {
	it := b.item(itemID)
	if it == nil {
		return nil, domain.NotFound("позиция заказа", itemID)
	}
	order := b.order(it.OrderID)
	if order == nil {
		return nil, domain.NotFound("заказ", it.OrderID)
	}

	var updated *models.OrderItem
	if quantity <= 0 {
		e.removeItem(b, itemID)
	} else {
		if err := domain.ValidateLine(quantity, it.Price); err != nil {
			return nil, err
		}
		it.Quantity = quantity
		cp := *it
		updated = &cp
	}
	e.afterItemChange(b, order)
	return updated, nil
}

// DeleteItem удаляет позицию заказа
func (e *Engine) DeleteItem(b *Book, itemID int64) error {
	_, err := e.UpdateItemQuantity(b, itemID, 0)
	return err
}

func (e *Engine) removeItem(b *Book, itemID int64) {
	out := b.OrderItems[:0]
	for _, it := range b.OrderItems {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	b.OrderItems = out
}

// AddItemToOrder добавляет строку в существующий заказ. В закрытый заказ позиция
// попадает сразу delivered (корректировка истории) и чек пересчитывается.
func (e *Engine) AddItemToOrder(b *Book, orderID int64, line models.CartLine) (models.OrderItem, error) {
	order := b.order(orderID)
	if order == nil {
		return models.OrderItem{}, domain.NotFound("заказ", orderID)
	}
	mi := b.menuItem(line.MenuItemID)
	if mi == nil {
		return models.OrderItem{}, domain.NotFound("позиция меню", line.MenuItemID)
	}
	if line.Quantity == 0 {
		line.Quantity = 1
	}
	it, err := domain.ResolveLine(line, *mi, b.Categories)
	if err != nil {
		return models.OrderItem{}, err
	}
	if order.IsClosed() {
		it.Status = models.ItemDelivered
	}
	it.ID = b.nextItemID()
	it.OrderID = orderID
	b.OrderItems = append(b.OrderItems, it)

	if !order.IsClosed() {
		if c := b.comanda(order.ComandaID); c != nil {
			c.Status = models.ComandaOccupied
		}
	}
	e.afterItemChange(b, order)
	return it, nil
}

// afterItemChange - после любой правки позиций: статус заказа, сумма команды, чек
func (e *Engine) afterItemChange(b *Book, order *models.Order) {
	if !order.IsClosed() {
		order.Status = domain.DeriveOrderStatus(b.itemsOf(order.ID))
	} else if order.ReceiptID != nil {
		e.refreshReceipt(b, *order.ReceiptID, nil)
	}
	if c := b.comanda(order.ComandaID); c != nil {
		c.Total = domain.ComputeTotal(c.ID, b.Orders, b.OrderItems)
	}
}

// ReopenOrder переоткрывает закрытый заказ. receipt id сохраняется, чтобы
// повторное закрытие попало в тот же чек.
func (e *Engine) ReopenOrder(b *Book, orderID int64) error {
	order := b.order(orderID)
	if order == nil {
		return domain.NotFound("заказ", orderID)
	}
	e.reopen(b, order)
	return nil
}

// ReopenReceipt переоткрывает все заказы чека
func (e *Engine) ReopenReceipt(b *Book, receiptID string) error {
	found := false
	for i := range b.Orders {
		o := &b.Orders[i]
		if o.ReceiptID != nil && *o.ReceiptID == receiptID {
			found = true
			e.reopen(b, o)
		}
	}
	if !found {
		return domain.NotFound("чек", receiptID)
	}
	return nil
}

func (e *Engine) reopen(b *Book, order *models.Order) {
	if order.IsClosed() {
		order.Status = domain.DeriveOrderStatus(b.itemsOf(order.ID))
		order.ClosedAt = nil
	}
	if c := b.comanda(order.ComandaID); c != nil {
		c.Status = models.ComandaOccupied
		c.Total = domain.ComputeTotal(c.ID, b.Orders, b.OrderItems)
	}
}

// AddComanda создает команду с уникальным номером
func (e *Engine) AddComanda(b *Book, number int) (models.Comanda, error) {
	if number <= 0 {
		return models.Comanda{}, domain.Validationf("номер команды должен быть больше нуля")
	}
	for _, c := range b.Comandas {
		if c.Number == number {
			return models.Comanda{}, &domain.ConflictError{Code: domain.CodeComandaNumberExists, Message: "команда с таким номером уже существует"}
		}
	}
	c := models.Comanda{ID: b.nextComandaID(), Number: number, Status: models.ComandaAvailable}
	b.Comandas = append(b.Comandas, c)
	return c, nil
}

// DeleteComanda удаляет свободную команду без заказов
func (e *Engine) DeleteComanda(b *Book, id int64) error {
	c := b.comanda(id)
	if c == nil {
		return domain.NotFound("команда", id)
	}
	if err := CheckDeletable(*c, b.Orders); err != nil {
		return err
	}
	out := b.Comandas[:0]
	for _, cc := range b.Comandas {
		if cc.ID != id {
			out = append(out, cc)
		}
	}
	b.Comandas = out
	return nil
}

// CheckDeletable - команду можно удалить, только если она свободна, с нулевой суммой
// и без единого заказа
func CheckDeletable(c models.Comanda, orders []models.Order) error {
	if c.Status != models.ComandaAvailable || c.Total != 0 {
		return &domain.ConflictError{Code: domain.CodeComandaNotDeletable, Message: "команда занята или имеет сумму"}
	}
	for _, o := range orders {
		if o.ComandaID == c.ID {
			return &domain.ConflictError{Code: domain.CodeComandaHasOrders, Message: "у команды есть заказы"}
		}
	}
	return nil
}
