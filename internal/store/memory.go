package store

import (
	"context"
	"sort"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/state"
)

// MemoryStore - хранилище без БД поверх движка. Сервер поднимается на нем,
// если PostgreSQL недоступен (ограниченная функциональность, данные не переживут рестарт).
type MemoryStore struct {
	state  *state.Store
	engine *pos.Engine
}

// NewMemoryStore создает хранилище; nil book - стартовые данные
func NewMemoryStore(book *pos.Book, engine *pos.Engine) *MemoryStore {
	if book == nil {
		book = pos.SeedBook()
	}
	if engine == nil {
		engine = pos.NewEngine()
	}
	return &MemoryStore{state: state.NewStore(book), engine: engine}
}

// Ping всегда успешен
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Snapshot возвращает копию состояния
func (m *MemoryStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	b := m.state.Confirmed()
	snap := b.Snapshot
	snap.ServerTime = m.engine.Now()
	return &snap, nil
}

func (m *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return m.state.Confirmed().MenuItems, nil
}

func (m *MemoryStore) CreateMenuItem(ctx context.Context, item models.MenuItem) (out models.MenuItem, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.CreateMenuItem(b, item)
		return err
	})
	return out, err
}

func (m *MemoryStore) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (out models.MenuItem, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.UpdateMenuItem(b, id, patch)
		return err
	})
	return out, err
}

func (m *MemoryStore) DeleteMenuItem(ctx context.Context, id int64) error {
	return m.state.Commit(func(b *pos.Book) error { return m.engine.DeleteMenuItem(b, id) })
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	return m.state.Confirmed().Categories, nil
}

func (m *MemoryStore) UpsertCategory(ctx context.Context, cat models.Category) (out models.Category, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.UpsertCategory(b, cat)
		return err
	})
	return out, err
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, id string) (moved int, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		moved, err = m.engine.DeleteCategory(b, id)
		return err
	})
	return moved, err
}

func (m *MemoryStore) ListComandas(ctx context.Context) ([]models.Comanda, error) {
	out := m.state.Confirmed().Comandas
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemoryStore) CreateComanda(ctx context.Context, number int) (out models.Comanda, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.AddComanda(b, number)
		return err
	})
	return out, err
}

func (m *MemoryStore) DeleteComanda(ctx context.Context, id int64) error {
	return m.state.Commit(func(b *pos.Book) error { return m.engine.DeleteComanda(b, id) })
}

func (m *MemoryStore) SelectComanda(ctx context.Context, id int64) (out models.Comanda, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.SelectComanda(b, id)
		return err
	})
	return out, err
}

func (m *MemoryStore) CancelOpening(ctx context.Context, id int64) (ok bool, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		ok, err = m.engine.CancelOpening(b, id)
		return err
	})
	return ok, err
}

func (m *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return m.state.Confirmed().Orders, nil
}

// OrderHistory - закрытые заказы, свежие сначала
func (m *MemoryStore) OrderHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	b := m.state.Confirmed()
	var closed []models.Order
	for _, o := range b.Orders {
		if o.IsClosed() {
			closed = append(closed, o)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		ci, cj := closed[i].ClosedAt, closed[j].ClosedAt
		switch {
		case ci == nil:
			return false
		case cj == nil:
			return true
		case !ci.Equal(*cj):
			return ci.After(*cj)
		}
		return closed[i].ID > closed[j].ID
	})
	if len(closed) > limit {
		closed = closed[:limit]
	}
	out := make([]HistoryEntry, 0, len(closed))
	for _, o := range closed {
		e := HistoryEntry{Order: o, Items: domain.ItemsOfOrders([]models.Order{o}, b.OrderItems)}
		if o.ReceiptID != nil {
			if r, err := m.engine.Receipt(b, *o.ReceiptID); err == nil {
				e.Receipt = &r
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) SubmitOrder(ctx context.Context, comandaID int64, lines []models.CartLine) (res *pos.SubmitResult, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		res, err = m.engine.SubmitOrder(b, comandaID, lines)
		return err
	})
	return res, err
}

func (m *MemoryStore) AddItemToOrder(ctx context.Context, orderID int64, line models.CartLine) (out models.OrderItem, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.AddItemToOrder(b, orderID, line)
		return err
	})
	return out, err
}

func (m *MemoryStore) SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) (out models.OrderItem, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.SetItemStatus(b, itemID, status)
		return err
	})
	return out, err
}

func (m *MemoryStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (out *models.OrderItem, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		out, err = m.engine.UpdateItemQuantity(b, itemID, quantity)
		return err
	})
	return out, err
}

func (m *MemoryStore) DeleteItem(ctx context.Context, itemID int64) error {
	return m.state.Commit(func(b *pos.Book) error { return m.engine.DeleteItem(b, itemID) })
}

func (m *MemoryStore) ReopenOrder(ctx context.Context, orderID int64) error {
	return m.state.Commit(func(b *pos.Book) error { return m.engine.ReopenOrder(b, orderID) })
}

func (m *MemoryStore) ReopenReceipt(ctx context.Context, receiptID string) error {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return err
	}
	return m.state.Commit(func(b *pos.Book) error { return m.engine.ReopenReceipt(b, receiptID) })
}

func (m *MemoryStore) Finalize(ctx context.Context, comandaID int64, pay domain.Payment) (res *pos.FinalizeResult, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		res, err = m.engine.Finalize(b, comandaID, pay)
		return err
	})
	return res, err
}

func (m *MemoryStore) GetReceipt(ctx context.Context, receiptID string) (models.Receipt, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return models.Receipt{}, err
	}
	return m.engine.Receipt(m.state.Confirmed(), receiptID)
}

func (m *MemoryStore) GetReceiptPayments(ctx context.Context, receiptID string) ([]models.ReceiptPayment, error) {
	if err := domain.ValidateReceiptID(receiptID); err != nil {
		return nil, err
	}
	return m.engine.ReceiptPayments(m.state.Confirmed(), receiptID), nil
}

func (m *MemoryStore) UpsertReceiptPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (r models.Receipt, rows []models.ReceiptPayment, err error) {
	err = m.state.Commit(func(b *pos.Book) error {
		r, rows, err = m.engine.UpsertPayments(b, receiptID, parts)
		return err
	})
	return r, rows, err
}
