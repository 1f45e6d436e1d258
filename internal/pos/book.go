package pos

import (
	"comandapos/server/internal/models"
)

// Book - изменяемое состояние, над которым работает локальный движок:
// снапшот плюс чеки и оплаты (в локальном режиме их больше негде хранить).
type Book struct {
	models.Snapshot
	Receipts map[string]models.Receipt       `json:"receipts,omitempty"`
	Payments map[string][]models.PaymentPart `json:"receipt_payments,omitempty"`
}

// NewBook оборачивает снапшот
func NewBook(s *models.Snapshot) *Book {
	b := &Book{}
	if s != nil {
		b.Snapshot = *s.Clone()
	}
	return b
}

// Clone - глубокая копия
func (b *Book) Clone() *Book {
	out := &Book{Snapshot: *b.Snapshot.Clone()}
	if b.Receipts != nil {
		out.Receipts = make(map[string]models.Receipt, len(b.Receipts))
		for k, v := range b.Receipts {
			out.Receipts[k] = v
		}
	}
	if b.Payments != nil {
		out.Payments = make(map[string][]models.PaymentPart, len(b.Payments))
		for k, v := range b.Payments {
			out.Payments[k] = append([]models.PaymentPart(nil), v...)
		}
	}
	return out
}

func (b *Book) comanda(id int64) *models.Comanda {
	for i := range b.Comandas {
		if b.Comandas[i].ID == id {
			return &b.Comandas[i]
		}
	}
	return nil
}

func (b *Book) order(id int64) *models.Order {
	for i := range b.Orders {
		if b.Orders[i].ID == id {
			return &b.Orders[i]
		}
	}
	return nil
}

func (b *Book) item(id int64) *models.OrderItem {
	for i := range b.OrderItems {
		if b.OrderItems[i].ID == id {
			return &b.OrderItems[i]
		}
	}
	return nil
}

func (b *Book) menuItem(id int64) *models.MenuItem {
	for i := range b.MenuItems {
		if b.MenuItems[i].ID == id {
			return &b.MenuItems[i]
		}
	}
	return nil
}

func (b *Book) itemsOf(orderID int64) []models.OrderItem {
	var out []models.OrderItem
	for _, it := range b.OrderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// Локальные id: max+1 по таблице. При синхронизации с сервером их заменит снапшот.
func (b *Book) nextComandaID() int64 {
	var max int64
	for _, c := range b.Comandas {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

func (b *Book) nextOrderID() int64 {
	var max int64
	for _, o := range b.Orders {
		if o.ID > max {
			max = o.ID
		}
	}
	return max + 1
}

func (b *Book) nextItemID() int64 {
	var max int64
	for _, it := range b.OrderItems {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

func (b *Book) nextMenuItemID() int64 {
	var max int64
	for _, m := range b.MenuItems {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}
