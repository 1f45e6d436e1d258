package models

import "time"

// Snapshot - полное состояние системы одним ответом (GET /api/state)
type Snapshot struct {
	MenuItems  []MenuItem  `json:"menu_items"`
	Categories []Category  `json:"categories"`
	Comandas   []Comanda   `json:"comandas"`
	Orders     []Order     `json:"orders"`
	OrderItems []OrderItem `json:"order_items"`
	ServerTime time.Time   `json:"server_time"`
}

// Clone делает глубокую копию. Указатели в Order тоже копируются,
// чтобы оверлей не мог испортить подтвержденную базу.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		MenuItems:  append([]MenuItem(nil), s.MenuItems...),
		Categories: append([]Category(nil), s.Categories...),
		Comandas:   append([]Comanda(nil), s.Comandas...),
		OrderItems: append([]OrderItem(nil), s.OrderItems...),
		ServerTime: s.ServerTime,
	}
	out.Orders = make([]Order, len(s.Orders))
	for i, o := range s.Orders {
		out.Orders[i] = o.clone()
	}
	return out
}

func (o Order) clone() Order {
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		o.ClosedAt = &t
	}
	if o.ReceiptID != nil {
		r := *o.ReceiptID
		o.ReceiptID = &r
	}
	if o.PaymentMethod != nil {
		p := *o.PaymentMethod
		o.PaymentMethod = &p
	}
	return o
}

// StringPtr - хелпер для nullable колонок
func StringPtr(s string) *string {
	return &s
}

// Deref возвращает значение или пустую строку
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
