package models

import "time"

// ComandaStatus - состояние физической команды
type ComandaStatus string

const (
	ComandaAvailable ComandaStatus = "available"
	ComandaOccupied  ComandaStatus = "occupied"
)

// OrderStatus - статус заказа. Для незакрытых заказов выводится из статусов позиций.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderClosed    OrderStatus = "closed"
)

// ItemStatus - статус позиции заказа
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemDelivered ItemStatus = "delivered"
	ItemCanceled  ItemStatus = "canceled"
)

// Valid проверяет, что статус известен
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemPreparing, ItemReady, ItemDelivered, ItemCanceled:
		return true
	}
	return false
}

// Comanda - счет стола, идентифицируется физическим номером
type Comanda struct {
	ID     int64         `gorm:"primaryKey" json:"id"`
	Number int           `gorm:"not null;uniqueIndex" json:"number"`
	Status ComandaStatus `gorm:"type:text;not null;default:'available'" json:"status"`
	Total  int64         `gorm:"not null;default:0" json:"total"` // в центах
}

// TableName возвращает имя таблицы
func (Comanda) TableName() string {
	return "comandas"
}

// Order - заказ внутри команды
type Order struct {
	ID            int64       `gorm:"primaryKey" json:"id"`
	ComandaID     int64       `gorm:"not null;index" json:"comanda_id"`
	Status        OrderStatus `gorm:"type:text;not null;default:'open'" json:"status"`
	CreatedAt     time.Time   `gorm:"type:timestamptz;not null" json:"created_at"`
	ClosedAt      *time.Time  `gorm:"type:timestamptz" json:"closed_at,omitempty"`
	ReceiptID     *string     `gorm:"type:text;index" json:"receipt_id,omitempty"`
	PaymentMethod *string     `gorm:"type:text" json:"payment_method,omitempty"`
}

// TableName возвращает имя таблицы
func (Order) TableName() string {
	return "orders"
}

// IsClosed сообщает, закрыт ли заказ
func (o Order) IsClosed() bool {
	return o.Status == OrderClosed
}

// OrderItem - позиция заказа. Name/Price/Category копируются из меню в момент заказа,
// последующие правки меню на историю не влияют.
type OrderItem struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	OrderID    int64      `gorm:"not null;index" json:"order_id"`
	MenuItemID int64      `gorm:"not null" json:"menu_item_id"`
	Name       string     `gorm:"type:text;not null" json:"name"`
	Price      int64      `gorm:"not null" json:"price"`
	Quantity   int        `gorm:"not null" json:"quantity"`
	Category   string     `gorm:"type:text;not null" json:"category"`
	Status     ItemStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
}

// TableName возвращает имя таблицы
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal - стоимость строки в центах
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
