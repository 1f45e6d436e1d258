package models

import "time"

// Receipt - заголовок чека, источник истины для истории и перепечатки
type Receipt struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	ReceiptID     string    `gorm:"type:text;not null;uniqueIndex" json:"receipt_id"`
	ComandaID     *int64    `json:"comanda_id,omitempty"`
	ComandaNumber *int      `json:"comanda_number,omitempty"`
	ClosedAt      time.Time `gorm:"type:timestamptz;not null" json:"closed_at"`
	TotalCents    int64     `gorm:"not null;default:0" json:"total_cents"`
	PaymentMethod *string   `gorm:"type:text" json:"payment_method"` // nil, если оплата разделена
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает имя таблицы
func (Receipt) TableName() string {
	return "receipts"
}

// ReceiptPayment - одна часть оплаты чека
type ReceiptPayment struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	ReceiptID   string    `gorm:"type:text;not null;index" json:"receipt_id"`
	Method      string    `gorm:"type:text;not null" json:"method"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

// TableName возвращает имя таблицы
func (ReceiptPayment) TableName() string {
	return "receipt_payments"
}

// PaymentPart - часть разделенной оплаты, как ее передает клиент
type PaymentPart struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}
