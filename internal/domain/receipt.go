package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"comandapos/server/internal/models"
)

// NewReceiptID генерирует id чека вида C12-MH3K0Z1A (команда + время в base36)
func NewReceiptID(comandaID int64, now time.Time) string {
	return fmt.Sprintf("C%d-%s", comandaID, strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
}

// Payment - способ оплаты при закрытии: один метод или разбивка на части
type Payment struct {
	Method string               `json:"payment_method,omitempty"`
	Parts  []models.PaymentPart `json:"payments,omitempty"`
}

// IsSplit - оплата разбита на части
func (p Payment) IsSplit() bool {
	return len(p.Parts) > 0
}

// OrderMethod - что записать в orders.payment_method: единственный метод или nil
func (p Payment) OrderMethod() *string {
	if p.IsSplit() {
		return ResolvePaymentMethod(SanitizePayments(p.Parts))
	}
	m := normalizeMethod(p.Method)
	if m == "" {
		return nil
	}
	return &m
}

func normalizeMethod(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}

// SanitizePayments чистит вход: trim + lower для метода, части без метода или с суммой <= 0 отбрасываются
func SanitizePayments(parts []models.PaymentPart) []models.PaymentPart {
	out := make([]models.PaymentPart, 0, len(parts))
	for _, p := range parts {
		method := normalizeMethod(p.Method)
		if method == "" || p.AmountCents <= 0 {
			continue
		}
		out = append(out, models.PaymentPart{Method: method, AmountCents: p.AmountCents})
	}
	return out
}

// SumPayments - сумма частей в центах
func SumPayments(parts []models.PaymentPart) int64 {
	var sum int64
	for _, p := range parts {
		sum += p.AmountCents
	}
	return sum
}

// ResolvePaymentMethod возвращает метод, если он единственный среди частей, иначе nil
func ResolvePaymentMethod(parts []models.PaymentPart) *string {
	var method string
	for _, p := range parts {
		if method == "" {
			method = p.Method
			continue
		}
		if p.Method != method {
			return nil
		}
	}
	if method == "" {
		return nil
	}
	return &method
}

// ValidatePayments проверяет границы: количество частей, сумма части, длина метода
func ValidatePayments(parts []models.PaymentPart) error {
	if len(parts) > MaxReceiptPayments {
		return Validationf("слишком много частей оплаты: %d (максимум %d)", len(parts), MaxReceiptPayments)
	}
	for _, p := range parts {
		if len(strings.TrimSpace(p.Method)) > MaxPaymentMethodLen {
			return Validationf("слишком длинный способ оплаты")
		}
		if p.AmountCents < 0 || p.AmountCents > MaxReceiptPaymentCents {
			return Validationf("недопустимая сумма части оплаты: %d", p.AmountCents)
		}
	}
	return nil
}

// ValidateSplit - проверка на клиенте перед подтверждением: сумма частей должна
// совпасть с суммой команды на момент открытия диалога
func ValidateSplit(parts []models.PaymentPart, total int64) error {
	if err := ValidatePayments(parts); err != nil {
		return err
	}
	clean := SanitizePayments(parts)
	if len(clean) == 0 {
		return Validationf("не указано ни одной части оплаты")
	}
	if sum := SumPayments(clean); sum != total {
		return Validationf("сумма оплат %d не совпадает с итогом %d", sum, total)
	}
	return nil
}

// BuildReceipt пересчитывает заголовок чека из текущих данных: сумма неотмененных
// позиций всех заказов с этим receipt id, последнее время закрытия, способ оплаты.
// Если переданы части оплаты, метод определяется по ним (nil при разбивке),
// иначе берется единственный метод среди заказов.
func BuildReceipt(receiptID string, orders []models.Order, items []models.OrderItem, comanda *models.Comanda, payments []models.PaymentPart) models.Receipt {
	var receiptOrders []models.Order
	for _, o := range orders {
		if o.ReceiptID != nil && *o.ReceiptID == receiptID {
			receiptOrders = append(receiptOrders, o)
		}
	}

	r := models.Receipt{ReceiptID: receiptID}
	r.TotalCents = SumItems(ItemsOfOrders(receiptOrders, items))

	var methods []models.PaymentPart
	for _, o := range receiptOrders {
		if o.ClosedAt != nil && o.ClosedAt.After(r.ClosedAt) {
			r.ClosedAt = *o.ClosedAt
		}
		if m := normalizeMethod(models.Deref(o.PaymentMethod)); m != "" {
			methods = append(methods, models.PaymentPart{Method: m})
		}
	}
	if len(payments) > 0 {
		r.PaymentMethod = ResolvePaymentMethod(payments)
	} else {
		r.PaymentMethod = ResolvePaymentMethod(methods)
	}

	if comanda != nil {
		id, number := comanda.ID, comanda.Number
		r.ComandaID = &id
		r.ComandaNumber = &number
	} else if len(receiptOrders) > 0 {
		id := receiptOrders[0].ComandaID
		r.ComandaID = &id
	}
	return r
}

// ExistingReceiptID - если среди открытых заказов есть переоткрытый чек, его id переиспользуется
func ExistingReceiptID(open []models.Order) string {
	for _, o := range open {
		if o.ReceiptID != nil && *o.ReceiptID != "" {
			return *o.ReceiptID
		}
	}
	return ""
}
