package domain

import (
	"regexp"
	"strings"
)

// Лимиты входных данных
const (
	MaxOrderItems          = 200
	MaxOrderItemQty        = 200
	MaxOrderItemPriceCents = 2_000_000
	MaxReceiptPayments     = 20
	MaxReceiptPaymentCents = 5_000_000
	MaxPaymentMethodLen    = 64
)

var (
	receiptIDRe  = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,120}$`)
	categoryIDRe = regexp.MustCompile(`(?i)^[a-z0-9_:-]{1,64}$`)
)

// ValidateReceiptID проверяет формат id чека
func ValidateReceiptID(id string) error {
	if !receiptIDRe.MatchString(id) {
		return Validationf("некорректный receipt id: %q", id)
	}
	return nil
}

// NormalizeCategoryID приводит slug категории к нижнему регистру и проверяет формат
func NormalizeCategoryID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !categoryIDRe.MatchString(id) {
		return "", Validationf("некорректный id категории: %q", id)
	}
	return strings.ToLower(id), nil
}

// ValidateLine проверяет одну строку заказа
func ValidateLine(quantity int, price int64) error {
	if quantity <= 0 || quantity > MaxOrderItemQty {
		return Validationf("недопустимое количество: %d", quantity)
	}
	if price < 0 || price > MaxOrderItemPriceCents {
		return Validationf("недопустимая цена: %d", price)
	}
	return nil
}
