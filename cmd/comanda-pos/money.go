package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"comandapos/server/internal/models"
)

var hundred = decimal.NewFromInt(100)

// parseAmount переводит "12,50" / "12.50" / "R$ 12,5" в центы
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		// бразильская запись: точка - разделитель тысяч
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than 2 decimals", s)
	}
	return d.Mul(hundred).IntPart(), nil
}

// formatCents - 4900 -> "R$ 49,00"
func formatCents(cents int64) string {
	s := decimal.New(cents, -2).StringFixed(2)
	return "R$ " + strings.Replace(s, ".", ",", 1)
}

// parseParts разбирает "pix=30 cash=19,00"
func parseParts(args []string) ([]models.PaymentPart, error) {
	parts := make([]models.PaymentPart, 0, len(args))
	for _, arg := range args {
		method, amount, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected method=amount, got %q", arg)
		}
		cents, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		parts = append(parts, models.PaymentPart{Method: method, AmountCents: cents})
	}
	return parts, nil
}
