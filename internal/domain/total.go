package domain

import "comandapos/server/internal/models"

// ComputeTotal пересчитывает сумму команды с нуля: price*quantity по всем
// неотмененным позициям открытых заказов этой команды.
func ComputeTotal(comandaID int64, orders []models.Order, items []models.OrderItem) int64 {
	open := make(map[int64]struct{})
	for _, o := range orders {
		if o.ComandaID == comandaID && !o.IsClosed() {
			open[o.ID] = struct{}{}
		}
	}
	var total int64
	for _, it := range items {
		if it.Status == models.ItemCanceled {
			continue
		}
		if _, ok := open[it.OrderID]; ok {
			total += it.LineTotal()
		}
	}
	return total
}

// SumItems - сумма неотмененных позиций (для заголовка чека)
func SumItems(items []models.OrderItem) int64 {
	var total int64
	for _, it := range items {
		if it.Status != models.ItemCanceled {
			total += it.LineTotal()
		}
	}
	return total
}
