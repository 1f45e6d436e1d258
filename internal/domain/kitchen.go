package domain

import "comandapos/server/internal/models"

// IsKitchenCategory возвращает флаг send_to_kitchen категории.
// Для категории, которой нет в списке, на кухню идет только legacy "porcoes".
func IsKitchenCategory(categoryID string, categories []models.Category) bool {
	for _, c := range categories {
		if c.ID == categoryID {
			return c.SendToKitchen
		}
	}
	return categoryID == models.LegacyKitchenCategoryID
}

// IsKitchenRouted - должна ли позиция пройти через кухню
func IsKitchenRouted(item models.OrderItem, categories []models.Category) bool {
	return IsKitchenCategory(item.Category, categories)
}

// IsKitchenBlocking - кухонная позиция, которая еще не готова (pending/preparing)
func IsKitchenBlocking(item models.OrderItem, categories []models.Category) bool {
	if item.Status != models.ItemPending && item.Status != models.ItemPreparing {
		return false
	}
	return IsKitchenRouted(item, categories)
}

// OpenOrders - незакрытые заказы команды, в исходном порядке
func OpenOrders(comandaID int64, orders []models.Order) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.ComandaID == comandaID && !o.IsClosed() {
			out = append(out, o)
		}
	}
	return out
}

// ItemsOfOrders отбирает позиции, принадлежащие переданным заказам
func ItemsOfOrders(orders []models.Order, items []models.OrderItem) []models.OrderItem {
	ids := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		ids[o.ID] = struct{}{}
	}
	var out []models.OrderItem
	for _, it := range items {
		if _, ok := ids[it.OrderID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// CountKitchenBlocking считает блокирующие позиции по открытым заказам команды
func CountKitchenBlocking(comandaID int64, orders []models.Order, items []models.OrderItem, categories []models.Category) int {
	n := 0
	for _, it := range ItemsOfOrders(OpenOrders(comandaID, orders), items) {
		if IsKitchenBlocking(it, categories) {
			n++
		}
	}
	return n
}

// InitialItemStatus - новая позиция: кухонная стартует в pending, остальные сразу delivered
func InitialItemStatus(categoryID string, categories []models.Category) models.ItemStatus {
	if IsKitchenCategory(categoryID, categories) {
		return models.ItemPending
	}
	return models.ItemDelivered
}
