package domain

import "comandapos/server/internal/models"

// Переходы статусов позиции. ready -> delivered делает только закрытие команды.
var itemTransitions = map[models.ItemStatus][]models.ItemStatus{
	models.ItemPending:   {models.ItemPreparing, models.ItemCanceled},
	models.ItemPreparing: {models.ItemPending, models.ItemReady, models.ItemCanceled},
	models.ItemReady:     {models.ItemCanceled},
	models.ItemDelivered: nil,
	models.ItemCanceled:  nil,
}

// CanTransition сообщает, разрешен ли переход. Повтор текущего статуса разрешен (no-op).
func CanTransition(from, to models.ItemStatus) bool {
	if from == to {
		return true
	}
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition возвращает ValidationError для запрещенного перехода
func CheckTransition(from, to models.ItemStatus) error {
	if !to.Valid() {
		return Validationf("неизвестный статус позиции: %q", to)
	}
	if !CanTransition(from, to) {
		return Validationf("переход %s -> %s запрещен", from, to)
	}
	return nil
}

// DeriveOrderStatus выводит статус незакрытого заказа из его позиций:
// preparing, если есть pending/preparing, иначе ready, если есть ready, иначе open.
func DeriveOrderStatus(items []models.OrderItem) models.OrderStatus {
	hasReady := false
	for _, it := range items {
		switch it.Status {
		case models.ItemPending, models.ItemPreparing:
			return models.OrderPreparing
		case models.ItemReady:
			hasReady = true
		}
	}
	if hasReady {
		return models.OrderReady
	}
	return models.OrderOpen
}
