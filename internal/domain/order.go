package domain

import (
	"strings"

	"comandapos/server/internal/models"
)

// FindCategory ищет категорию по id
func FindCategory(id string, categories []models.Category) (models.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// ResolveLine превращает строку корзины в позицию заказа: снимок имени, цены и
// категории из меню. Недоступную позицию заказать нельзя. Цену и имя из корзины
// принимаем только для категорий с переменной ценой.
func ResolveLine(line models.CartLine, item models.MenuItem, categories []models.Category) (models.OrderItem, error) {
	if !item.Available {
		return models.OrderItem{}, Validationf("позиция %q недоступна", item.Name)
	}
	out := models.OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   line.Quantity,
		Category:   item.Category,
	}
	if cat, ok := FindCategory(item.Category, categories); ok && cat.VariablePrice {
		if line.PriceOverride == nil || *line.PriceOverride <= 0 {
			return models.OrderItem{}, Validationf("для %q нужно указать цену", item.Name)
		}
		out.Price = *line.PriceOverride
		if name := strings.TrimSpace(line.DisplayName); name != "" {
			out.Name = name
		}
	}
	if err := ValidateLine(out.Quantity, out.Price); err != nil {
		return models.OrderItem{}, err
	}
	out.Status = InitialItemStatus(out.Category, categories)
	return out, nil
}
