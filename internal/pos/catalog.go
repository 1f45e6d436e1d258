package pos

import (
	"strings"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
)

// UpsertCategory создает или обновляет категорию. Пустой label при обновлении
// оставляет старый.
func (e *Engine) UpsertCategory(b *Book, cat models.Category) (models.Category, error) {
	id, err := domain.NormalizeCategoryID(cat.ID)
	if err != nil {
		return models.Category{}, err
	}
	cat.ID = id
	cat.Label = strings.TrimSpace(cat.Label)
	for i := range b.Categories {
		if b.Categories[i].ID == id {
			if cat.Label == "" {
				cat.Label = b.Categories[i].Label
			}
			b.Categories[i] = cat
			return cat, nil
		}
	}
	if cat.Label == "" {
		return models.Category{}, domain.Validationf("label категории обязателен")
	}
	b.Categories = append(b.Categories, cat)
	return cat, nil
}

// DeleteCategory удаляет категорию и переносит ее позиции меню в резервную.
// Возвращает число перенесенных позиций.
func (e *Engine) DeleteCategory(b *Book, id string) (int, error) {
	id, err := domain.NormalizeCategoryID(id)
	if err != nil {
		return 0, err
	}
	if id == models.FallbackCategoryID {
		return 0, &domain.ConflictError{Code: domain.CodeCategoryReserved, Message: "резервную категорию удалить нельзя"}
	}
	idx := -1
	for i, c := range b.Categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, domain.NotFound("категория", id)
	}
	if _, ok := domain.FindCategory(models.FallbackCategoryID, b.Categories); !ok {
		b.Categories = append(b.Categories, FallbackCategory())
	}

	moved := 0
	for i := range b.MenuItems {
		if b.MenuItems[i].Category == id {
			b.MenuItems[i].Category = models.FallbackCategoryID
			moved++
		}
	}
	b.Categories = append(b.Categories[:idx], b.Categories[idx+1:]...)
	return moved, nil
}

// FallbackCategory - резервная категория "outros"
func FallbackCategory() models.Category {
	return models.Category{ID: models.FallbackCategoryID, Label: "Outros"}
}

// CreateMenuItem добавляет позицию меню
func (e *Engine) CreateMenuItem(b *Book, item models.MenuItem) (models.MenuItem, error) {
	if err := ValidateMenuItem(item, b.Categories); err != nil {
		return models.MenuItem{}, err
	}
	item.ID = b.nextMenuItemID()
	b.MenuItems = append(b.MenuItems, item)
	return item, nil
}

// UpdateMenuItem применяет патч. Уже заказанные позиции хранят свой снимок цены.
func (e *Engine) UpdateMenuItem(b *Book, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	mi := b.menuItem(id)
	if mi == nil {
		return models.MenuItem{}, domain.NotFound("позиция меню", id)
	}
	next := patch.Apply(*mi)
	if err := ValidateMenuItem(next, b.Categories); err != nil {
		return models.MenuItem{}, err
	}
	*mi = next
	return next, nil
}

// DeleteMenuItem удаляет позицию меню
func (e *Engine) DeleteMenuItem(b *Book, id int64) error {
	if b.menuItem(id) == nil {
		return domain.NotFound("позиция меню", id)
	}
	out := b.MenuItems[:0]
	for _, m := range b.MenuItems {
		if m.ID != id {
			out = append(out, m)
		}
	}
	b.MenuItems = out
	return nil
}

// ValidateMenuItem проверяет позицию меню против списка категорий
func ValidateMenuItem(item models.MenuItem, categories []models.Category) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.Validationf("название позиции обязательно")
	}
	if item.Price < 0 || item.Price > domain.MaxOrderItemPriceCents {
		return domain.Validationf("недопустимая цена: %d", item.Price)
	}
	if _, ok := domain.FindCategory(item.Category, categories); !ok {
		return domain.Validationf("неизвестная категория: %q", item.Category)
	}
	return nil
}
