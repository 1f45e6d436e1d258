package pos

import (
	"strings"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"github.com/google/uuid"
)

// Cart - корзина команды. Живет только на клиенте и в снапшот не попадает.
type Cart []models.CartLine

// CartOptions - параметры добавления в корзину
type CartOptions struct {
	Quantity    int
	Price       *int64 // только для категорий с переменной ценой
	DisplayName string
}

// AddToCart добавляет позицию. Для категории с переменной ценой всегда новая строка
// с ценой оператора, иначе увеличивается количество существующей строки.
func AddToCart(cart Cart, item models.MenuItem, categories []models.Category, opts CartOptions) (Cart, error) {
	if !item.Available {
		return cart, domain.Validationf("позиция %q недоступна", item.Name)
	}
	qty := opts.Quantity
	if qty <= 0 {
		qty = 1
	}

	if cat, ok := domain.FindCategory(item.Category, categories); ok && cat.VariablePrice {
		if opts.Price == nil || *opts.Price <= 0 {
			return cart, domain.Validationf("для %q нужно указать цену", item.Name)
		}
		if err := domain.ValidateLine(qty, *opts.Price); err != nil {
			return cart, err
		}
		price := *opts.Price
		return append(cart, models.CartLine{
			TempID:        uuid.NewString(),
			MenuItemID:    item.ID,
			Quantity:      qty,
			PriceOverride: &price,
			DisplayName:   strings.TrimSpace(opts.DisplayName),
		}), nil
	}

	out := append(Cart(nil), cart...)
	for i := range out {
		if out[i].MenuItemID == item.ID && out[i].PriceOverride == nil {
			if err := domain.ValidateLine(out[i].Quantity+qty, item.Price); err != nil {
				return cart, err
			}
			out[i].Quantity += qty
			return out, nil
		}
	}
	if err := domain.ValidateLine(qty, item.Price); err != nil {
		return cart, err
	}
	return append(out, models.CartLine{TempID: uuid.NewString(), MenuItemID: item.ID, Quantity: qty}), nil
}

// Increment увеличивает количество строки
func (c Cart) Increment(tempID string) Cart {
	out := append(Cart(nil), c...)
	for i := range out {
		if out[i].TempID == tempID && out[i].Quantity < domain.MaxOrderItemQty {
			out[i].Quantity++
		}
	}
	return out
}

// Decrement уменьшает количество; строка с нулем удаляется
func (c Cart) Decrement(tempID string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.TempID == tempID {
			line.Quantity--
			if line.Quantity <= 0 {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// Remove удаляет строку
func (c Cart) Remove(tempID string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.TempID != tempID {
			out = append(out, line)
		}
	}
	return out
}

// Total - сумма корзины по текущему меню
func (c Cart) Total(menu []models.MenuItem) int64 {
	prices := make(map[int64]int64, len(menu))
	for _, m := range menu {
		prices[m.ID] = m.Price
	}
	var total int64
	for _, line := range c {
		price := prices[line.MenuItemID]
		if line.PriceOverride != nil {
			price = *line.PriceOverride
		}
		total += price * int64(line.Quantity)
	}
	return total
}
