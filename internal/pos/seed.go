package pos

import (
	"comandapos/server/internal/models"
)

// DefaultCategories - стартовые категории
func DefaultCategories() []models.Category {
	return []models.Category{
		{ID: "porcoes", Label: "Porções", SendToKitchen: true},
		{ID: "bebidas", Label: "Bebidas"},
		{ID: "lanches", Label: "Lanches"},
		{ID: "sobremesas", Label: "Sobremesas"},
		{ID: "buffet_kg", Label: "Buffet por kg", VariablePrice: true},
		FallbackCategory(),
	}
}

// DefaultMenu - стартовое меню
func DefaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{ID: 100, Name: "Buffet por kg", Category: "buffet_kg", Price: 0, Description: "Valor informado manualmente ao adicionar", Available: true},
		{ID: 1, Name: "Batata Frita", Category: "porcoes", Price: 2500, Description: "Porção grande com cheddar e bacon", Available: true},
		{ID: 2, Name: "Frango a Passarinho", Category: "porcoes", Price: 3500, Description: "Acompanha molho de alho", Available: true},
		{ID: 3, Name: "Calabresa Acebolada", Category: "porcoes", Price: 3200, Description: "Acompanha pão", Available: true},
		{ID: 4, Name: "Isca de Peixe", Category: "porcoes", Price: 4500, Description: "Tilápia empanada com molho tártaro", Available: true},
		{ID: 5, Name: "Coca-Cola Lata", Category: "bebidas", Price: 600, Description: "350ml", Available: true},
		{ID: 6, Name: "Cerveja Heineken", Category: "bebidas", Price: 1200, Description: "Long Neck 330ml", Available: true},
		{ID: 7, Name: "Suco de Laranja", Category: "bebidas", Price: 1000, Description: "Natural 500ml", Available: true},
		{ID: 8, Name: "Água Mineral", Category: "bebidas", Price: 400, Description: "Sem gás 500ml", Available: true},
		{ID: 9, Name: "X-Bacon", Category: "lanches", Price: 2200, Description: "Pão, carne, queijo, bacon e salada", Available: true},
		{ID: 10, Name: "X-Salada", Category: "lanches", Price: 1800, Description: "Clássico artesanal", Available: true},
		{ID: 11, Name: "Pudim", Category: "sobremesas", Price: 1200, Description: "Fatia generosa", Available: true},
		{ID: 12, Name: "Petit Gâteau", Category: "sobremesas", Price: 1800, Description: "Com sorvete de creme", Available: true},
	}
}

// DefaultComandas - n свободных команд с номерами 1..n
func DefaultComandas(n int) []models.Comanda {
	out := make([]models.Comanda, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Comanda{ID: int64(i), Number: i, Status: models.ComandaAvailable})
	}
	return out
}

// SeedBook - состояние нового устройства в локальном режиме
func SeedBook() *Book {
	return &Book{Snapshot: models.Snapshot{
		MenuItems:  DefaultMenu(),
		Categories: DefaultCategories(),
		Comandas:   DefaultComandas(20),
	}}
}
