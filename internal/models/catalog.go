package models

// Зарезервированные категории
const (
	// FallbackCategoryID - категория, в которую переносятся позиции удаленной категории. Удалить нельзя.
	FallbackCategoryID = "outros"
	// LegacyKitchenCategoryID - старые сохраненные состояния не знали про send_to_kitchen,
	// для них на кухню шла только эта категория
	LegacyKitchenCategoryID = "porcoes"
)

// MenuItem представляет позицию меню
type MenuItem struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:text;not null" json:"name"`
	Category    string `gorm:"type:text;not null;index" json:"category"`
	Price       int64  `gorm:"not null" json:"price"` // в центах
	Description string `gorm:"type:text" json:"description,omitempty"`
	Image       string `gorm:"type:text" json:"image,omitempty"` // URL или data URL
	Available   bool   `gorm:"not null;default:true" json:"available"`
}

// TableName возвращает имя таблицы
func (MenuItem) TableName() string {
	return "menu_items"
}

// Category представляет категорию меню
type Category struct {
	ID            string `gorm:"type:text;primaryKey" json:"id"` // стабильный slug, например "porcoes"
	Label         string `gorm:"type:text;not null" json:"label"`
	SendToKitchen bool   `gorm:"column:send_to_kitchen;not null;default:false" json:"send_to_kitchen"`
	// VariablePrice - цена задается оператором на каждую строку (буфет по весу)
	VariablePrice bool `gorm:"column:variable_price;not null;default:false" json:"variable_price"`
}

// TableName возвращает имя таблицы
func (Category) TableName() string {
	return "categories"
}

// MenuItemPatch - частичное обновление позиции меню (nil = не менять)
type MenuItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// Apply применяет патч к копии позиции
func (p MenuItemPatch) Apply(item MenuItem) MenuItem {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	return item
}

// CartLine - строка корзины. Для категорий с переменной ценой оператор
// задает цену и, опционально, отображаемое имя.
type CartLine struct {
	TempID        string `json:"temp_id,omitempty"`
	MenuItemID    int64  `json:"menu_item_id"`
	Quantity      int    `json:"quantity"`
	PriceOverride *int64 `json:"price,omitempty"`
	DisplayName   string `json:"name,omitempty"`
}
