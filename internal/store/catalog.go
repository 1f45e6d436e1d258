package store

import (
	"context"
	"errors"
	"strings"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListMenuItems возвращает меню
func (s *Store) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

// CreateMenuItem добавляет позицию меню
func (s *Store) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats, err := loadCategories(tx)
		if err != nil {
			return err
		}
		if err := pos.ValidateMenuItem(item, cats); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	return item, err
}

// UpdateMenuItem применяет частичное обновление
func (s *Store) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	var next models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.MenuItem
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("позиция меню", id)
			}
			return err
		}
		cats, err := loadCategories(tx)
		if err != nil {
			return err
		}
		next = patch.Apply(current)
		if err := pos.ValidateMenuItem(next, cats); err != nil {
			return err
		}
		return tx.Save(&next).Error
	})
	return next, err
}

// DeleteMenuItem удаляет позицию меню. Заказанные позиции хранят свой снимок.
func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("позиция меню", id)
	}
	return nil
}

// ListCategories возвращает категории
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("id").Find(&cats).Error
	return cats, err
}

// UpsertCategory создает или обновляет категорию
func (s *Store) UpsertCategory(ctx context.Context, cat models.Category) (models.Category, error) {
	id, err := domain.NormalizeCategoryID(cat.ID)
	if err != nil {
		return models.Category{}, err
	}
	cat.ID = id
	cat.Label = strings.TrimSpace(cat.Label)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Category
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&existing, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if cat.Label == "" {
				return domain.Validationf("label категории обязателен")
			}
			return tx.Create(&cat).Error
		case err != nil:
			return err
		}
		if cat.Label == "" {
			cat.Label = existing.Label
		}
		return tx.Model(&models.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
			"label":           cat.Label,
			"send_to_kitchen": cat.SendToKitchen,
			"variable_price":  cat.VariablePrice,
		}).Error
	})
	if err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

// DeleteCategory удаляет категорию, ее позиции меню переезжают в "outros".
// Возвращает число перенесенных позиций.
func (s *Store) DeleteCategory(ctx context.Context, id string) (int, error) {
	id, err := domain.NormalizeCategoryID(id)
	if err != nil {
		return 0, err
	}
	if id == models.FallbackCategoryID {
		return 0, &domain.ConflictError{Code: domain.CodeCategoryReserved, Message: "резервную категорию удалить нельзя"}
	}

	var moved int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Category
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("категория", id)
			}
			return err
		}
		fallback := pos.FallbackCategory()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fallback).Error; err != nil {
			return err
		}
		res := tx.Model(&models.MenuItem{}).Where("category = ?", id).Update("category", models.FallbackCategoryID)
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	return int(moved), err
}
