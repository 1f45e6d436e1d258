package store

import (
	"context"
	"errors"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindUser ищет администратора по логину
func (s *Store) FindUser(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return u, domain.NotFound("пользователь", username)
	}
	return u, err
}

// UpdatePasswordHash сохраняет новый bcrypt хеш
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("пользователь", username)
	}
	return nil
}

// CountUsers - сколько администраторов заведено
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// CreateFirstUser создает пользователя только на пустой таблице; параллельный
// старт второго инстанса ждет на табличной блокировке
func (s *Store) CreateFirstUser(ctx context.Context, u models.User) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.User{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
		created = res.RowsAffected > 0
		return res.Error
	})
	return created, err
}
