package models

import "time"

// User - администратор, который входит по логину и паролю
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:text;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

// TableName возвращает имя таблицы
func (User) TableName() string {
	return "users"
}
