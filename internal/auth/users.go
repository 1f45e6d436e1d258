package auth

import (
	"context"
	"sync"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
)

// Users - хранилище администраторов
type Users interface {
	FindUser(ctx context.Context, username string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	CountUsers(ctx context.Context) (int64, error)
	// CreateFirstUser вставляет пользователя, только если таблица пуста
	CreateFirstUser(ctx context.Context, u models.User) (bool, error)
}

// MemoryUsers - пользователи для сервера без БД
type MemoryUsers struct {
	mu     sync.RWMutex
	users  map[string]models.User
	nextID int64
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]models.User), nextID: 1}
}

func (m *MemoryUsers) FindUser(ctx context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return models.User{}, domain.NotFound("пользователь", username)
	}
	return u, nil
}

func (m *MemoryUsers) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return domain.NotFound("пользователь", username)
	}
	u.PasswordHash = hash
	m.users[username] = u
	return nil
}

func (m *MemoryUsers) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *MemoryUsers) CreateFirstUser(ctx context.Context, u models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.users) > 0 {
		return false, nil
	}
	u.ID = m.nextID
	m.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.Username] = u
	return true, nil
}
