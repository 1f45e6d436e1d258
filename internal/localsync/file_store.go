package localsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
)

const persistedVersion = 1

// Persisted - то, что локальный режим хранит на диске
type Persisted struct {
	Version  int                `json:"version"`
	SavedAt  time.Time          `json:"saved_at"`
	Origin   string             `json:"origin,omitempty"`
	Book     *pos.Book          `json:"book"`
	Carts    map[int64]pos.Cart `json:"carts,omitempty"`
	ActiveID int64              `json:"active_comanda_id,omitempty"`
}

// FileStore - JSON файл состояния локального режима
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path - путь к файлу состояния
func (f *FileStore) Path() string {
	return f.path
}

// SignalPath - файл сигналов рядом с состоянием
func (f *FileStore) SignalPath() string {
	return f.path + ".signal"
}

// Load читает сохраненное состояние. Нет файла - (nil, nil).
func (f *FileStore) Load() (*Persisted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode state %s: %w", f.path, err)
	}
	if p.Book == nil {
		return nil, fmt.Errorf("state %s has no book", f.path)
	}
	if p.Version < persistedVersion {
		upgradeLegacy(p.Book)
	}
	return &p, nil
}

// upgradeLegacy - разовый back-fill для файлов до появления send_to_kitchen:
// на кухню тогда шла только категория porcoes. Без категорий - стартовый набор.
func upgradeLegacy(b *pos.Book) {
	if len(b.Categories) == 0 {
		b.Categories = pos.DefaultCategories()
		return
	}
	for i := range b.Categories {
		if b.Categories[i].ID == models.LegacyKitchenCategoryID {
			b.Categories[i].SendToKitchen = true
		}
	}
}

// Save атомарно записывает состояние
func (f *FileStore) Save(p Persisted) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p.Version = persistedVersion
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return writeAtomic(f.path, data)
}
