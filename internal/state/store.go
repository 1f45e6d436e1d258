package state

import (
	"sync"

	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
)

// Store - явный контейнер состояния клиента. Хранит два слоя:
// подтвержденную базу и оверлей оптимистичных правок поверх нее.
// Reconcile заменяет базу снапшотом и выбрасывает оверлей целиком.
type Store struct {
	mu      sync.RWMutex
	base    *pos.Book
	overlay *pos.Book
	carts   map[int64]pos.Cart
	active  int64
	version uint64

	subsMu sync.Mutex
	subs   []func(uint64)
}

// NewStore создает контейнер с начальной базой
func NewStore(base *pos.Book) *Store {
	if base == nil {
		base = &pos.Book{}
	}
	return &Store{base: base, carts: make(map[int64]pos.Cart)}
}

// View - то, что видит пользователь: оверлей, если есть, иначе база. Возвращается копия.
func (s *Store) View() *pos.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.overlay != nil {
		return s.overlay.Clone()
	}
	return s.base.Clone()
}

// Confirmed - копия подтвержденной базы
func (s *Store) Confirmed() *pos.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Clone()
}

// HasPending - есть ли неподтвержденные правки
func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay != nil
}

// Version растет на каждое изменение видимого состояния
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Commit применяет fn к копии базы и, если ошибки нет, делает ее новой базой.
// Так работает локальный режим и contingency fallback. При ошибке ничего не меняется.
func (s *Store) Commit(fn func(b *pos.Book) error) error {
	s.mu.Lock()
	next := s.base.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.base = next
	s.overlay = nil
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
	return nil
}

// Optimistic применяет fn к оверлею (создается из базы при первой правке).
// Ошибка fn оставляет оверлей как был.
func (s *Store) Optimistic(fn func(b *pos.Book) error) error {
	s.mu.Lock()
	var next *pos.Book
	if s.overlay != nil {
		next = s.overlay.Clone()
	} else {
		next = s.base.Clone()
	}
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.overlay = next
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
	return nil
}

// Rollback выбрасывает оверлей: видимое состояние снова равно базе
func (s *Store) Rollback() {
	s.mu.Lock()
	if s.overlay == nil {
		s.mu.Unlock()
		return
	}
	s.overlay = nil
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// Reconcile заменяет базу снапшотом сервера, оверлей выбрасывается целиком.
// Локальные чеки из базы сохраняются: в снапшоте их нет.
func (s *Store) Reconcile(snap *models.Snapshot) {
	next := pos.NewBook(snap)
	s.mu.Lock()
	next.Receipts = s.base.Receipts
	next.Payments = s.base.Payments
	s.base = next
	s.overlay = nil
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// Replace заменяет базу целиком (загрузка из файла, сигнал соседней вкладки)
func (s *Store) Replace(b *pos.Book) {
	s.mu.Lock()
	s.base = b.Clone()
	s.overlay = nil
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// Cart возвращает копию корзины команды
func (s *Store) Cart(comandaID int64) pos.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(pos.Cart(nil), s.carts[comandaID]...)
}

// Carts - копия всех корзин
func (s *Store) Carts() map[int64]pos.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]pos.Cart, len(s.carts))
	for k, v := range s.carts {
		out[k] = append(pos.Cart(nil), v...)
	}
	return out
}

// SetCart сохраняет корзину; пустая удаляется
func (s *Store) SetCart(comandaID int64, cart pos.Cart) {
	s.mu.Lock()
	if len(cart) == 0 {
		delete(s.carts, comandaID)
	} else {
		s.carts[comandaID] = cart
	}
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// RestoreCarts подставляет корзины из сохраненного состояния
func (s *Store) RestoreCarts(carts map[int64]pos.Cart, active int64) {
	s.mu.Lock()
	s.carts = make(map[int64]pos.Cart, len(carts))
	for k, v := range carts {
		s.carts[k] = append(pos.Cart(nil), v...)
	}
	s.active = active
	s.mu.Unlock()
}

// ActiveComanda - выбранная команда (0 = нет)
func (s *Store) ActiveComanda() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveComanda выбирает команду
func (s *Store) SetActiveComanda(id int64) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

// Subscribe регистрирует колбэк на изменения. Колбэк вызывается вне блокировки.
func (s *Store) Subscribe(fn func(version uint64)) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

func (s *Store) bump() uint64 {
	s.version++
	return s.version
}

func (s *Store) notify(v uint64) {
	s.subsMu.Lock()
	subs := append([]func(uint64){}, s.subs...)
	s.subsMu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}
