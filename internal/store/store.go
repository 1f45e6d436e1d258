package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store - авторитетное хранилище серверного режима. Каждая мутация - одна
// транзакция, внутри которой пересчитываются сумма команды и статус заказа.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore создает хранилище
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Ping проверяет соединение с БД
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Snapshot возвращает полное состояние одной согласованной выборкой
func (s *Store) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&snap.MenuItems).Error; err != nil {
			return err
		}
		if err := tx.Order("id").Find(&snap.Categories).Error; err != nil {
			return err
		}
		if err := tx.Order("number").Find(&snap.Comandas).Error; err != nil {
			return err
		}
		if err := tx.Order("id").Find(&snap.Orders).Error; err != nil {
			return err
		}
		return tx.Order("id").Find(&snap.OrderItems).Error
	}, opts)
	if err != nil {
		return nil, err
	}
	snap.ServerTime = s.now()
	return snap, nil
}

// Seed заполняет пустую БД стартовыми категориями, командами и меню
func (s *Store) Seed(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("id <> ?", models.FallbackCategoryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			cats := pos.DefaultCategories()
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cats).Error; err != nil {
				return err
			}
			log.Info().Int("count", len(cats)).Msg("🌱 Категории созданы")
		}

		if err := tx.Model(&models.Comanda{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			comandas := pos.DefaultComandas(20)
			if err := tx.Create(&comandas).Error; err != nil {
				return err
			}
			if err := resetSequence(tx, "comandas"); err != nil {
				return err
			}
			log.Info().Int("count", len(comandas)).Msg("🌱 Команды созданы")
		}

		if err := tx.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			// id как в локальном режиме, чтобы меню совпадало на всех устройствах
			menu := pos.DefaultMenu()
			if err := tx.Create(&menu).Error; err != nil {
				return err
			}
			if err := resetSequence(tx, "menu_items"); err != nil {
				return err
			}
			log.Info().Int("count", len(menu)).Msg("🌱 Меню создано")
		}
		return nil
	})
}

// resetSequence сдвигает bigserial после вставки с явными id
func resetSequence(tx *gorm.DB, table string) error {
	return tx.Exec("SELECT setval(pg_get_serial_sequence(?, 'id'), COALESCE((SELECT MAX(id) FROM "+table+"), 1))", table).Error
}

// lockComanda читает команду с блокировкой строки: кухня и закрытие одной команды
// сериализуются на ней
func lockComanda(tx *gorm.DB, id int64) (models.Comanda, error) {
	var c models.Comanda
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, domain.NotFound("команда", id)
	}
	return c, err
}

func loadCategories(tx *gorm.DB) ([]models.Category, error) {
	var cats []models.Category
	err := tx.Find(&cats).Error
	return cats, err
}

func loadOrder(tx *gorm.DB, id int64) (models.Order, error) {
	var o models.Order
	err := tx.First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, domain.NotFound("заказ", id)
	}
	return o, err
}

func loadItem(tx *gorm.DB, id int64) (models.OrderItem, error) {
	var it models.OrderItem
	err := tx.First(&it, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return it, domain.NotFound("позиция заказа", id)
	}
	return it, err
}

func openOrdersOf(tx *gorm.DB, comandaID int64) ([]models.Order, error) {
	var orders []models.Order
	err := tx.Where("comanda_id = ? AND status <> ?", comandaID, models.OrderClosed).
		Order("created_at, id").Find(&orders).Error
	return orders, err
}

func itemsOf(tx *gorm.DB, orders []models.Order) ([]models.OrderItem, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	var items []models.OrderItem
	err := tx.Where("order_id IN ?", ids).Order("id").Find(&items).Error
	return items, err
}

// recalcComanda пересчитывает сумму команды с нуля по открытым заказам
func recalcComanda(tx *gorm.DB, comandaID int64) (int64, error) {
	open, err := openOrdersOf(tx, comandaID)
	if err != nil {
		return 0, err
	}
	items, err := itemsOf(tx, open)
	if err != nil {
		return 0, err
	}
	total := domain.ComputeTotal(comandaID, open, items)
	err = tx.Model(&models.Comanda{}).Where("id = ?", comandaID).Update("total", total).Error
	return total, err
}

// afterItemChange - статус незакрытого заказа, чек закрытого, сумма команды
func afterItemChange(tx *gorm.DB, order models.Order, now time.Time) error {
	if !order.IsClosed() {
		items, err := itemsOf(tx, []models.Order{order})
		if err != nil {
			return err
		}
		status := domain.DeriveOrderStatus(items)
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error; err != nil {
			return err
		}
	} else if order.ReceiptID != nil {
		if _, err := upsertReceipt(tx, *order.ReceiptID, nil, now); err != nil {
			return err
		}
	}
	_, err := recalcComanda(tx, order.ComandaID)
	return err
}

// isUniqueViolation - ошибка уникального индекса PostgreSQL
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
