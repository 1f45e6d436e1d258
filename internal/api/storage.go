package api

import (
	"context"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/store"
)

// Storage - то, что контроллерам нужно от авторитетного хранилища
type Storage interface {
	Ping(ctx context.Context) error
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpsertCategory(ctx context.Context, cat models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) (int, error)

	ListComandas(ctx context.Context) ([]models.Comanda, error)
	CreateComanda(ctx context.Context, number int) (models.Comanda, error)
	DeleteComanda(ctx context.Context, id int64) error
	SelectComanda(ctx context.Context, id int64) (models.Comanda, error)
	CancelOpening(ctx context.Context, id int64) (bool, error)

	ListOrders(ctx context.Context) ([]models.Order, error)
	OrderHistory(ctx context.Context, limit int) ([]store.HistoryEntry, error)
	SubmitOrder(ctx context.Context, comandaID int64, lines []models.CartLine) (*pos.SubmitResult, error)
	AddItemToOrder(ctx context.Context, orderID int64, line models.CartLine) (models.OrderItem, error)
	SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) (models.OrderItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.OrderItem, error)
	DeleteItem(ctx context.Context, itemID int64) error
	ReopenOrder(ctx context.Context, orderID int64) error
	ReopenReceipt(ctx context.Context, receiptID string) error

	Finalize(ctx context.Context, comandaID int64, pay domain.Payment) (*pos.FinalizeResult, error)
	GetReceipt(ctx context.Context, receiptID string) (models.Receipt, error)
	GetReceiptPayments(ctx context.Context, receiptID string) ([]models.ReceiptPayment, error)
	UpsertReceiptPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (models.Receipt, []models.ReceiptPayment, error)
}

// Notifier сообщает об изменении состояния после коммита
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload interface{})
}

var (
	_ Storage = (*store.Store)(nil)
	_ Storage = (*store.MemoryStore)(nil)
)
