package client

import (
	"context"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
)

//go:generate mockgen -destination=mock/backend.go -package=mock_client comandapos/server/internal/client Backend

// Backend - авторитетный сервер в серверном режиме.
// Транспортные сбои возвращаются как *domain.BackendUnavailableError,
// ответы сервера - теми же доменными ошибками, что он сам вернул.
type Backend interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	SelectComanda(ctx context.Context, comandaID int64) (models.Comanda, error)
	CancelOpening(ctx context.Context, comandaID int64) (bool, error)
	CreateComanda(ctx context.Context, number int) (models.Comanda, error)
	DeleteComanda(ctx context.Context, comandaID int64) error

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
	UpsertPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (models.Receipt, []models.ReceiptPayment, error)

	CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	UpsertCategory(ctx context.Context, cat models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) (int, error)
}
