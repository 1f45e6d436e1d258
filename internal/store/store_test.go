package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"comandapos/server/internal/database"
	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// StoreTestSuite гоняет хранилище против настоящего PostgreSQL в контейнере
type StoreTestSuite struct {
	suite.Suite
	container testcontainers.Container
	dsn       string
	db        *gorm.DB
	store     *Store
	ctx       context.Context
}

func (s *StoreTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "pos",
			"POSTGRES_PASSWORD": "pos",
			"POSTGRES_DB":       "pos",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)
	s.dsn = fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port())

	require.NoError(s.T(), database.RunMigrations(s.dsn))
	s.db, err = database.ConnectPostgres(s.dsn)
	require.NoError(s.T(), err)
}

func (s *StoreTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = database.ClosePostgres(s.db)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *StoreTestSuite) SetupTest() {
	require.NoError(s.T(), s.db.Exec(
		"TRUNCATE receipt_payments, receipts, order_items, orders, comandas, menu_items, categories, users RESTART IDENTITY CASCADE",
	).Error)
	s.store = NewStore(s.db)
	require.NoError(s.T(), s.store.Seed(s.ctx))
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) TestSeedMatchesLocalIDs() {
	snap, err := s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.Comandas, 20)
	s.Len(snap.MenuItems, 13)

	// sequence сдвинута после явных id
	c, err := s.store.CreateComanda(s.ctx, 21)
	s.Require().NoError(err)
	s.Equal(int64(21), c.ID)
}

func (s *StoreTestSuite) TestKitchenScenario() {
	res, err := s.store.SubmitOrder(s.ctx, 12, []models.CartLine{
		{MenuItemID: 1, Quantity: 1},
		{MenuItemID: 6, Quantity: 2},
	})
	s.Require().NoError(err)
	s.Len(res.Items, 2)

	snap, err := s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	c := findComanda(snap, 12)
	s.Equal(models.ComandaOccupied, c.Status)
	s.Equal(int64(4900), c.Total)

	fries := res.Items[0]
	s.Equal(models.ItemPending, fries.Status)
	s.Equal(models.ItemDelivered, res.Items[1].Status)

	_, err = s.store.Finalize(s.ctx, 12, domain.Payment{Method: "pix"})
	var blocked *domain.BlockedByKitchenError
	s.Require().ErrorAs(err, &blocked)
	s.Equal(1, blocked.Pending)

	for _, st := range []models.ItemStatus{models.ItemPreparing, models.ItemReady} {
		_, err = s.store.SetItemStatus(s.ctx, fries.ID, st)
		s.Require().NoError(err)
	}

	fin, err := s.store.Finalize(s.ctx, 12, domain.Payment{Method: "PIX "})
	s.Require().NoError(err)
	s.Equal(int64(4900), fin.Receipt.TotalCents)
	s.Require().NotNil(fin.Receipt.PaymentMethod)
	s.Equal("pix", *fin.Receipt.PaymentMethod)

	snap, err = s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	c = findComanda(snap, 12)
	s.Equal(models.ComandaAvailable, c.Status)
	s.Zero(c.Total)
}

func (s *StoreTestSuite) TestSubmitReusesOpenOrderAndIsAtomic() {
	first, err := s.store.SubmitOrder(s.ctx, 3, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	second, err := s.store.SubmitOrder(s.ctx, 3, []models.CartLine{{MenuItemID: 8, Quantity: 1}})
	s.Require().NoError(err)
	s.Equal(first.Order.ID, second.Order.ID)

	_, err = s.store.SubmitOrder(s.ctx, 3, []models.CartLine{
		{MenuItemID: 5, Quantity: 1},
		{MenuItemID: 9999, Quantity: 1},
	})
	var nf *domain.NotFoundError
	s.Require().ErrorAs(err, &nf)

	_, items, err := s.store.GetOrder(s.ctx, first.Order.ID)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *StoreTestSuite) TestSplitPaymentsIdempotent() {
	_, err := s.store.SubmitOrder(s.ctx, 4, []models.CartLine{{MenuItemID: 6, Quantity: 5}})
	s.Require().NoError(err)
	fin, err := s.store.Finalize(s.ctx, 4, domain.Payment{Parts: []models.PaymentPart{
		{Method: "pix", AmountCents: 4000},
		{Method: "cash", AmountCents: 2000},
	}})
	s.Require().NoError(err)
	s.Nil(fin.Receipt.PaymentMethod)
	s.Len(fin.Payments, 2)

	parts := []models.PaymentPart{{Method: "card", AmountCents: 6000}}
	for i := 0; i < 2; i++ {
		r, rows, err := s.store.UpsertReceiptPayments(s.ctx, fin.ReceiptID, parts)
		s.Require().NoError(err)
		s.Len(rows, 1)
		s.Require().NotNil(r.PaymentMethod)
		s.Equal("card", *r.PaymentMethod)
	}
	rows, err := s.store.GetReceiptPayments(s.ctx, fin.ReceiptID)
	s.Require().NoError(err)
	s.Len(rows, 1)

	_, _, err = s.store.UpsertReceiptPayments(s.ctx, "C99-NOPE", parts)
	var nf *domain.NotFoundError
	s.ErrorAs(err, &nf)
}

func (s *StoreTestSuite) TestReopenReceiptKeepsID() {
	_, err := s.store.SubmitOrder(s.ctx, 5, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	fin, err := s.store.Finalize(s.ctx, 5, domain.Payment{Method: "cash"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.ReopenReceipt(s.ctx, fin.ReceiptID))
	_, err = s.store.SubmitOrder(s.ctx, 5, []models.CartLine{{MenuItemID: 8, Quantity: 1}})
	s.Require().NoError(err)

	again, err := s.store.Finalize(s.ctx, 5, domain.Payment{Method: "cash"})
	s.Require().NoError(err)
	s.Equal(fin.ReceiptID, again.ReceiptID)
	s.Equal(int64(1000), again.Receipt.TotalCents)

	history, err := s.store.OrderHistory(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(history)
	s.Require().NotNil(history[0].Receipt)
	s.Equal(fin.ReceiptID, history[0].Receipt.ReceiptID)
}

func (s *StoreTestSuite) TestRefinalizeSplitReceiptWithSingleMethod() {
	_, err := s.store.SubmitOrder(s.ctx, 6, []models.CartLine{{MenuItemID: 5, Quantity: 2}})
	s.Require().NoError(err)
	fin, err := s.store.Finalize(s.ctx, 6, domain.Payment{Parts: []models.PaymentPart{
		{Method: "pix", AmountCents: 600},
		{Method: "cash", AmountCents: 600},
	}})
	s.Require().NoError(err)
	s.Len(fin.Payments, 2)

	s.Require().NoError(s.store.ReopenReceipt(s.ctx, fin.ReceiptID))
	_, err = s.store.SubmitOrder(s.ctx, 6, []models.CartLine{{MenuItemID: 6, Quantity: 1}})
	s.Require().NoError(err)
	again, err := s.store.Finalize(s.ctx, 6, domain.Payment{Method: "pix"})
	s.Require().NoError(err)

	s.Equal(fin.ReceiptID, again.ReceiptID)
	s.Equal(int64(2400), again.Receipt.TotalCents)
	s.Require().NotNil(again.Receipt.PaymentMethod)
	s.Equal("pix", *again.Receipt.PaymentMethod)
	s.Empty(again.Payments)

	rows, err := s.store.GetReceiptPayments(s.ctx, fin.ReceiptID)
	s.Require().NoError(err)
	s.Empty(rows)
	r, err := s.store.GetReceipt(s.ctx, fin.ReceiptID)
	s.Require().NoError(err)
	s.Equal("pix", models.Deref(r.PaymentMethod))
}

func (s *StoreTestSuite) TestFinalizeRejectsSplitWithoutPositiveParts() {
	_, err := s.store.SubmitOrder(s.ctx, 8, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	_, err = s.store.Finalize(s.ctx, 8, domain.Payment{Parts: []models.PaymentPart{{Method: "pix", AmountCents: 0}}})
	var validation *domain.ValidationError
	s.Require().ErrorAs(err, &validation)

	snap, err := s.store.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.ComandaOccupied, findComanda(snap, 8).Status)
	for _, o := range snap.Orders {
		s.False(o.IsClosed())
	}
}

// Заказ закрылся, пока добавление позиции ждало блокировку команды: позиция
// уходит в закрытый заказ как delivered, статус заказа не трогается
func (s *StoreTestSuite) TestAddItemRereadsOrderUnderLock() {
	res, err := s.store.SubmitOrder(s.ctx, 9, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	orderID := res.Order.ID

	holder := s.db.Begin()
	s.Require().NoError(holder.Error)
	_, err = lockComanda(holder, 9)
	s.Require().NoError(err)

	type added struct {
		item models.OrderItem
		err  error
	}
	done := make(chan added, 1)
	go func() {
		it, err := s.store.AddItemToOrder(s.ctx, orderID, models.CartLine{MenuItemID: 1, Quantity: 1})
		done <- added{it, err}
	}()

	s.Eventually(func() bool {
		var waiting int64
		s.db.Raw("SELECT count(*) FROM pg_stat_activity WHERE wait_event_type = 'Lock' AND datname = current_database()").Scan(&waiting)
		return waiting > 0
	}, 10*time.Second, 20*time.Millisecond)

	s.Require().NoError(holder.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"status":     models.OrderClosed,
		"closed_at":  time.Now().UTC(),
		"receipt_id": "C9-LOCKED",
	}).Error)
	s.Require().NoError(holder.Commit().Error)

	var got added
	select {
	case got = <-done:
	case <-time.After(10 * time.Second):
		s.FailNow("add item did not finish")
	}
	s.Require().NoError(got.err)
	s.Equal(models.ItemDelivered, got.item.Status)

	var order models.Order
	s.Require().NoError(s.db.First(&order, orderID).Error)
	s.Equal(models.OrderClosed, order.Status)
	s.NotNil(order.ClosedAt)
}

func (s *StoreTestSuite) TestUsers() {
	created, err := s.store.CreateFirstUser(s.ctx, models.User{Username: "admin", PasswordHash: "h1"})
	s.Require().NoError(err)
	s.True(created)
	created, err = s.store.CreateFirstUser(s.ctx, models.User{Username: "other", PasswordHash: "h2"})
	s.Require().NoError(err)
	s.False(created)

	n, err := s.store.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	s.Require().NoError(s.store.UpdatePasswordHash(s.ctx, "admin", "h3"))
	u, err := s.store.FindUser(s.ctx, "admin")
	s.Require().NoError(err)
	s.Equal("h3", u.PasswordHash)

	_, err = s.store.FindUser(s.ctx, "other")
	var nf *domain.NotFoundError
	s.ErrorAs(err, &nf)
	s.ErrorAs(s.store.UpdatePasswordHash(s.ctx, "other", "x"), &nf)
}

func (s *StoreTestSuite) TestCancelOpening() {
	_, err := s.store.SelectComanda(s.ctx, 7)
	s.Require().NoError(err)
	ok, err := s.store.CancelOpening(s.ctx, 7)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.store.SubmitOrder(s.ctx, 7, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	ok, err = s.store.CancelOpening(s.ctx, 7)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreTestSuite) TestComandaAdmin() {
	_, err := s.store.CreateComanda(s.ctx, 1)
	var conflict *domain.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(domain.CodeComandaNumberExists, conflict.Code)

	_, err = s.store.SubmitOrder(s.ctx, 2, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	s.Require().NoError(err)
	err = s.store.DeleteComanda(s.ctx, 2)
	s.Require().ErrorAs(err, &conflict)

	s.NoError(s.store.DeleteComanda(s.ctx, 20))
}

func (s *StoreTestSuite) TestDeleteCategoryMovesItems() {
	moved, err := s.store.DeleteCategory(s.ctx, "sobremesas")
	s.Require().NoError(err)
	s.Equal(2, moved)

	items, err := s.store.ListMenuItems(s.ctx)
	s.Require().NoError(err)
	for _, mi := range items {
		s.NotEqual("sobremesas", mi.Category)
	}

	_, err = s.store.DeleteCategory(s.ctx, models.FallbackCategoryID)
	var conflict *domain.ConflictError
	s.ErrorAs(err, &conflict)
}

func findComanda(snap *models.Snapshot, id int64) models.Comanda {
	for _, c := range snap.Comandas {
		if c.ID == id {
			return c
		}
	}
	return models.Comanda{}
}
