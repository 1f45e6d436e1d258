package client

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	mock_client "comandapos/server/internal/client/mock"
	"comandapos/server/internal/domain"
	"comandapos/server/internal/localsync"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/state"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

func testEngine() *pos.Engine {
	return pos.NewEngine(pos.WithClock(func() time.Time { return fixedNow }))
}

func newLocalClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Options{Mode: ModeLocal, Engine: testEngine()})
	require.NoError(t, err)
	return c
}

func newServerClient(t *testing.T, backend Backend, book *pos.Book, policy *Policy) *Client {
	t.Helper()
	if book == nil {
		book = pos.SeedBook()
	}
	c, err := New(Options{
		Mode:    ModeServer,
		Backend: backend,
		Engine:  testEngine(),
		State:   state.NewStore(book),
		Policy:  policy,
	})
	require.NoError(t, err)
	return c
}

func unavailable(op string) error {
	return &domain.BackendUnavailableError{Op: op, Err: errors.New("dial tcp: connection refused")}
}

func comandaOf(b *pos.Book, id int64) models.Comanda {
	for _, c := range b.Comandas {
		if c.ID == id {
			return c
		}
	}
	return models.Comanda{}
}

func TestNewRequiresBackendInServerMode(t *testing.T) {
	_, err := New(Options{Mode: ModeServer})
	assert.Error(t, err)
	_, err = New(Options{Mode: "cloud"})
	assert.Error(t, err)
}

func TestLocalModeComanda12(t *testing.T) {
	ctx := context.Background()
	c := newLocalClient(t)

	_, err := c.AddToCart(12, 1, pos.CartOptions{Quantity: 2})
	require.NoError(t, err)
	_, err = c.AddToCart(12, 5, pos.CartOptions{})
	require.NoError(t, err)

	res, notice, err := c.SubmitOrder(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Empty(t, c.Cart(12))
	assert.Equal(t, int64(5600), comandaOf(c.View(), 12).Total)
	assert.Equal(t, models.OrderPreparing, res.Order.Status)

	kitchen := res.Items[0]
	dlg, err := c.OpenPaymentDialog(12)
	require.NoError(t, err)
	_, _, err = c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	var blocked *domain.BlockedByKitchenError
	require.ErrorAs(t, err, &blocked)

	for _, st := range []models.ItemStatus{models.ItemPreparing, models.ItemReady} {
		_, _, err = c.SetItemStatus(ctx, kitchen.ID, st)
		require.NoError(t, err)
	}

	fin, _, err := c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, int64(5600), fin.Receipt.TotalCents)

	cm := comandaOf(c.View(), 12)
	assert.Equal(t, models.ComandaAvailable, cm.Status)
	assert.Zero(t, cm.Total)

	r, err := c.Receipt(ctx, fin.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, int64(5600), r.TotalCents)
}

func TestCancelOpeningClearsCart(t *testing.T) {
	ctx := context.Background()
	c := newLocalClient(t)

	_, _, err := c.SelectComanda(ctx, 10)
	require.NoError(t, err)
	_, err = c.AddToCart(10, 5, pos.CartOptions{Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Cart(10), 1)

	cancelled, _, err := c.CancelOpening(ctx, 10)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Empty(t, c.Cart(10))
	assert.Zero(t, c.ActiveComanda())
	assert.Equal(t, models.ComandaAvailable, comandaOf(c.View(), 10).Status)
}

func TestSplitMustMatchDialogTotal(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)

	book := pos.SeedBook()
	_, err := testEngine().SubmitOrder(book, 4, []models.CartLine{{MenuItemID: 6, Quantity: 5}})
	require.NoError(t, err)
	c := newServerClient(t, backend, book, nil)

	dlg, err := c.OpenPaymentDialog(4)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), dlg.TotalCents)

	// бэкенд не должен быть вызван: gomock упадет на неожиданном вызове
	_, _, err = c.FinalizeComanda(ctx, dlg, domain.Payment{Parts: []models.PaymentPart{
		{Method: "pix", AmountCents: 3000},
		{Method: "cash", AmountCents: 2000},
	}})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestServerModeReconcilesWithSnapshot(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)
	c := newServerClient(t, backend, nil, nil)

	_, err := c.AddToCart(3, 1, pos.CartOptions{})
	require.NoError(t, err)

	snap := pos.SeedBook().Snapshot
	snap.Comandas[2].Status = models.ComandaOccupied
	snap.Comandas[2].Total = 2500
	snap.Orders = []models.Order{{ID: 900, ComandaID: 3, Status: models.OrderPreparing, CreatedAt: fixedNow}}
	snap.OrderItems = []models.OrderItem{{
		ID: 901, OrderID: 900, MenuItemID: 1, Name: "Batata Frita", Price: 2500, Quantity: 1,
		Category: "porcoes", Status: models.ItemPending,
	}}

	gomock.InOrder(
		backend.EXPECT().SubmitOrder(gomock.Any(), int64(3), gomock.Len(1)).
			Return(&pos.SubmitResult{Order: snap.Orders[0], Items: snap.OrderItems}, nil),
		backend.EXPECT().Snapshot(gomock.Any()).Return(&snap, nil),
	)

	res, notice, err := c.SubmitOrder(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Equal(t, int64(900), res.Order.ID)

	view := c.View()
	require.Len(t, view.Orders, 1)
	assert.Equal(t, int64(900), view.Orders[0].ID, "серверные id заменили оптимистичные")
	assert.False(t, c.State().HasPending())
	assert.Empty(t, c.Cart(3))
}

func TestBackendUnreachableDuringSubmitAppliesLocally(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)
	c := newServerClient(t, backend, nil, nil)

	var seen []Notice
	c.OnNotice(func(n Notice) { seen = append(seen, n) })

	_, err := c.AddToCart(3, 1, pos.CartOptions{})
	require.NoError(t, err)
	backend.EXPECT().SubmitOrder(gomock.Any(), int64(3), gomock.Any()).Return(nil, unavailable(OpSubmitOrder))

	res, notice, err := c.SubmitOrder(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.True(t, notice.AppliedLocally)
	assert.Equal(t, OpSubmitOrder, notice.Op)
	assert.NotZero(t, res.Order.ID, "локальный id")
	require.Len(t, seen, 1)

	cm := comandaOf(c.View(), 3)
	assert.Equal(t, models.ComandaOccupied, cm.Status)
	assert.Equal(t, int64(2500), cm.Total)
	assert.False(t, c.State().HasPending())
	assert.Empty(t, c.Cart(3))
}

func TestFinalizeRefusesFallback(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)

	book := pos.SeedBook()
	_, err := testEngine().SubmitOrder(book, 4, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	require.NoError(t, err)
	c := newServerClient(t, backend, book, nil)

	backend.EXPECT().Finalize(gomock.Any(), int64(4), gomock.Any()).Return(nil, unavailable(OpFinalize))

	dlg, err := c.OpenPaymentDialog(4)
	require.NoError(t, err)
	_, notice, err := c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	var blocked *domain.PolicyBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, OpFinalize, blocked.Op)
	assert.Nil(t, notice)

	cm := comandaOf(c.View(), 4)
	assert.Equal(t, models.ComandaOccupied, cm.Status)
	assert.Equal(t, int64(600), cm.Total)
	assert.False(t, c.State().HasPending())
	assert.Empty(t, c.View().Receipts)
}

func TestGlobalSwitchDisablesFallback(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)
	policy := DefaultPolicy()
	policy.AllowLocalFallback = false
	c := newServerClient(t, backend, nil, &policy)

	_, err := c.AddToCart(7, 8, pos.CartOptions{})
	require.NoError(t, err)
	backend.EXPECT().SubmitOrder(gomock.Any(), int64(7), gomock.Any()).Return(nil, unavailable(OpSubmitOrder))

	_, _, err = c.SubmitOrder(ctx, 7)
	var blocked *domain.PolicyBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Len(t, c.Cart(7), 1, "корзина сохранена")
	assert.Equal(t, models.ComandaAvailable, comandaOf(c.View(), 7).Status)
}

func TestBackendValidationIsNotReplayed(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_client.NewMockBackend(ctrl)

	book := pos.SeedBook()
	res, err := testEngine().SubmitOrder(book, 2, []models.CartLine{{MenuItemID: 1, Quantity: 1}})
	require.NoError(t, err)
	c := newServerClient(t, backend, book, nil)

	itemID := res.Items[0].ID
	backend.EXPECT().SetItemStatus(gomock.Any(), itemID, models.ItemPreparing).
		Return(models.OrderItem{}, &domain.ValidationError{Code: domain.CodeValidation, Message: "недопустимый переход"})

	_, notice, err := c.SetItemStatus(ctx, itemID, models.ItemPreparing)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Nil(t, notice)
	assert.False(t, c.State().HasPending(), "оптимистичная правка откатана")
	for _, it := range c.View().OrderItems {
		if it.ID == itemID {
			assert.Equal(t, models.ItemPending, it.Status)
		}
	}
}

func TestLocalModePersistsAndSignalsSiblings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	bus := localsync.NewMemoryBus()

	newTab := func() *Client {
		c, err := New(Options{
			Mode:   ModeLocal,
			Engine: testEngine(),
			Files:  localsync.NewFileStore(path),
			Sync:   localsync.NewSync(10*time.Millisecond, bus),
		})
		require.NoError(t, err)
		require.NoError(t, c.Boot(ctx))
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	a := newTab()
	b := newTab()

	var changed atomic.Int32
	b.State().Subscribe(func(uint64) { changed.Add(1) })

	_, err := a.AddToCart(9, 9, pos.CartOptions{})
	require.NoError(t, err)
	_, _, err = a.SubmitOrder(ctx, 9)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return comandaOf(b.View(), 9).Total == 2200
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, changed.Load())

	// новый процесс поднимается из файла
	c := newTab()
	assert.Equal(t, int64(2200), comandaOf(c.View(), 9).Total)
}
