package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"comandapos/server/internal/api"
	"comandapos/server/internal/auth"
	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
	"comandapos/server/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, interface{}) {}

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := api.NewRouter(api.RouterDeps{
		Storage:  store.NewMemoryStore(pos.SeedBook(), testEngine()),
		Notifier: nopNotifier{},
		Hub:      api.NewHub(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPBackendMapsErrors(t *testing.T) {
	ctx := context.Background()
	srv := newBackendServer(t)
	b := NewHTTPBackend(srv.URL, time.Second)

	_, err := b.SetItemStatus(ctx, 9999, models.ItemReady)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = b.CreateComanda(ctx, 1)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.CodeComandaNumberExists, conflict.Code)

	_, err = b.SubmitOrder(ctx, 1, nil)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	res, err := b.SubmitOrder(ctx, 2, []models.CartLine{{MenuItemID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = b.Finalize(ctx, 2, domain.Payment{Method: "cash"})
	var blocked *domain.BlockedByKitchenError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, int64(2), blocked.ComandaID)
	assert.Equal(t, 1, blocked.Pending)

	item, err := b.UpdateItemQuantity(ctx, res.Items[0].ID, 3)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 3, item.Quantity)
	item, err = b.UpdateItemQuantity(ctx, res.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestHTTPBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPBackend(url, time.Second).Snapshot(context.Background())
	var unavailable *domain.BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, OpSnapshot, unavailable.Op)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer gateway.Close()
	_, err = NewHTTPBackend(gateway.URL, time.Second).Snapshot(context.Background())
	assert.ErrorAs(t, err, &unavailable)
}

func TestServerModeEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newBackendServer(t)
	c := newServerClient(t, NewHTTPBackend(srv.URL, time.Second), &pos.Book{}, nil)
	require.NoError(t, c.Boot(ctx))
	require.Len(t, c.View().Comandas, 20)

	_, err := c.AddToCart(12, 1, pos.CartOptions{Quantity: 2})
	require.NoError(t, err)
	_, err = c.AddToCart(12, 5, pos.CartOptions{})
	require.NoError(t, err)
	res, notice, err := c.SubmitOrder(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Equal(t, int64(5600), comandaOf(c.View(), 12).Total)

	dlg, err := c.OpenPaymentDialog(12)
	require.NoError(t, err)
	_, _, err = c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	var blocked *domain.BlockedByKitchenError
	require.ErrorAs(t, err, &blocked)

	for _, st := range []models.ItemStatus{models.ItemPreparing, models.ItemReady} {
		_, _, err = c.SetItemStatus(ctx, res.Items[0].ID, st)
		require.NoError(t, err)
	}
	fin, _, err := c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fin.ReceiptID, "C12-"))
	assert.Equal(t, models.ComandaAvailable, comandaOf(c.View(), 12).Status)

	r, err := c.Receipt(ctx, fin.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, int64(5600), r.TotalCents)

	// сервер пропал: заказ применяется локально, закрытие запрещено
	srv.Close()
	_, err = c.AddToCart(5, 5, pos.CartOptions{})
	require.NoError(t, err)
	_, notice, err = c.SubmitOrder(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.True(t, notice.AppliedLocally)

	dlg, err = c.OpenPaymentDialog(5)
	require.NoError(t, err)
	_, _, err = c.FinalizeComanda(ctx, dlg, domain.Payment{Method: "cash"})
	var policy *domain.PolicyBlockedError
	assert.ErrorAs(t, err, &policy)
}

func TestHTTPBackendLogin(t *testing.T) {
	ctx := context.Background()
	gin.SetMode(gin.TestMode)
	svc, err := auth.NewService(auth.NewMemoryUsers(), auth.Options{
		Secret:     "Zq8vN3kLw0pR5tY7uI9oA2sD4fG6hJ1x",
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Bootstrap(ctx, "admin"))
	srv := httptest.NewServer(api.NewRouter(api.RouterDeps{
		Storage:     store.NewMemoryStore(pos.SeedBook(), testEngine()),
		Notifier:    nopNotifier{},
		Hub:         api.NewHub(),
		Auth:        svc,
		AuthLimiter: auth.NewLimiter(8, time.Minute),
	}))
	t.Cleanup(srv.Close)
	b := NewHTTPBackend(srv.URL, time.Second)

	_, err = b.CreateComanda(ctx, 31)
	var unauth *domain.UnauthorizedError
	require.ErrorAs(t, err, &unauth)

	_, err = b.Login(ctx, "admin", "wrong")
	require.ErrorAs(t, err, &unauth)
	assert.Empty(t, b.Token())

	exp, err := b.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	assert.NotEmpty(t, b.Token())

	created, err := b.CreateComanda(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, 31, created.Number)

	// операции зала работают и без токена
	b.SetToken("")
	_, err = b.SubmitOrder(ctx, 4, []models.CartLine{{MenuItemID: 5, Quantity: 1}})
	assert.NoError(t, err)
}
