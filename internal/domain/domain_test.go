package domain

import (
	"errors"
	"testing"
	"time"

	"comandapos/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCategories = []models.Category{
	{ID: "porcoes", Label: "Porções", SendToKitchen: true},
	{ID: "bebidas", Label: "Bebidas"},
	{ID: "buffet_kg", Label: "Buffet", VariablePrice: true},
}

func TestIsKitchenCategory(t *testing.T) {
	assert.True(t, IsKitchenCategory("porcoes", testCategories))
	assert.False(t, IsKitchenCategory("bebidas", testCategories))
	// неизвестная категория: на кухню идет только legacy porcoes
	assert.True(t, IsKitchenCategory("porcoes", nil))
	assert.False(t, IsKitchenCategory("lanches", nil))

	// явный флаг важнее legacy id
	off := []models.Category{{ID: "porcoes", Label: "Porções", SendToKitchen: false}}
	assert.False(t, IsKitchenCategory("porcoes", off))
}

func TestIsKitchenBlocking(t *testing.T) {
	cases := []struct {
		category string
		status   models.ItemStatus
		want     bool
	}{
		{"porcoes", models.ItemPending, true},
		{"porcoes", models.ItemPreparing, true},
		{"porcoes", models.ItemReady, false},
		{"porcoes", models.ItemCanceled, false},
		{"bebidas", models.ItemPending, false},
	}
	for _, c := range cases {
		item := models.OrderItem{Category: c.category, Status: c.status}
		assert.Equal(t, c.want, IsKitchenBlocking(item, testCategories), "%s/%s", c.category, c.status)
	}
}

func TestComputeTotal(t *testing.T) {
	orders := []models.Order{
		{ID: 1, ComandaID: 12, Status: models.OrderPreparing},
		{ID: 2, ComandaID: 12, Status: models.OrderClosed},
		{ID: 3, ComandaID: 7, Status: models.OrderOpen},
	}
	items := []models.OrderItem{
		{ID: 1, OrderID: 1, Price: 2500, Quantity: 2, Status: models.ItemPending},
		{ID: 2, OrderID: 1, Price: 600, Quantity: 1, Status: models.ItemDelivered},
		{ID: 3, OrderID: 1, Price: 9999, Quantity: 1, Status: models.ItemCanceled},
		{ID: 4, OrderID: 2, Price: 1000, Quantity: 1, Status: models.ItemDelivered},
		{ID: 5, OrderID: 3, Price: 400, Quantity: 3, Status: models.ItemDelivered},
	}
	assert.Equal(t, int64(5600), ComputeTotal(12, orders, items))
	assert.Equal(t, int64(1200), ComputeTotal(7, orders, items))
	assert.Equal(t, int64(0), ComputeTotal(99, orders, items))
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.ItemStatus{
		{models.ItemPending, models.ItemPreparing},
		{models.ItemPending, models.ItemCanceled},
		{models.ItemPreparing, models.ItemPending},
		{models.ItemPreparing, models.ItemReady},
		{models.ItemPreparing, models.ItemCanceled},
		{models.ItemReady, models.ItemCanceled},
		{models.ItemReady, models.ItemReady},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
	denied := [][2]models.ItemStatus{
		{models.ItemPending, models.ItemReady},
		{models.ItemReady, models.ItemPending},
		{models.ItemReady, models.ItemDelivered},
		{models.ItemDelivered, models.ItemCanceled},
		{models.ItemCanceled, models.ItemPending},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	var vErr *ValidationError
	require.True(t, errors.As(CheckTransition(models.ItemPending, "cooking"), &vErr))
	require.True(t, errors.As(CheckTransition(models.ItemDelivered, models.ItemPending), &vErr))
}

func TestDeriveOrderStatus(t *testing.T) {
	item := func(s models.ItemStatus) models.OrderItem { return models.OrderItem{Status: s} }

	assert.Equal(t, models.OrderPreparing, DeriveOrderStatus([]models.OrderItem{item(models.ItemReady), item(models.ItemPending)}))
	assert.Equal(t, models.OrderReady, DeriveOrderStatus([]models.OrderItem{item(models.ItemReady), item(models.ItemDelivered)}))
	assert.Equal(t, models.OrderOpen, DeriveOrderStatus([]models.OrderItem{item(models.ItemDelivered), item(models.ItemCanceled)}))
	assert.Equal(t, models.OrderOpen, DeriveOrderStatus(nil))
}

func TestNewReceiptID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewReceiptID(12, now)
	assert.Equal(t, "C12-LOYW3V28", id)
	require.NoError(t, ValidateReceiptID(id))
}

func TestSanitizeAndResolvePayments(t *testing.T) {
	parts := []models.PaymentPart{
		{Method: "  PIX ", AmountCents: 3000},
		{Method: "dinheiro", AmountCents: 0},
		{Method: "", AmountCents: 100},
		{Method: "Credito", AmountCents: 2600},
	}
	clean := SanitizePayments(parts)
	require.Len(t, clean, 2)
	assert.Equal(t, "pix", clean[0].Method)
	assert.Equal(t, int64(5600), SumPayments(clean))
	assert.Nil(t, ResolvePaymentMethod(clean))

	single := ResolvePaymentMethod([]models.PaymentPart{{Method: "pix", AmountCents: 1}, {Method: "pix", AmountCents: 2}})
	require.NotNil(t, single)
	assert.Equal(t, "pix", *single)
}

func TestValidateSplit(t *testing.T) {
	parts := []models.PaymentPart{{Method: "pix", AmountCents: 3000}, {Method: "dinheiro", AmountCents: 2600}}
	require.NoError(t, ValidateSplit(parts, 5600))

	var vErr *ValidationError
	require.True(t, errors.As(ValidateSplit(parts, 5700), &vErr))
	require.True(t, errors.As(ValidateSplit(nil, 0), &vErr))

	tooBig := []models.PaymentPart{{Method: "pix", AmountCents: MaxReceiptPaymentCents + 1}}
	require.True(t, errors.As(ValidateSplit(tooBig, MaxReceiptPaymentCents+1), &vErr))
}

func TestResolveLine(t *testing.T) {
	batata := models.MenuItem{ID: 1, Name: "Batata Frita", Category: "porcoes", Price: 2500, Available: true}
	it, err := ResolveLine(models.CartLine{MenuItemID: 1, Quantity: 2}, batata, testCategories)
	require.NoError(t, err)
	assert.Equal(t, models.ItemPending, it.Status)
	assert.Equal(t, int64(2500), it.Price)

	// цена из корзины игнорируется для обычных категорий
	forged := int64(1)
	it, err = ResolveLine(models.CartLine{MenuItemID: 1, Quantity: 1, PriceOverride: &forged}, batata, testCategories)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), it.Price)

	buffet := models.MenuItem{ID: 100, Name: "Buffet por kg", Category: "buffet_kg", Available: true}
	_, err = ResolveLine(models.CartLine{MenuItemID: 100, Quantity: 1}, buffet, testCategories)
	require.Error(t, err)

	price := int64(3275)
	it, err = ResolveLine(models.CartLine{MenuItemID: 100, Quantity: 1, PriceOverride: &price, DisplayName: "Buffet 0,655kg"}, buffet, testCategories)
	require.NoError(t, err)
	assert.Equal(t, price, it.Price)
	assert.Equal(t, "Buffet 0,655kg", it.Name)
	assert.Equal(t, models.ItemDelivered, it.Status)

	batata.Available = false
	_, err = ResolveLine(models.CartLine{MenuItemID: 1, Quantity: 1}, batata, testCategories)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestBuildReceipt(t *testing.T) {
	rid := "C12-ABC"
	t1 := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	orders := []models.Order{
		{ID: 1, ComandaID: 12, Status: models.OrderClosed, ClosedAt: &t1, ReceiptID: &rid, PaymentMethod: models.StringPtr("pix")},
		{ID: 2, ComandaID: 12, Status: models.OrderClosed, ClosedAt: &t2, ReceiptID: &rid, PaymentMethod: models.StringPtr("pix")},
		{ID: 3, ComandaID: 12, Status: models.OrderClosed, ClosedAt: &t2, ReceiptID: models.StringPtr("other")},
	}
	items := []models.OrderItem{
		{OrderID: 1, Price: 2500, Quantity: 2, Status: models.ItemDelivered},
		{OrderID: 2, Price: 600, Quantity: 1, Status: models.ItemDelivered},
		{OrderID: 2, Price: 800, Quantity: 1, Status: models.ItemCanceled},
		{OrderID: 3, Price: 100, Quantity: 1, Status: models.ItemDelivered},
	}
	comanda := &models.Comanda{ID: 12, Number: 12}

	r := BuildReceipt(rid, orders, items, comanda, nil)
	assert.Equal(t, int64(5600), r.TotalCents)
	assert.Equal(t, t2, r.ClosedAt)
	require.NotNil(t, r.PaymentMethod)
	assert.Equal(t, "pix", *r.PaymentMethod)
	assert.Equal(t, 12, *r.ComandaNumber)

	split := BuildReceipt(rid, orders, items, comanda, []models.PaymentPart{{Method: "pix", AmountCents: 1}, {Method: "debito", AmountCents: 1}})
	assert.Nil(t, split.PaymentMethod)
}

func TestNormalizeCategoryID(t *testing.T) {
	id, err := NormalizeCategoryID(" Porcoes ")
	require.NoError(t, err)
	assert.Equal(t, "porcoes", id)

	_, err = NormalizeCategoryID("bad id!")
	require.Error(t, err)
}
