package pos

import (
	"errors"
	"testing"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	now    time.Time
	engine *Engine
	book   *Book
}

func (s *EngineTestSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	s.engine = NewEngine(WithClock(func() time.Time {
		s.now = s.now.Add(time.Second)
		return s.now
	}))
	s.book = SeedBook()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) comanda(id int64) models.Comanda {
	c := s.book.comanda(id)
	require.NotNil(s.T(), c)
	return *c
}

func (s *EngineTestSuite) submit(comandaID int64, lines ...models.CartLine) *SubmitResult {
	res, err := s.engine.SubmitOrder(s.book, comandaID, lines)
	require.NoError(s.T(), err)
	return res
}

func (s *EngineTestSuite) assertTotalConsistent(comandaID int64) {
	c := s.comanda(comandaID)
	require.Equal(s.T(), domain.ComputeTotal(comandaID, s.book.Orders, s.book.OrderItems), c.Total)
}

// Команда 12: 2x Batata (кухня, 2500) + 1x Coca (600) -> 5600, preparing -> ready -> закрытие
func (s *EngineTestSuite) TestComanda12Scenario() {
	res := s.submit(12, models.CartLine{MenuItemID: 1, Quantity: 2}, models.CartLine{MenuItemID: 5, Quantity: 1})
	require.Equal(s.T(), models.OrderPreparing, res.Order.Status)
	require.Len(s.T(), res.Items, 2)
	require.Equal(s.T(), models.ItemPending, res.Items[0].Status)
	require.Equal(s.T(), models.ItemDelivered, res.Items[1].Status)

	c := s.comanda(12)
	require.Equal(s.T(), models.ComandaOccupied, c.Status)
	require.Equal(s.T(), int64(5600), c.Total)

	// пока кухня не отдала, закрыть нельзя
	_, err := s.engine.Finalize(s.book, 12, domain.Payment{Method: "pix"})
	var blocked *domain.BlockedByKitchenError
	require.True(s.T(), errors.As(err, &blocked))
	require.Equal(s.T(), 1, blocked.Pending)
	require.Equal(s.T(), int64(5600), s.comanda(12).Total)

	kitchenItem := res.Items[0].ID
	_, err = s.engine.SetItemStatus(s.book, kitchenItem, models.ItemPreparing)
	require.NoError(s.T(), err)
	_, err = s.engine.SetItemStatus(s.book, kitchenItem, models.ItemReady)
	require.NoError(s.T(), err)
	require.Equal(s.T(), models.OrderReady, s.book.order(res.Order.ID).Status)

	fin, err := s.engine.Finalize(s.book, 12, domain.Payment{Method: "pix"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(5600), fin.Receipt.TotalCents)
	require.Equal(s.T(), "pix", models.Deref(fin.Receipt.PaymentMethod))
	require.Equal(s.T(), 12, *fin.Receipt.ComandaNumber)

	c = s.comanda(12)
	require.Equal(s.T(), models.ComandaAvailable, c.Status)
	require.Equal(s.T(), int64(0), c.Total)

	order := s.book.order(res.Order.ID)
	require.Equal(s.T(), models.OrderClosed, order.Status)
	require.Equal(s.T(), fin.ReceiptID, models.Deref(order.ReceiptID))
	for _, it := range s.book.itemsOf(order.ID) {
		require.Equal(s.T(), models.ItemDelivered, it.Status)
	}
}

func (s *EngineTestSuite) TestSubmitReusesActiveOrder() {
	first := s.submit(3, models.CartLine{MenuItemID: 5, Quantity: 1})
	second := s.submit(3, models.CartLine{MenuItemID: 6, Quantity: 2})
	require.Equal(s.T(), first.Order.ID, second.Order.ID)
	require.Equal(s.T(), int64(600+2400), s.comanda(3).Total)
	require.Equal(s.T(), models.OrderOpen, s.book.order(first.Order.ID).Status)
}

func (s *EngineTestSuite) TestSubmitValidationIsAtomic() {
	s.submit(4, models.CartLine{MenuItemID: 5, Quantity: 1})
	before := s.book.Clone()

	_, err := s.engine.SubmitOrder(s.book, 4, []models.CartLine{
		{MenuItemID: 6, Quantity: 1},
		{MenuItemID: 999, Quantity: 1},
	})
	var nf *domain.NotFoundError
	require.True(s.T(), errors.As(err, &nf))
	require.Equal(s.T(), before.OrderItems, s.book.OrderItems)

	_, err = s.engine.SubmitOrder(s.book, 4, nil)
	var vErr *domain.ValidationError
	require.True(s.T(), errors.As(err, &vErr))

	_, err = s.engine.UpdateMenuItem(s.book, 6, models.MenuItemPatch{Available: boolPtr(false)})
	require.NoError(s.T(), err)
	_, err = s.engine.SubmitOrder(s.book, 4, []models.CartLine{{MenuItemID: 6, Quantity: 1}})
	require.True(s.T(), errors.As(err, &vErr))
}

// Отмена и повторное добавление не ломают сумму
func (s *EngineTestSuite) TestTotalAfterCancelAndReAdd() {
	res := s.submit(5, models.CartLine{MenuItemID: 1, Quantity: 1}, models.CartLine{MenuItemID: 2, Quantity: 1})
	s.assertTotalConsistent(5)
	require.Equal(s.T(), int64(6000), s.comanda(5).Total)

	_, err := s.engine.SetItemStatus(s.book, res.Items[0].ID, models.ItemCanceled)
	require.NoError(s.T(), err)
	s.assertTotalConsistent(5)
	require.Equal(s.T(), int64(3500), s.comanda(5).Total)

	s.submit(5, models.CartLine{MenuItemID: 1, Quantity: 1})
	s.assertTotalConsistent(5)
	require.Equal(s.T(), int64(6000), s.comanda(5).Total)

	_, err = s.engine.UpdateItemQuantity(s.book, res.Items[1].ID, 3)
	require.NoError(s.T(), err)
	s.assertTotalConsistent(5)
	require.Equal(s.T(), int64(2500+3*3500), s.comanda(5).Total)

	deleted, err := s.engine.UpdateItemQuantity(s.book, res.Items[1].ID, 0)
	require.NoError(s.T(), err)
	require.Nil(s.T(), deleted)
	s.assertTotalConsistent(5)
	require.Equal(s.T(), int64(2500), s.comanda(5).Total)
}

func (s *EngineTestSuite) TestInvalidTransitionDoesNotMutate() {
	res := s.submit(6, models.CartLine{MenuItemID: 1, Quantity: 1})
	_, err := s.engine.SetItemStatus(s.book, res.Items[0].ID, models.ItemReady)
	var vErr *domain.ValidationError
	require.True(s.T(), errors.As(err, &vErr))
	require.Equal(s.T(), models.ItemPending, s.book.item(res.Items[0].ID).Status)

	_, err = s.engine.SetItemStatus(s.book, 4242, models.ItemReady)
	var nf *domain.NotFoundError
	require.True(s.T(), errors.As(err, &nf))
}

func (s *EngineTestSuite) TestCancelOpening() {
	_, err := s.engine.SelectComanda(s.book, 8)
	require.NoError(s.T(), err)
	require.Equal(s.T(), models.ComandaOccupied, s.comanda(8).Status)

	// пустой открытый заказ (все позиции отменены)
	res := s.submit(8, models.CartLine{MenuItemID: 1, Quantity: 1})
	_, err = s.engine.SetItemStatus(s.book, res.Items[0].ID, models.ItemCanceled)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(0), s.comanda(8).Total)

	ok, err := s.engine.CancelOpening(s.book, 8)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	require.Equal(s.T(), models.ComandaAvailable, s.comanda(8).Status)
	require.Equal(s.T(), models.OrderClosed, s.book.order(res.Order.ID).Status)
	require.Empty(s.T(), domain.OpenOrders(8, s.book.Orders))
}

func (s *EngineTestSuite) TestCancelOpeningIsNoopWithTotal() {
	s.submit(9, models.CartLine{MenuItemID: 5, Quantity: 1})
	before := s.book.Clone()

	ok, err := s.engine.CancelOpening(s.book, 9)
	require.NoError(s.T(), err)
	require.False(s.T(), ok)
	require.Equal(s.T(), before.Snapshot, s.book.Snapshot)

	// свободная команда тоже no-op
	ok, err = s.engine.CancelOpening(s.book, 10)
	require.NoError(s.T(), err)
	require.False(s.T(), ok)
}

func (s *EngineTestSuite) TestSplitPaymentsIdempotent() {
	s.submit(11, models.CartLine{MenuItemID: 5, Quantity: 1}, models.CartLine{MenuItemID: 9, Quantity: 1})
	parts := []models.PaymentPart{{Method: "pix", AmountCents: 2000}, {Method: "Dinheiro", AmountCents: 800}}
	require.NoError(s.T(), domain.ValidateSplit(parts, s.comanda(11).Total))

	fin, err := s.engine.Finalize(s.book, 11, domain.Payment{Parts: parts})
	require.NoError(s.T(), err)
	require.Nil(s.T(), fin.Receipt.PaymentMethod)
	require.Len(s.T(), fin.Payments, 2)
	require.Nil(s.T(), s.book.order(1).PaymentMethod)

	first, rows, err := s.engine.UpsertPayments(s.book, fin.ReceiptID, parts)
	require.NoError(s.T(), err)
	require.Len(s.T(), rows, 2)
	second, _, err := s.engine.UpsertPayments(s.book, fin.ReceiptID, parts)
	require.NoError(s.T(), err)
	require.Equal(s.T(), first.TotalCents, second.TotalCents)
	require.Equal(s.T(), first.PaymentMethod, second.PaymentMethod)
	require.Equal(s.T(), int64(2800), second.TotalCents)

	// замена на один метод
	single, rows, err := s.engine.UpsertPayments(s.book, fin.ReceiptID, []models.PaymentPart{{Method: "credito", AmountCents: 2800}})
	require.NoError(s.T(), err)
	require.Len(s.T(), rows, 1)
	require.Equal(s.T(), "credito", models.Deref(single.PaymentMethod))

	_, _, err = s.engine.UpsertPayments(s.book, "C99-NOPE", parts)
	var nf *domain.NotFoundError
	require.True(s.T(), errors.As(err, &nf))
}

func (s *EngineTestSuite) TestReopenReceiptKeepsReceiptID() {
	res := s.submit(13, models.CartLine{MenuItemID: 5, Quantity: 2})
	fin, err := s.engine.Finalize(s.book, 13, domain.Payment{Method: "pix"})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.engine.ReopenReceipt(s.book, fin.ReceiptID))
	c := s.comanda(13)
	require.Equal(s.T(), models.ComandaOccupied, c.Status)
	require.Equal(s.T(), int64(1200), c.Total)

	s.submit(13, models.CartLine{MenuItemID: 8, Quantity: 1})
	again, err := s.engine.Finalize(s.book, 13, domain.Payment{Method: "pix"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), fin.ReceiptID, again.ReceiptID)
	require.Equal(s.T(), int64(1600), again.Receipt.TotalCents)
	require.Equal(s.T(), fin.ReceiptID, models.Deref(s.book.order(res.Order.ID).ReceiptID))
}

// Разбивка переоткрытого чека заменяется одним методом: старые части удаляются
func (s *EngineTestSuite) TestRefinalizeSplitReceiptWithSingleMethod() {
	s.submit(15, models.CartLine{MenuItemID: 5, Quantity: 2})
	fin, err := s.engine.Finalize(s.book, 15, domain.Payment{Parts: []models.PaymentPart{
		{Method: "pix", AmountCents: 600},
		{Method: "cash", AmountCents: 600},
	}})
	require.NoError(s.T(), err)
	require.Len(s.T(), s.engine.ReceiptPayments(s.book, fin.ReceiptID), 2)

	require.NoError(s.T(), s.engine.ReopenReceipt(s.book, fin.ReceiptID))
	s.submit(15, models.CartLine{MenuItemID: 6, Quantity: 1})
	again, err := s.engine.Finalize(s.book, 15, domain.Payment{Method: "pix"})
	require.NoError(s.T(), err)

	require.Equal(s.T(), fin.ReceiptID, again.ReceiptID)
	require.Equal(s.T(), int64(2400), again.Receipt.TotalCents)
	require.Equal(s.T(), "pix", models.Deref(again.Receipt.PaymentMethod))
	require.Empty(s.T(), again.Payments)
	require.Empty(s.T(), s.engine.ReceiptPayments(s.book, fin.ReceiptID))
	require.Equal(s.T(), "pix", models.Deref(s.book.Receipts[fin.ReceiptID].PaymentMethod))
}

func (s *EngineTestSuite) TestFinalizeRejectsSplitWithoutPositiveParts() {
	s.submit(16, models.CartLine{MenuItemID: 5, Quantity: 1})
	_, err := s.engine.Finalize(s.book, 16, domain.Payment{Parts: []models.PaymentPart{
		{Method: "pix", AmountCents: 0},
		{Method: "", AmountCents: 600},
	}})
	var validation *domain.ValidationError
	require.True(s.T(), errors.As(err, &validation))

	c := s.comanda(16)
	require.Equal(s.T(), models.ComandaOccupied, c.Status)
	require.Equal(s.T(), int64(600), c.Total)
	require.Empty(s.T(), s.book.Receipts)
}

func (s *EngineTestSuite) TestAddItemToClosedOrder() {
	res := s.submit(14, models.CartLine{MenuItemID: 5, Quantity: 1})
	fin, err := s.engine.Finalize(s.book, 14, domain.Payment{Method: "dinheiro"})
	require.NoError(s.T(), err)

	it, err := s.engine.AddItemToOrder(s.book, res.Order.ID, models.CartLine{MenuItemID: 1, Quantity: 1})
	require.NoError(s.T(), err)
	require.Equal(s.T(), models.ItemDelivered, it.Status)
	require.Equal(s.T(), int64(3100), s.book.Receipts[fin.ReceiptID].TotalCents)
	require.Equal(s.T(), int64(0), s.comanda(14).Total)
}

func (s *EngineTestSuite) TestComandaAdmin() {
	_, err := s.engine.AddComanda(s.book, 12)
	var conflict *domain.ConflictError
	require.True(s.T(), errors.As(err, &conflict))
	require.Equal(s.T(), domain.CodeComandaNumberExists, conflict.Code)

	c, err := s.engine.AddComanda(s.book, 21)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(21), c.ID)
	require.NoError(s.T(), s.engine.DeleteComanda(s.book, c.ID))

	s.submit(2, models.CartLine{MenuItemID: 5, Quantity: 1})
	err = s.engine.DeleteComanda(s.book, 2)
	require.True(s.T(), errors.As(err, &conflict))
	require.Equal(s.T(), domain.CodeComandaNotDeletable, conflict.Code)

	_, err = s.engine.Finalize(s.book, 2, domain.Payment{Method: "pix"})
	require.NoError(s.T(), err)
	err = s.engine.DeleteComanda(s.book, 2)
	require.True(s.T(), errors.As(err, &conflict))
	require.Equal(s.T(), domain.CodeComandaHasOrders, conflict.Code)
}

func (s *EngineTestSuite) TestDeleteCategoryReassigns() {
	moved, err := s.engine.DeleteCategory(s.book, "bebidas")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 4, moved)
	for _, m := range s.book.MenuItems {
		require.NotEqual(s.T(), "bebidas", m.Category)
	}
	_, ok := domain.FindCategory("bebidas", s.book.Categories)
	require.False(s.T(), ok)

	_, err = s.engine.DeleteCategory(s.book, models.FallbackCategoryID)
	var conflict *domain.ConflictError
	require.True(s.T(), errors.As(err, &conflict))
	_, ok = domain.FindCategory(models.FallbackCategoryID, s.book.Categories)
	require.True(s.T(), ok)
}

func (s *EngineTestSuite) TestUpsertCategoryKitchenFlag() {
	_, err := s.engine.UpsertCategory(s.book, models.Category{ID: "Lanches", SendToKitchen: true})
	require.NoError(s.T(), err)
	cat, ok := domain.FindCategory("lanches", s.book.Categories)
	require.True(s.T(), ok)
	require.Equal(s.T(), "Lanches", cat.Label)
	require.True(s.T(), cat.SendToKitchen)

	res := s.submit(15, models.CartLine{MenuItemID: 9, Quantity: 1})
	require.Equal(s.T(), models.ItemPending, res.Items[0].Status)
}

func boolPtr(b bool) *bool {
	return &b
}
