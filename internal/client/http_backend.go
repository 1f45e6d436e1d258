package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"comandapos/server/internal/domain"
	"comandapos/server/internal/models"
	"comandapos/server/internal/pos"
)

// HTTPBackend ходит в /api сервера
type HTTPBackend struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string // Bearer для защищенных маршрутов
}

// NewHTTPBackend создает клиента; timeout <= 0 - 8 секунд
func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// errorResponse - конверт ошибки сервера
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Pending int    `json:"pending"`
}

func (b *HTTPBackend) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := b.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return ctx.Err()
		}
		return &domain.BackendUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.BackendUnavailableError{Op: op, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(op, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// decodeError - обратное отображение статусов сервера в доменные ошибки
func decodeError(op, path string, status int, body []byte) error {
	var e errorResponse
	_ = json.Unmarshal(body, &e)
	if e.Error == "" {
		e.Error = http.StatusText(status)
	}
	switch {
	case status == http.StatusBadRequest:
		code := e.Code
		if code == "" {
			code = domain.CodeValidation
		}
		return &domain.ValidationError{Code: code, Message: e.Error}
	case status == http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: e.Error}
	case status == http.StatusNotFound:
		return &domain.NotFoundError{Entity: "ресурс", ID: path}
	case status == http.StatusConflict && e.Code == domain.CodeBlockedByKitchen:
		return &domain.BlockedByKitchenError{Pending: e.Pending}
	case status == http.StatusConflict:
		return &domain.ConflictError{Code: e.Code, Message: e.Error}
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		// прокси жив, сервера за ним нет
		return &domain.BackendUnavailableError{Op: op, Err: fmt.Errorf("status %d", status)}
	}
	return fmt.Errorf("%s: backend error (status %d): %s", op, status, e.Error)
}

// SetToken задает токен для следующих запросов
func (b *HTTPBackend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

// Token - текущий токен
func (b *HTTPBackend) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// Login получает токен администратора и запоминает его
func (b *HTTPBackend) Login(ctx context.Context, username, password string) (time.Time, error) {
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := b.do(ctx, "login", http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return time.Time{}, err
	}
	b.SetToken(resp.Token)
	return resp.ExpiresAt, nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, strconv.FormatInt(id, 10))
}

func (b *HTTPBackend) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := b.do(ctx, OpSnapshot, http.MethodGet, "/api/state", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (b *HTTPBackend) SelectComanda(ctx context.Context, comandaID int64) (models.Comanda, error) {
	var c models.Comanda
	err := b.do(ctx, OpSelectComanda, http.MethodPut, idPath("/api/comandas/%s", comandaID),
		map[string]models.ComandaStatus{"status": models.ComandaOccupied}, &c)
	return c, err
}

func (b *HTTPBackend) CancelOpening(ctx context.Context, comandaID int64) (bool, error) {
	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	err := b.do(ctx, OpCancelOpening, http.MethodPost, idPath("/api/comandas/%s/cancel-opening", comandaID), nil, &resp)
	return resp.Cancelled, err
}

func (b *HTTPBackend) CreateComanda(ctx context.Context, number int) (models.Comanda, error) {
	var c models.Comanda
	err := b.do(ctx, OpCreateComanda, http.MethodPost, "/api/comandas", map[string]int{"number": number}, &c)
	return c, err
}

func (b *HTTPBackend) DeleteComanda(ctx context.Context, comandaID int64) error {
	return b.do(ctx, OpDeleteComanda, http.MethodDelete, idPath("/api/comandas/%s", comandaID), nil, nil)
}

func (b *HTTPBackend) SubmitOrder(ctx context.Context, comandaID int64, lines []models.CartLine) (*pos.SubmitResult, error) {
	var res pos.SubmitResult
	body := map[string]interface{}{"comanda_id": comandaID, "items": lines}
	if err := b.do(ctx, OpSubmitOrder, http.MethodPost, "/api/orders", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) AddItemToOrder(ctx context.Context, orderID int64, line models.CartLine) (models.OrderItem, error) {
	var item models.OrderItem
	err := b.do(ctx, OpAddItemToOrder, http.MethodPost, idPath("/api/orders/%s/items", orderID), line, &item)
	return item, err
}

func (b *HTTPBackend) SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) (models.OrderItem, error) {
	var item models.OrderItem
	err := b.do(ctx, OpSetItemStatus, http.MethodPut, idPath("/api/order-items/%s", itemID),
		map[string]models.ItemStatus{"status": status}, &item)
	return item, err
}

func (b *HTTPBackend) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.OrderItem, error) {
	var resp struct {
		models.OrderItem
		Deleted bool `json:"deleted"`
	}
	err := b.do(ctx, OpUpdateItemQuantity, http.MethodPut, idPath("/api/order-items/%s", itemID),
		map[string]int{"quantity": quantity}, &resp)
	if err != nil || resp.Deleted {
		return nil, err
	}
	return &resp.OrderItem, nil
}

func (b *HTTPBackend) DeleteItem(ctx context.Context, itemID int64) error {
	return b.do(ctx, OpDeleteItem, http.MethodDelete, idPath("/api/order-items/%s", itemID), nil, nil)
}

func (b *HTTPBackend) ReopenOrder(ctx context.Context, orderID int64) error {
	return b.do(ctx, OpReopen, http.MethodPost, idPath("/api/orders/%s/reopen", orderID), nil, nil)
}

func (b *HTTPBackend) ReopenReceipt(ctx context.Context, receiptID string) error {
	return b.do(ctx, OpReopen, http.MethodPost, "/api/receipts/"+url.PathEscape(receiptID)+"/reopen", nil, nil)
}

func (b *HTTPBackend) Finalize(ctx context.Context, comandaID int64, pay domain.Payment) (*pos.FinalizeResult, error) {
	var res pos.FinalizeResult
	err := b.do(ctx, OpFinalize, http.MethodPost, idPath("/api/comandas/%s/finalize", comandaID), pay, &res)
	var blocked *domain.BlockedByKitchenError
	if errors.As(err, &blocked) {
		blocked.ComandaID = comandaID
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) GetReceipt(ctx context.Context, receiptID string) (models.Receipt, error) {
	var r models.Receipt
	err := b.do(ctx, OpGetReceipt, http.MethodGet, "/api/receipts/"+url.PathEscape(receiptID), nil, &r)
	return r, err
}

func (b *HTTPBackend) GetReceiptPayments(ctx context.Context, receiptID string) ([]models.ReceiptPayment, error) {
	var resp struct {
		Payments []models.ReceiptPayment `json:"payments"`
	}
	err := b.do(ctx, OpGetReceipt, http.MethodGet, "/api/receipts/"+url.PathEscape(receiptID)+"/payments", nil, &resp)
	return resp.Payments, err
}

func (b *HTTPBackend) UpsertPayments(ctx context.Context, receiptID string, parts []models.PaymentPart) (models.Receipt, []models.ReceiptPayment, error) {
	var resp struct {
		Receipt  models.Receipt          `json:"receipt"`
		Payments []models.ReceiptPayment `json:"payments"`
	}
	err := b.do(ctx, OpUpsertPayments, http.MethodPut, "/api/receipts/"+url.PathEscape(receiptID)+"/payments",
		map[string][]models.PaymentPart{"payments": parts}, &resp)
	return resp.Receipt, resp.Payments, err
}

func (b *HTTPBackend) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	var created models.MenuItem
	err := b.do(ctx, OpCatalog, http.MethodPost, "/api/menu-items", item, &created)
	return created, err
}

func (b *HTTPBackend) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	var updated models.MenuItem
	err := b.do(ctx, OpCatalog, http.MethodPut, idPath("/api/menu-items/%s", id), patch, &updated)
	return updated, err
}

func (b *HTTPBackend) DeleteMenuItem(ctx context.Context, id int64) error {
	return b.do(ctx, OpCatalog, http.MethodDelete, idPath("/api/menu-items/%s", id), nil, nil)
}

func (b *HTTPBackend) UpsertCategory(ctx context.Context, cat models.Category) (models.Category, error) {
	var out models.Category
	err := b.do(ctx, OpCatalog, http.MethodPut, "/api/categories/"+url.PathEscape(cat.ID), cat, &out)
	return out, err
}

func (b *HTTPBackend) DeleteCategory(ctx context.Context, id string) (int, error) {
	var resp struct {
		Moved int `json:"moved_items"`
	}
	err := b.do(ctx, OpCatalog, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, &resp)
	return resp.Moved, err
}

var _ Backend = (*HTTPBackend)(nil)
