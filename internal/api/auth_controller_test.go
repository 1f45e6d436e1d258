package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func newAuthRouter(t *testing.T, maxAttempts int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := auth.NewService(auth.NewMemoryUsers(), auth.Options{
		Secret:     "Zq8vN3kLw0pR5tY7uI9oA2sD4fG6hJ1x",
		TTL:        time.Minute,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Bootstrap(context.Background(), "admin"))

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return NewRouter(RouterDeps{
		Storage:     store.NewMemoryStore(pos.SeedBook(), pos.NewEngine()),
		Notifier:    &recordingNotifier{},
		Hub:         hub,
		Auth:        svc,
		AuthLimiter: auth.NewLimiter(maxAttempts, time.Minute),
	})
}

func doAuthJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, password string) string {
	t.Helper()
	w := doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newAuthRouter(t, 8)

	item := models.MenuItem{Name: "Pastel", Category: "porcoes", Price: 1500, Available: true}
	guarded := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/menu-items", item},
		{http.MethodPut, "/api/menu-items/1", gin.H{"price": 2600}},
		{http.MethodDelete, "/api/menu-items/1", nil},
		{http.MethodPut, "/api/categories/porcoes", gin.H{"label": "Porções"}},
		{http.MethodDelete, "/api/categories/bebidas", nil},
		{http.MethodPost, "/api/comandas", gin.H{"number": 30}},
		{http.MethodDelete, "/api/comandas/20", nil},
		{http.MethodPost, "/api/orders/1/items", gin.H{"menu_item_id": 5}},
		{http.MethodPut, "/api/order-items/1", gin.H{"status": models.ItemReady}},
		{http.MethodDelete, "/api/order-items/1", nil},
		{http.MethodPost, "/api/auth/change-password", gin.H{}},
		{http.MethodGet, "/api/auth/security-config", nil},
	}
	for _, g := range guarded {
		w := doAuthJSON(t, r, g.method, g.path, "", g.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", g.method, g.path)
		w = doAuthJSON(t, r, g.method, g.path, "garbage", g.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", g.method, g.path)
	}

	// операционные маршруты открыты
	w := doAuthJSON(t, r, http.MethodGet, "/api/state", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doAuthJSON(t, r, http.MethodPost, "/api/orders", "", SubmitOrderRequest{
		ComandaID: 3,
		Items:     []models.CartLine{{MenuItemID: 5, Quantity: 1}},
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	token := login(t, r, "admin")
	w = doAuthJSON(t, r, http.MethodPost, "/api/comandas", token, gin.H{"number": 30})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doAuthJSON(t, r, http.MethodGet, "/api/auth/security-config", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg auth.SecurityConfig
	decode(t, w, &cfg)
	assert.Equal(t, 8, cfg.PasswordPolicy.MinLength)
	assert.True(t, cfg.SecretStrong)
}

func TestLoginErrorsAndRateLimit(t *testing.T) {
	r := newAuthRouter(t, 3)

	w := doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var errResp map[string]interface{}
	decode(t, w, &errResp)
	assert.Equal(t, domain.CodeUnauthorized, errResp["code"])

	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ADMIN", "password": "admin"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// повторный вход не ограничен
	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/reauth", "", gin.H{"username": "admin", "password": "admin"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestChangePasswordEndpoint(t *testing.T) {
	r := newAuthRouter(t, 8)
	token := login(t, r, "admin")

	w := doAuthJSON(t, r, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"current_password": "admin",
		"new_password":     "abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"current_password": "wrong",
		"new_password":     "caixa2026",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"current_password": "admin",
		"new_password":     "caixa2026",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doAuthJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "admin"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	login(t, r, "caixa2026")
}
