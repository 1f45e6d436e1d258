package api

import (
	"net/http"
	"time"

	"comandapos/server/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RouterDeps - все, что нужно для сборки HTTP поверхности
type RouterDeps struct {
	Storage  Storage
	Notifier Notifier
	Hub      *Hub
	Presence Presence
	Redis    Pinger
	// Auth включает JWT вход и защиту админских мутаций; nil - без авторизации
	Auth        *auth.Service
	AuthLimiter *auth.Limiter
}

// NewRouter собирает gin движок со всеми маршрутами /api и /ws
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	stateController := NewStateController(deps.Storage, deps.Redis)

	// Health check endpoint (до CORS и логов)
	r.GET("/api/health", stateController.Health)

	r.Use(RequestLogger())
	r.Use(CORS())

	menuController := NewMenuController(deps.Storage, deps.Notifier)
	comandaController := NewComandaController(deps.Storage, deps.Notifier)
	orderController := NewOrderController(deps.Storage, deps.Notifier)
	receiptController := NewReceiptController(deps.Storage, deps.Notifier)
	kitchenController := NewKitchenController(deps.Storage)
	realtimeController := NewRealtimeController(deps.Hub, deps.Presence)

	var guard gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	apiGroup := r.Group("/api")
	if deps.Auth != nil {
		guard = RequireAuth(deps.Auth)
		authController := NewAuthController(deps.Auth, deps.AuthLimiter)
		apiGroup.POST("/auth/login", authController.Login)
		apiGroup.POST("/auth/reauth", authController.Reauth)
		apiGroup.POST("/auth/change-password", guard, authController.ChangePassword)
		apiGroup.GET("/auth/security-config", guard, authController.SecurityConfig)
	}
	{
		apiGroup.GET("/state", stateController.State)

		apiGroup.GET("/menu-items", menuController.ListMenuItems)
		apiGroup.POST("/menu-items", guard, menuController.CreateMenuItem)
		apiGroup.PUT("/menu-items/:id", guard, menuController.UpdateMenuItem)
		apiGroup.DELETE("/menu-items/:id", guard, menuController.DeleteMenuItem)

		apiGroup.GET("/categories", menuController.ListCategories)
		apiGroup.PUT("/categories/:id", guard, menuController.UpsertCategory)
		apiGroup.DELETE("/categories/:id", guard, menuController.DeleteCategory)

		apiGroup.GET("/comandas", comandaController.ListComandas)
		apiGroup.POST("/comandas", guard, comandaController.CreateComanda)
		apiGroup.PUT("/comandas/:id", guard, comandaController.UpdateComanda)
		apiGroup.DELETE("/comandas/:id", guard, comandaController.DeleteComanda)
		apiGroup.POST("/comandas/:id/cancel-opening", comandaController.CancelOpening)
		apiGroup.POST("/comandas/:id/finalize", comandaController.Finalize)

		apiGroup.GET("/orders", orderController.ListOrders)
		apiGroup.GET("/orders/history", orderController.History)
		apiGroup.GET("/orders/history/export", orderController.ExportHistory)
		apiGroup.POST("/orders", orderController.SubmitOrder)
		apiGroup.POST("/orders/:id/items", guard, orderController.AddItem)
		apiGroup.POST("/orders/:id/reopen", orderController.ReopenOrder)

		apiGroup.PUT("/order-items/:id", guard, orderController.UpdateItem)
		apiGroup.DELETE("/order-items/:id", guard, orderController.DeleteItem)

		apiGroup.GET("/receipts/:receiptId", receiptController.GetReceipt)
		apiGroup.GET("/receipts/:receiptId/text", receiptController.Text)
		apiGroup.GET("/receipts/:receiptId/payments", receiptController.GetPayments)
		apiGroup.PUT("/receipts/:receiptId/payments", receiptController.UpsertPayments)
		apiGroup.POST("/receipts/:receiptId/reopen", receiptController.Reopen)

		apiGroup.GET("/kitchen/board", kitchenController.Board)

		apiGroup.GET("/realtime/status", realtimeController.Status)
	}
	r.GET("/ws", realtimeController.ServeWS)

	return r
}

// RequestLogger логирует каждый запрос с request id
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		} else if status >= http.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("🌐 HTTP")
	}
}

// CORS для терминалов
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
