package api

import (
	"net/http"
	"strings"

	"comandapos/server/internal/auth"
	"comandapos/server/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const usernameKey = "username"

// AuthController - вход администратора, повторный вход и смена пароля
type AuthController struct {
	svc     *auth.Service
	limiter *auth.Limiter
}

func NewAuthController(svc *auth.Service, limiter *auth.Limiter) *AuthController {
	return &AuthController{svc: svc, limiter: limiter}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)
	key := c.ClientIP() + ":" + strings.ToLower(strings.TrimSpace(req.Username))
	if ac.limiter != nil && !ac.limiter.Allow(key) {
		log.Warn().Str("ip", c.ClientIP()).Msg("⚠️ Слишком много попыток входа")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Too many attempts. Try again later.",
			"code":  "RATE_LIMITED",
		})
		return
	}
	ac.issue(c, req, "вход")
}

// Reauth POST /api/auth/reauth - подтверждение пароля, новый токен
func (ac *AuthController) Reauth(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)
	ac.issue(c, req, "повторный вход")
}

func (ac *AuthController) issue(c *gin.Context, req loginRequest, what string) {
	token, err := ac.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Warn().Str("username", req.Username).Err(err).Msgf("🔒 %s отклонен", what)
		respondError(c, err)
		return
	}
	log.Info().Str("username", token.Username).Msgf("🔓 %s выполнен", what)
	c.JSON(http.StatusOK, gin.H{"token": token.Token, "expires_at": token.ExpiresAt, "user": gin.H{"username": token.Username}})
}

// ChangePassword POST /api/auth/change-password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	username := c.GetString(usernameKey)
	if err := ac.svc.ChangePassword(c.Request.Context(), username, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("username", username).Msg("🔑 Пароль изменен")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SecurityConfig GET /api/auth/security-config
func (ac *AuthController) SecurityConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ac.svc.SecurityConfig())
}

// RequireAuth пропускает запрос только с валидным Bearer токеном
func RequireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		username, err := svc.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": domain.CodeUnauthorized})
			return
		}
		c.Set(usernameKey, username)
		c.Next()
	}
}
