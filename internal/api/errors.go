package api

import (
	"errors"
	"net/http"
	"strconv"

	"comandapos/server/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatusFor сопоставляет доменную ошибку с HTTP статусом и кодом
func StatusFor(err error) (int, string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		blocked    *domain.BlockedByKitchenError
		conflict   *domain.ConflictError
		unauth     *domain.UnauthorizedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Code
	case errors.As(err, &notFound):
		return http.StatusNotFound, domain.CodeNotFound
	case errors.As(err, &blocked):
		return http.StatusConflict, domain.CodeBlockedByKitchen
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Code
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, domain.CodeUnauthorized
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondError пишет конверт {"error", "code"}
func respondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	resp := gin.H{"error": err.Error(), "code": code}
	var blocked *domain.BlockedByKitchenError
	if errors.As(err, &blocked) {
		resp["pending"] = blocked.Pending
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("❌ Внутренняя ошибка")
		resp["error"] = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": domain.CodeValidation})
}

// paramID разбирает числовой :id
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
