package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/service"
)

// statusOverrides ajusta el status por endpoint cuando el contrato difiere del default.
type statusOverrides map[service.Kind]int

func statusFor(kind service.Kind, overrides statusOverrides) int {
	if code, ok := overrides[kind]; ok {
		return code
	}
	switch kind {
	case service.KindValidation, service.KindConflict, service.KindExpired:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError traduce un error de servicio a la respuesta JSON minima.
// Los errores internos se registran y el cliente solo recibe un mensaje generico.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error, overrides statusOverrides) {
	kind := service.KindOf(err)
	code := statusFor(kind, overrides)
	if kind == service.KindInternal {
		logger.Error(op+" failed", zap.Error(err))
	} else {
		logger.Warn(op+" rejected", zap.String("reason", string(kind)), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, gin.H{"error": service.PublicMessage(err)})
}
