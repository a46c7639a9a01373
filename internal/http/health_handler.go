package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger verifica la conectividad con la base de datos. *pgxpool.Pool lo satisface.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthHandler maneja GET /healthz.
func HealthHandler(logger *zap.Logger, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		// ContentLength es -1 para cuerpos chunked.
		if c.Request.ContentLength != 0 || c.Request.URL.RawQuery != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Error("health check failed", zap.Error(err))
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	}
}

// DBReady responde 503 antes de tocar el store si la base no responde.
func DBReady(logger *zap.Logger, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Error("database unavailable", zap.Error(err))
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}
