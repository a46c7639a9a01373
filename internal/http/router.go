package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/telemetry"
)

// Handlers agrupa lo que el router necesita para montar las rutas.
type Handlers struct {
	Users  *UserHandler
	Images *ImageHandler
	Auth   gin.HandlerFunc
	DB     Pinger
}

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(logger *zap.Logger, metrics *telemetry.Metrics, h Handlers) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger, metrics), gin.Recovery(), jsonContentTypeMiddleware())

	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
	})
	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.GET("/healthz", HealthHandler(logger, h.DB))

	dbReady := DBReady(logger, h.DB)
	verified := RequireVerified()

	v1 := r.Group("/user/v1")
	v1.POST("/create-user", dbReady, h.Users.CreateUser)
	v1.GET("/user/self/verify", h.Users.VerifyEmail)

	self := v1.Group("", h.Auth, verified)
	self.GET("/get-user", h.Users.GetUser)
	self.PUT("/update-user", dbReady, h.Users.UpdateUser)
	self.POST("/user/self/pic", h.Images.Upload)
	self.DELETE("/user/self/pic", h.Images.Delete)
	self.GET("/user/self/pic", h.Images.Get)

	return r
}

// zapLoggerMiddleware registra cada request con zap y alimenta las metricas por ruta.
func zapLoggerMiddleware(logger *zap.Logger, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.API(c.Request.Context(), c.Request.Method+" "+route, latency)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
