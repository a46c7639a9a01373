package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/service"
)

// UserAccounts es lo que UserHandler necesita del servicio de usuarios.
type UserAccounts interface {
	Register(ctx context.Context, input service.RegisterInput) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input service.UpdateProfileInput) error
}

// EmailVerifier consume tokens de verificacion.
type EmailVerifier interface {
	Consume(ctx context.Context, token string) (domain.User, error)
}

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	users    UserAccounts
	verifier EmailVerifier
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, users UserAccounts, verifier EmailVerifier) *UserHandler {
	return &UserHandler{
		logger:   logger,
		users:    users,
		verifier: verifier,
	}
}

// CreateUser maneja POST /user/v1/create-user.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.logger, "create user", err, nil)
		return
	}

	h.logger.Info("user created", zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, user)
}

// VerifyEmail maneja GET /user/v1/user/self/verify?token=.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	user, err := h.verifier.Consume(c.Request.Context(), token)
	if err != nil {
		// Token ausente, desconocido, ya usado o vencido: todos son 400 para el cliente.
		respondError(c, h.logger, "verify email", err, statusOverrides{service.KindNotFound: http.StatusBadRequest})
		return
	}

	h.logger.Info("email verified", zap.String("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// GetUser maneja GET /user/v1/get-user.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "authorization header missing")
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// UpdateUser maneja PUT /user/v1/update-user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "authorization header missing")
		return
	}

	var req struct {
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.users.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.logger, "update user", err, statusOverrides{service.KindInternal: http.StatusBadRequest})
		return
	}

	c.Status(http.StatusNoContent)
}
