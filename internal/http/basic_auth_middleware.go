package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/service"
)

const (
	authUserKey      = "auth_user"
	basicChallenge   = `Basic realm="user", charset="UTF-8"`
	basicSchemeLower = "basic"
)

// Authenticator resuelve un usuario a partir de email y clave.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
}

// BasicAuthMiddleware valida el header Authorization: Basic y guarda el usuario en el contexto.
// Todas las respuestas 401 llevan WWW-Authenticate y un cuerpo JSON con la causa.
func BasicAuthMiddleware(logger *zap.Logger, auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			unauthorized(c, "authorization header missing")
			return
		}

		email, password, err := parseBasicAuth(header)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), email, password)
		if err != nil {
			switch service.KindOf(err) {
			case service.KindNotFound:
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": service.PublicMessage(err)})
			case service.KindUnauthorized:
				unauthorized(c, service.PublicMessage(err))
			default:
				logger.Error("authenticate failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": service.PublicMessage(err)})
			}
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

type basicAuthError string

func (e basicAuthError) Error() string { return string(e) }

const (
	errCredentialsMissing   basicAuthError = "authorization credentials missing"
	errCredentialsMalformed basicAuthError = "authorization credentials malformed"
	errUserOrPassMissing    basicAuthError = "username or password missing"
)

// parseBasicAuth decodifica "Basic base64(email:clave)". La clave puede contener ':'.
func parseBasicAuth(header string) (string, string, error) {
	scheme, encoded, _ := strings.Cut(header, " ")
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", "", errCredentialsMissing
	}
	if strings.ToLower(scheme) != basicSchemeLower {
		return "", "", errCredentialsMalformed
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", errCredentialsMalformed
	}
	email, password, ok := strings.Cut(string(decoded), ":")
	if !ok || email == "" || password == "" {
		return "", "", errUserOrPassMissing
	}
	return email, password, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", basicChallenge)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// RequireVerified bloquea a usuarios autenticados que no verificaron su email.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			unauthorized(c, "authorization header missing")
			return
		}
		if err := service.RequireVerified(user); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.PublicMessage(err)})
			return
		}
		c.Next()
	}
}

// CurrentUser obtiene el usuario autenticado desde el contexto.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}
