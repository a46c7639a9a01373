package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/repository"
)

const (
	verificationTokenBytes = 32
	defaultTokenTTL        = 2 * time.Minute
)

// VerificationService gestiona el ciclo de vida del token de verificacion:
// emision al registrarse, expiracion y consumo de un solo uso.
type VerificationService struct {
	logger *zap.Logger
	users  repository.UserRepository
	ttl    time.Duration
	grace  time.Duration
	now    func() time.Time
}

func NewVerificationService(logger *zap.Logger, users repository.UserRepository, ttl, grace time.Duration) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if grace < 0 {
		grace = 0
	}
	return &VerificationService{
		logger: logger,
		users:  users,
		ttl:    ttl,
		grace:  grace,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue genera un token nuevo y lo asigna al usuario junto con su expiracion.
// No persiste ni notifica: el registro inserta el usuario ya con el token.
func (s *VerificationService) Issue(user *domain.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, ErrInvalidInput
	}
	if user.Verified {
		return "", time.Time{}, newError(KindConflict, "user is already verified")
	}
	token, err := generateVerificationToken()
	if err != nil {
		return "", time.Time{}, internal("generate verification token", err)
	}
	expiresAt := s.now().Add(s.ttl)
	user.VerificationToken = &token
	user.VerificationTokenExpiresAt = &expiresAt
	return token, expiresAt, nil
}

// Consume verifica la cuenta dueña del token. El token es de un solo uso:
// una vez consumido se borra, por lo que reusarlo devuelve ErrTokenNotFound.
// Un token vencido (expiracion + gracia) devuelve ErrTokenExpired sin modificar la cuenta.
func (s *VerificationService) Consume(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrTokenMissing
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrTokenNotFound
		}
		return domain.User{}, internal("find user by token", err)
	}
	if !user.HasPendingVerification() {
		return domain.User{}, ErrTokenNotFound
	}

	now := s.now()
	if now.After(user.VerificationTokenExpiresAt.Add(s.grace)) {
		s.logger.Info("verification token expired",
			zap.String("user_id", user.ID),
			zap.Time("expired_at", *user.VerificationTokenExpiresAt),
		)
		return domain.User{}, ErrTokenExpired
	}

	if err := s.users.MarkVerified(ctx, user.ID, token, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Otro request consumio el token entre la lectura y la escritura.
			return domain.User{}, ErrTokenNotFound
		}
		return domain.User{}, internal("mark user verified", err)
	}

	user.Verified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiresAt = nil
	user.UpdatedAt = now
	return user.Public(), nil
}

// RequireVerified es el predicado del control de acceso.
func RequireVerified(user domain.User) error {
	if !user.Verified {
		return ErrEmailNotVerified
	}
	return nil
}

func generateVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
