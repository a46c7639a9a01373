package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"account-service/internal/domain"
	"account-service/internal/notify"
	"account-service/internal/repository"
	"account-service/internal/telemetry"
)

const (
	defaultBcryptCost    = 13
	defaultNotifyTimeout = 3 * time.Second
)

// UserService coordina registro, autenticacion y actualizacion de usuarios.
type UserService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	verifier   *VerificationService
	notifier   notify.Notifier
	metrics    *telemetry.Metrics
	verifyURL  string
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
	// notifyTimeout acota cuanto puede demorar el registro por la notificacion.
	notifyTimeout time.Duration
}

// UserServiceOptions agrupa parametros opcionales del servicio.
type UserServiceOptions struct {
	VerifyBaseURL string
	BcryptCost    int
	Metrics       *telemetry.Metrics
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, verifier *VerificationService, notifier notify.Notifier, opts UserServiceOptions) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewDisabledNotifier()
	}
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	// Hash de relleno para que un email desconocido cueste lo mismo que una clave erronea.
	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	return &UserService{
		logger:     logger,
		users:      users,
		verifier:   verifier,
		notifier:   notifier,
		metrics:    opts.Metrics,
		verifyURL:  opts.VerifyBaseURL,
		bcryptCost: cost,
		dummyHash:  dummy,
		now:        func() time.Time { return time.Now().UTC() },

		notifyTimeout: defaultNotifyTimeout,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UpdateProfileInput struct {
	Password  string
	FirstName string
	LastName  string
}

// Register crea la cuenta sin verificar, con un token de verificacion recien emitido,
// y publica la notificacion. Un fallo al notificar se registra y no afecta el resultado.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" || strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return domain.User{}, ErrInvalidInput
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.User{}, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return domain.User{}, internal("find user by email", err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	token, expiresAt, err := s.verifier.Issue(&user)
	if err != nil {
		return domain.User{}, err
	}

	start := time.Now()
	err = s.users.Create(ctx, user)
	s.metrics.Store(ctx, "users.insert", time.Since(start))
	if err != nil {
		// La restriccion unique es la fuente de verdad ante registros concurrentes.
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, internal("insert user", err)
	}

	s.notifyVerification(ctx, user, token, expiresAt)
	return user.Public(), nil
}

func (s *UserService) notifyVerification(ctx context.Context, user domain.User, token string, expiresAt time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	event := notify.VerificationEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		Link:      s.verificationLink(token),
		ExpiresAt: expiresAt,
	}
	if err := s.notifier.PublishVerification(ctx, event); err != nil {
		s.metrics.NotifyFailure(ctx, "verification")
		s.logger.Warn("publish verification event failed",
			zap.Error(err),
			zap.String("user_id", user.ID),
		)
		return
	}
	s.logger.Info("verification event published", zap.String("user_id", user.ID))
}

func (s *UserService) verificationLink(token string) string {
	base := s.verifyURL
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Authenticate resuelve el usuario por email exacto y compara la clave con bcrypt.
// Devuelve ErrUserNotFound si el email no existe y ErrInvalidCredentials si la clave no coincide.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	start := time.Now()
	user, err := s.users.GetByEmail(ctx, email)
	s.metrics.Store(ctx, "users.find_by_email", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, internal("find user by email", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user.Public(), nil
}

// UpdateProfile reemplaza clave y nombres del usuario autenticado.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) error {
	if userID == "" || input.Password == "" || strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return ErrInvalidInput
	}
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.users.UpdateProfile(ctx, userID, hash, strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName), s.now())
	s.metrics.Store(ctx, "users.update", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal("update user", err)
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidInput
		}
		return "", internal("hash password", err)
	}
	return string(hash), nil
}
