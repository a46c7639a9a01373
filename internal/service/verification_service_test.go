package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-service/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func registerForVerification(t *testing.T) (*mockUserRepo, *VerificationService, *fakeClock, string) {
	t.Helper()
	repo := newMockUserRepo()
	svc, verifier := newTestServices(repo, &mockNotifier{})
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	verifier.now = clock.Now
	svc.now = clock.Now

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}
	token := repo.tokenFor("a@x.com")
	if token == "" {
		t.Fatalf("expected token issued")
	}
	return repo, verifier, clock, token
}

func TestVerificationServiceIssue(t *testing.T) {
	verifier := NewVerificationService(nil, newMockUserRepo(), 2*time.Minute, time.Minute)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	verifier.now = clock.Now

	user := domain.User{ID: "u1"}
	token, expiresAt, err := verifier.Issue(&user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 char token, got %d", len(token))
	}
	if !expiresAt.Equal(clock.now.Add(2 * time.Minute)) {
		t.Fatalf("expected expiry two minutes ahead, got %v", expiresAt)
	}
	if user.VerificationToken == nil || *user.VerificationToken != token || user.VerificationTokenExpiresAt == nil {
		t.Fatalf("expected token pair set on user")
	}

	other := domain.User{ID: "u2"}
	second, _, err := verifier.Issue(&other)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if second == token {
		t.Fatalf("expected distinct tokens")
	}

	verified := domain.User{ID: "u3", Verified: true}
	if _, _, err := verifier.Issue(&verified); KindOf(err) != KindConflict {
		t.Fatalf("expected verified users to never get a new token, got %v", err)
	}
}

func TestVerificationServiceConsume_Success(t *testing.T) {
	repo, verifier, clock, token := registerForVerification(t)
	clock.now = clock.now.Add(90 * time.Second)

	user, err := verifier.Consume(context.Background(), token)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !user.Verified {
		t.Fatalf("expected verified user")
	}

	stored, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if !stored.Verified || stored.VerificationToken != nil || stored.VerificationTokenExpiresAt != nil {
		t.Fatalf("expected token pair cleared, got %+v", stored)
	}
}

func TestVerificationServiceConsume_SingleUse(t *testing.T) {
	_, verifier, _, token := registerForVerification(t)

	if _, err := verifier.Consume(context.Background(), token); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	_, err := verifier.Consume(context.Background(), token)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound on reuse, got %v", err)
	}
}

func TestVerificationServiceConsume_UnknownToken(t *testing.T) {
	repo, verifier, _, _ := registerForVerification(t)

	_, err := verifier.Consume(context.Background(), "deadbeef")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	stored, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if stored.Verified {
		t.Fatalf("expected user to remain unverified")
	}
}

func TestVerificationServiceConsume_AlreadyVerifiedWithStaleToken(t *testing.T) {
	repo, verifier, _, token := registerForVerification(t)

	// Fila verificada que conserva el token.
	repo.mu.Lock()
	id := repo.usersByEmail["a@x.com"]
	u := repo.usersByID[id]
	u.Verified = true
	repo.usersByID[id] = u
	repo.mu.Unlock()

	if _, err := verifier.Consume(context.Background(), token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestVerificationServiceConsume_GraceWindow(t *testing.T) {
	_, verifier, clock, token := registerForVerification(t)

	// Vencido por la expiracion almacenada pero dentro de la gracia.
	clock.now = clock.now.Add(2*time.Minute + 30*time.Second)
	if _, err := verifier.Consume(context.Background(), token); err != nil {
		t.Fatalf("expected success within grace window, got %v", err)
	}
}

func TestVerificationServiceConsume_Expired(t *testing.T) {
	repo, verifier, clock, token := registerForVerification(t)

	clock.now = clock.now.Add(2*time.Minute + time.Minute + time.Second)
	_, err := verifier.Consume(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	stored, _ := repo.GetByEmail(context.Background(), "a@x.com")
	if stored.Verified || stored.VerificationToken == nil {
		t.Fatalf("expected user untouched after expired consume, got %+v", stored)
	}

	// El token vencido sigue vencido.
	if _, err := verifier.Consume(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired again, got %v", err)
	}
}

func TestVerificationServiceConsume_MissingToken(t *testing.T) {
	_, verifier, _, _ := registerForVerification(t)

	if _, err := verifier.Consume(context.Background(), "  "); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestRequireVerified(t *testing.T) {
	if err := RequireVerified(domain.User{Verified: false}); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if err := RequireVerified(domain.User{Verified: true}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
