package repository

import (
	"context"
	"time"

	"account-service/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (domain.User, error)
	UpdateProfile(ctx context.Context, id, passwordHash, firstName, lastName string, updatedAt time.Time) error
	MarkVerified(ctx context.Context, id, token string, updatedAt time.Time) error
}

// PgUserRepository implementa UserRepository usando pgx.
type PgUserRepository struct {
	db DBTX
}

func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, verified,
	verification_token, verification_token_expires_at, account_created, account_updated`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Verified,
		user.VerificationToken,
		user.VerificationTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateError(err)
}

// GetByEmail compara el email exactamente como fue almacenado.
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByVerificationToken(ctx context.Context, token string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id, passwordHash, firstName, lastName string, updatedAt time.Time) error {
	const query = `
		UPDATE users
		SET password_hash = $2, first_name = $3, last_name = $4, account_updated = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, passwordHash, firstName, lastName, updatedAt)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified consume el token de forma condicional: solo la primera llamada con el
// token vigente afecta la fila, las siguientes devuelven ErrNotFound.
func (r *PgUserRepository) MarkVerified(ctx context.Context, id, token string, updatedAt time.Time) error {
	const query = `
		UPDATE users
		SET verified = TRUE,
		    verification_token = NULL,
		    verification_token_expires_at = NULL,
		    account_updated = $3
		WHERE id = $1 AND verification_token = $2 AND verified = FALSE
	`
	tag, err := r.db.Exec(ctx, query, id, token, updatedAt)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Verified,
		&u.VerificationToken,
		&u.VerificationTokenExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return u, nil
}
