package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound se devuelve cuando ninguna fila coincide. Envuelve pgx.ErrNoRows.
	ErrNotFound = fmt.Errorf("record not found: %w", pgx.ErrNoRows)
	// ErrDuplicate se devuelve cuando una restriccion unique rechaza la escritura.
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolationCode = "23505"

// DBTX es el subconjunto de pgx usado por los repositorios.
// *pgxpool.Pool, *pgx.Conn y pgx.Tx lo satisfacen.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
