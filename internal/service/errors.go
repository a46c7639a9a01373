package service

import (
	"errors"
	"fmt"
)

// Kind clasifica los errores de negocio para que la capa HTTP elija el status.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindExpired      Kind = "expired"
	KindInternal     Kind = "internal"
)

// Error es un error de negocio con su clasificacion.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrInvalidInput       = newError(KindValidation, "invalid input")
	ErrEmptyFile          = newError(KindValidation, "file is empty")
	ErrUnsupportedMedia   = newError(KindValidation, "given file type not supported")
	ErrTokenMissing       = newError(KindValidation, "verification token is required")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid credentials")
	ErrEmailNotVerified   = newError(KindForbidden, "please verify your email address to access this resource")
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrTokenNotFound      = newError(KindNotFound, "verification token is invalid")
	ErrImageNotFound      = newError(KindNotFound, "profile picture not found")
	ErrEmailTaken         = newError(KindConflict, "user with this email already exists")
	ErrImageExists        = newError(KindConflict, "user has already uploaded a profile picture")
	ErrTokenExpired       = newError(KindExpired, "verification token has expired")
	ErrInternal           = newError(KindInternal, "internal error")
)

// internal envuelve un fallo de infraestructura conservando la causa para los logs.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrInternal, err))
}

// KindOf devuelve la clasificacion de err; cualquier error desconocido es KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// PublicMessage devuelve el mensaje seguro para el cliente.
func PublicMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return ErrInternal.Msg
}
