// Package notify publica los eventos de verificacion de email.
//
// La publicacion es un efecto secundario no critico: quien llama registra el error
// pero nunca lo propaga al cliente.
package notify

import (
	"context"
	"errors"
	"time"
)

// VerificationEvent es el mensaje emitido al registrar un usuario.
type VerificationEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier entrega eventos de verificacion a un canal externo.
type Notifier interface {
	PublishVerification(ctx context.Context, event VerificationEvent) error
}

// ErrDisabled indica que no hay canal de notificacion configurado.
var ErrDisabled = errors.New("notifier disabled")

type disabledNotifier struct{}

// NewDisabledNotifier devuelve un Notifier que siempre falla con ErrDisabled.
func NewDisabledNotifier() Notifier {
	return disabledNotifier{}
}

func (disabledNotifier) PublishVerification(context.Context, VerificationEvent) error {
	return ErrDisabled
}

// MultiNotifier publica en todos los canales y agrega los errores.
type MultiNotifier []Notifier

func (m MultiNotifier) PublishVerification(ctx context.Context, event VerificationEvent) error {
	if len(m) == 0 {
		return ErrDisabled
	}
	var errs []error
	for _, n := range m {
		if err := n.PublishVerification(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
