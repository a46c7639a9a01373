package email

import (
	"context"
	"time"
)

// Sender define la interfaz para envio de correos de verificacion.
type Sender interface {
	SendVerificationLink(ctx context.Context, toEmail string, link string, expiresAt time.Time) error
}
