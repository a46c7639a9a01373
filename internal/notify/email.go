package notify

import (
	"context"

	"account-service/internal/email"
)

// EmailNotifier entrega el enlace de verificacion por correo.
type EmailNotifier struct {
	sender email.Sender
}

func NewEmailNotifier(sender email.Sender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) PublishVerification(ctx context.Context, event VerificationEvent) error {
	if n == nil || n.sender == nil {
		return ErrDisabled
	}
	return n.sender.SendVerificationLink(ctx, event.Email, event.Link, event.ExpiresAt)
}
