package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const verificationSubject = "Verify your email address"

// SMTPSender envia los links de verificacion via SMTP.
// Toda la conversacion respeta el deadline y la cancelacion del contexto.
type SMTPSender struct {
	addr     string
	host     string
	auth     smtp.Auth
	from     string
	fromName string
	// implicitTLS abre la conexion ya cifrada (puerto 465); sin el se intenta STARTTLS.
	implicitTLS bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	s := &SMTPSender{
		addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		host:        host,
		from:        from,
		fromName:    fromName,
		implicitTLS: useTLS,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s, nil
}

func (s *SMTPSender) SendVerificationLink(ctx context.Context, toEmail string, link string, expiresAt time.Time) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	if strings.TrimSpace(link) == "" {
		return fmt.Errorf("verification link is required")
	}
	msg := buildMessage(s.from, s.fromName, toEmail, verificationSubject, verificationBody(link, expiresAt))

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", s.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	// Una cancelacion sin deadline corta cualquier lectura o escritura pendiente.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := s.deliver(conn, toEmail, msg); err != nil {
		return fmt.Errorf("smtp send: %w", contextCause(ctx, err))
	}
	return nil
}

// contextCause reemplaza el timeout de red por el error del contexto que lo provoco.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return err
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	if s.implicitTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
		return d.DialContext(ctx, "tcp", s.addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", s.addr)
}

func (s *SMTPSender) deliver(conn net.Conn, toEmail, msg string) error {
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if !s.implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return err
			}
		}
	}
	if s.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(s.auth); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func verificationBody(link string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"Please verify your email address by opening the link below:\n\n%s\n\nThe link expires at %s UTC.\n",
		link,
		expiresAt.UTC().Format(time.RFC3339),
	)
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
