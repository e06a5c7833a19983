package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Dispatcher sends a single message. Delivery failures are returned to
// the caller, never swallowed.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPDispatcher sends mail through a plain SMTP relay.
type SMTPDispatcher struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

func NewSMTPDispatcher(host string, port int, username, password, from string, logger *slog.Logger) *SMTPDispatcher {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPDispatcher{
		addr:   fmt.Sprintf("%s:%d", host, port),
		from:   from,
		auth:   auth,
		logger: logger,
	}
}

func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", d.from, to, subject, body)
	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{to}, []byte(msg)); err != nil {
		d.logger.Error("mail delivery failed", "to", to, "error", err)
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	d.logger.Info("mail delivered", "to", to, "subject", subject)
	return nil
}

// LogDispatcher writes messages to the log instead of sending them.
// Used in development where no SMTP relay is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, to, subject, body string) error {
	d.logger.Info("mail (not sent, log dispatcher)", "to", to, "subject", subject, "body", body)
	return nil
}
