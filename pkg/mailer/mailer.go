package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/pkg/config"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether at least one address is set.
func (m Message) HasRecipients() bool {
	for _, to := range m.To {
		if strings.TrimSpace(to.Address) != "" {
			return true
		}
	}
	return false
}

// Mailer delivers messages synchronously. Callers needing async delivery go through the job queue.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport named by MAIL_PROVIDER.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}
	switch cfg.Provider {
	case "", "log":
		return NewLogMailer(from, cfg.FromName, logger), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
		}
		return NewSendGrid(cfg.SendGridAPIKey, from, cfg.FromName), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

func subjectPrefix(appName string) string {
	if appName == "" {
		return ""
	}
	return "[" + appName + "] "
}
