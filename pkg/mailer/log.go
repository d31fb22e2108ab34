package mailer

import (
	"context"
	"net/mail"
	"sync"

	"go.uber.org/zap"
)

// LogMailer writes messages to the logger instead of sending them. Used in development.
type LogMailer struct {
	from       mail.Address
	subjPrefix string
	logger     *zap.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(from mail.Address, appName string, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{from: from, subjPrefix: subjectPrefix(appName), logger: logger}
}

func (l *LogMailer) Send(_ context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	msg.Subject = l.subjPrefix + msg.Subject

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	l.logger.Info("mail",
		zap.String("from", l.from.String()),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)

	l.mu.Lock()
	l.sent = append(l.sent, msg)
	l.mu.Unlock()
	return nil
}

// Sent returns a copy of every message logged so far.
func (l *LogMailer) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.sent))
	copy(out, l.sent)
	return out
}
