package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid delivers through the SendGrid v3 API.
type SendGrid struct {
	from       *sgmail.Email
	subjPrefix string
	send       func(*sgmail.SGMailV3) (int, string, error)
}

var _ Mailer = (*SendGrid)(nil)

func NewSendGrid(apiKey string, from mail.Address, appName string) *SendGrid {
	client := sendgrid.NewSendClient(apiKey)
	return &SendGrid{
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: subjectPrefix(appName),
		send: func(m *sgmail.SGMailV3) (int, string, error) {
			res, err := client.Send(m)
			if err != nil {
				return 0, "", err
			}
			return res.StatusCode, res.Body, nil
		},
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	status, body, err := s.send(s.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", status, body)
	}
	return nil
}

func (s *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		if to.Address == "" {
			continue
		}
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}
