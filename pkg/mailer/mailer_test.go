package mailer

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/pkg/config"
)

func sampleMessage() Message {
	return Message{
		To:      []mail.Address{{Name: "Ana Ruiz", Address: "ana@example.com"}},
		Subject: "Inscripción recibida",
		Text:    "Hola Ana",
		HTML:    "<p>Hola Ana</p>",
	}
}

func TestNewSelectsProvider(t *testing.T) {
	m, err := New(config.MailConfig{Provider: "log", FromEmail: "no-reply@fundalink.edu.co"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(config.MailConfig{Provider: "sendgrid"}, nil)
	assert.Error(t, err)

	m, err = New(config.MailConfig{Provider: "sendgrid", SendGridAPIKey: "SG.key"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SendGrid{}, m)

	_, err = New(config.MailConfig{Provider: "smtp"}, nil)
	assert.Error(t, err)
}

func TestLogMailerRecordsMessages(t *testing.T) {
	l := NewLogMailer(mail.Address{Address: "no-reply@fundalink.edu.co"}, "FUNDALink", nil)

	require.NoError(t, l.Send(context.Background(), sampleMessage()))
	require.NoError(t, l.Send(context.Background(), Message{Subject: "sin destinatario"}))

	sent := l.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "[FUNDALink] Inscripción recibida", sent[0].Subject)
}

func TestSendGridPreparesPersonalization(t *testing.T) {
	var captured *sgmail.SGMailV3
	sg := NewSendGrid("SG.key", mail.Address{Name: "FUNDALink", Address: "no-reply@fundalink.edu.co"}, "FUNDALink")
	sg.send = func(m *sgmail.SGMailV3) (int, string, error) {
		captured = m
		return 202, "", nil
	}

	require.NoError(t, sg.Send(context.Background(), sampleMessage()))
	require.NotNil(t, captured)
	require.Len(t, captured.Personalizations, 1)
	assert.Equal(t, "[FUNDALink] Inscripción recibida", captured.Personalizations[0].Subject)
	assert.Equal(t, "ana@example.com", captured.Personalizations[0].To[0].Address)
	assert.Len(t, captured.Content, 2)
	assert.Equal(t, "no-reply@fundalink.edu.co", captured.From.Address)
}

func TestSendGridReportsFailures(t *testing.T) {
	sg := NewSendGrid("SG.key", mail.Address{Address: "no-reply@fundalink.edu.co"}, "")
	sg.send = func(*sgmail.SGMailV3) (int, string, error) {
		return 401, `{"errors":[{"message":"bad key"}]}`, nil
	}
	assert.ErrorContains(t, sg.Send(context.Background(), sampleMessage()), "status 401")

	sg.send = func(*sgmail.SGMailV3) (int, string, error) {
		return 0, "", errors.New("dial tcp: timeout")
	}
	assert.Error(t, sg.Send(context.Background(), sampleMessage()))
}
