package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain-text notification to a single recipient.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendGridSender struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGridSender(key, appName, fromEmail string) Sender {
	return &sendGridSender{
		client:     sendgrid.NewSendClient(key),
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *sendGridSender) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("mail has no recipient")
	}
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	m := sgmail.NewSingleEmail(s.from, s.subjPrefix+msg.Subject, to, msg.Text, "")
	res, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected mail: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type consoleSender struct {
	logger     zerolog.Logger
	subjPrefix string
}

// NewConsoleSender returns a Sender that logs messages instead of delivering them.
func NewConsoleSender(logger zerolog.Logger, appName string) Sender {
	return &consoleSender{
		logger:     logger.With().Str("mailer", "console").Logger(),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *consoleSender) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("mail has no recipient")
	}
	s.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", s.subjPrefix+msg.Subject).
		Msg(msg.Text)
	return nil
}
