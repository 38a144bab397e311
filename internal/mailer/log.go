package mailer

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogMailer records messages in the log instead of delivering them. Used when
// no SMTP host is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivery disabled, message not sent")
	return nil
}
