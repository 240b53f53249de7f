// Package mail holds the delivery backends used by the reset-mail dispatcher.
package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/domain"
	"github.com/festapp/identity/internal/core/ports"
)

// LogSender writes reset mails to the structured log instead of an SMTP relay.
// The reset URL is only logged at debug level.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "mail").Logger()}
}

func (s *LogSender) Deliver(ctx context.Context, m ports.ResetMail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info().
		Str("to", domain.MaskEmail(m.To)).
		Msg("password reset mail sent")
	s.log.Debug().
		Str("to", m.To).
		Str("name", m.Name).
		Str("reset_url", m.ResetURL).
		Msg("password reset mail body")
	return nil
}
