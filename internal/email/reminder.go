package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const reminderEmailTimeout = 5 * time.Second

// SendReminderEmail sends a reservation reminder asynchronously.
func SendReminderEmail(ctx context.Context, client EmailSender, recipient string, message Message, sender string, logger *zerolog.Logger) {
	if client == nil {
		return
	}
	if message.Subject == "" || message.Body == "" {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	go func() {
		sendCtx, cancel := newEmailContext(ctx, reminderEmailTimeout)
		defer cancel()
		if err := client.SendFrom(sendCtx, recipient, message.Subject, message.Body, sender); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send reminder email")
			}
			return
		}
		if logger != nil {
			logger.Info().Str("recipient", SanitizeRecipient(recipient)).Msg("Reminder email sent")
		}
	}()
}

// SanitizeRecipient masks an email address for logging.
func SanitizeRecipient(recipient string) string {
	at := strings.Index(recipient, "@")
	if at <= 2 {
		return "***"
	}
	return recipient[:2] + "***" + recipient[at:]
}
