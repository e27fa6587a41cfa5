package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const receiptEmailTimeout = 5 * time.Second

// SendReceiptEmail sends a payment receipt asynchronously. The send is
// detached from the request context so a finished handler does not abort it.
func SendReceiptEmail(ctx context.Context, client EmailSender, recipient string, message Message, logger *zerolog.Logger) {
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
		sendCtx, cancel := newEmailContext(ctx, receiptEmailTimeout)
		defer cancel()
		if err := client.Send(sendCtx, recipient, message.Subject, message.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send receipt email")
		}
	}()
}
