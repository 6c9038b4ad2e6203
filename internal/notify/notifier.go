// Package notify delivers best-effort notifications over SMS, WhatsApp, and
// e-mail. Dispatches run in detached goroutines with panic recovery: failures
// are logged and counted, never propagated, never retried. The chat and quote
// paths must not block on a provider.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/metrics"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
)

// dispatchTimeout bounds a single fan-out including fallbacks.
const dispatchTimeout = 15 * time.Second

// SMSSender sends a plain text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

// WhatsAppSender sends a templated WhatsApp message to a phone number.
type WhatsAppSender interface {
	SendTemplate(ctx context.Context, phone, template string, params []string) error
}

// EmailSender sends a plain text e-mail.
type EmailSender interface {
	SendEmail(ctx context.Context, toName, toAddr, subject, body string) error
}

// Dispatcher fans out domain events to the configured channels. Any sender
// may be nil; unconfigured channels are skipped.
type Dispatcher struct {
	sms      SMSSender
	whatsapp WhatsAppSender
	email    EmailSender
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(sms SMSSender, whatsapp WhatsAppSender, email EmailSender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sms:      sms,
		whatsapp: whatsapp,
		email:    email,
		logger:   logger,
	}
}

// ChatMessage notifies an offline peer about a new chat message.
// WhatsApp first, SMS as fallback.
func (d *Dispatcher) ChatMessage(peer *models.User, senderName, preview string) {
	phone := peer.Phone
	d.dispatch("chat_message", func(ctx context.Context) error {
		body := fmt.Sprintf("%s sent you a message on CraftLink: %s", senderName, preview)
		return d.sendText(ctx, phone, "chat_message", []string{senderName, preview}, body)
	})
}

// QuoteReceived notifies a buyer that a manufacturer quoted their requirement.
func (d *Dispatcher) QuoteReceived(buyer *models.User, manufacturerName, requirementTitle string) {
	phone := buyer.Phone
	d.dispatch("quote_received", func(ctx context.Context) error {
		body := fmt.Sprintf("%s sent a quote for %q on CraftLink", manufacturerName, requirementTitle)
		return d.sendText(ctx, phone, "quote_received", []string{manufacturerName, requirementTitle}, body)
	})
}

// QuoteAccepted notifies a manufacturer that their quote was accepted.
// Delivered by e-mail when the user has one, otherwise as a text.
func (d *Dispatcher) QuoteAccepted(manufacturer *models.User, requirementTitle string) {
	phone := manufacturer.Phone
	emailAddr := manufacturer.Email
	name := manufacturer.DisplayName
	d.dispatch("quote_accepted", func(ctx context.Context) error {
		if emailAddr != "" && d.email != nil {
			subject := "Your quote was accepted"
			body := fmt.Sprintf("Good news %s,\n\nyour quote for %q was accepted. Open CraftLink to coordinate next steps with the buyer.\n", name, requirementTitle)
			if err := d.email.SendEmail(ctx, name, emailAddr, subject, body); err != nil {
				metrics.NotificationFailed("email")
				return err
			}
			return nil
		}
		body := fmt.Sprintf("Your quote for %q was accepted on CraftLink", requirementTitle)
		return d.sendText(ctx, phone, "quote_accepted", []string{requirementTitle}, body)
	})
}

// dispatch runs fn in a detached goroutine. Panics and errors are logged,
// never surfaced to the caller.
func (d *Dispatcher) dispatch(event string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification dispatch panicked",
					slog.String("event", event),
					slog.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Warn("notification dispatch failed",
				slog.String("event", event),
				slog.Any("error", err))
		}
	}()
}

// sendText delivers over WhatsApp, falling back to SMS when WhatsApp is
// unconfigured or fails.
func (d *Dispatcher) sendText(ctx context.Context, phone, template string, params []string, smsBody string) error {
	if d.whatsapp != nil {
		err := d.whatsapp.SendTemplate(ctx, phone, template, params)
		if err == nil {
			return nil
		}
		metrics.NotificationFailed("whatsapp")
		d.logger.Warn("whatsapp send failed, falling back to sms",
			slog.String("template", template),
			slog.Any("error", err))
	}

	if d.sms == nil {
		return fmt.Errorf("no text channel configured")
	}
	if err := d.sms.SendSMS(ctx, phone, smsBody); err != nil {
		metrics.NotificationFailed("sms")
		return err
	}
	return nil
}
