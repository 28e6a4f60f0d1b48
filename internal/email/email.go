// Package email sends notification mail to the site administrators.
//
// Only one message exists today: a new contact form submission. The SMTP
// implementation works with Mailpit/Mailhog in development and any
// authenticated relay (Postmark, SES SMTP) in production.
package email

import (
	"context"

	"github.com/carevia/foundation/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Notifier tells the administrators about site activity.
type Notifier interface {
	// NotifyContact sends a new contact message to the configured recipients.
	NotifyContact(ctx context.Context, contact domain.Contact) error
}

// Email represents a single email message.
type Email struct {
	To       []string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname, e.g. "localhost" for Mailpit
	Port     int    // SMTP server port, e.g. 1025 for Mailpit
	Username string // Empty for unauthenticated servers
	Password string
	From     string
	FromName string
}

const (
	// DefaultFromEmail is the default sender for notifications.
	DefaultFromEmail = "noreply@carevia.org"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Carevia Foundation"
)

// NopNotifier discards every notification. Used when SMTP is not configured.
type NopNotifier struct{}

// NotifyContact does nothing.
func (NopNotifier) NotifyContact(context.Context, domain.Contact) error { return nil }

var _ Notifier = NopNotifier{}
