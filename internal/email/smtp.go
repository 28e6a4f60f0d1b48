package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/google/uuid"

	"github.com/carevia/foundation/internal/domain"
)

// =============================================================================
// SMTP Notifier Implementation
// =============================================================================

const contactHTML = `<h2>New message from {{.Name}}</h2>
<p><strong>Email:</strong> {{.Email}}<br>
<strong>Phone:</strong> {{.Phone}}<br>
<strong>Subject:</strong> {{.Subject}}<br>
<strong>Received:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
<p style="white-space: pre-wrap">{{.Message}}</p>
<p><a href="{{.DashboardURL}}">Open the admin dashboard</a></p>
`

const contactText = `New message from {{.Name}}

Email:    {{.Email}}
Phone:    {{.Phone}}
Subject:  {{.Subject}}
Received: {{.CreatedAt.Format "2006-01-02 15:04 MST"}}

{{.Message}}

Admin dashboard: {{.DashboardURL}}
`

var (
	contactHTMLTmpl = htmltemplate.Must(htmltemplate.New("contact").Parse(contactHTML))
	contactTextTmpl = texttemplate.Must(texttemplate.New("contact").Parse(contactText))
)

// SMTPNotifier sends notifications through an SMTP server.
type SMTPNotifier struct {
	config       SMTPConfig
	recipients   []string
	dashboardURL string
	logger       *slog.Logger

	// send delivers a finished message; replaced in tests.
	send func(ctx context.Context, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP notifier that mails recipients.
// dashboardURL is linked from each message.
func NewSMTPNotifier(config SMTPConfig, recipients []string, dashboardURL string, logger *slog.Logger) (*SMTPNotifier, error) {
	if config.Host == "" {
		return nil, errors.New("email: SMTP host is required")
	}
	if len(recipients) == 0 {
		return nil, errors.New("email: at least one recipient is required")
	}
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	n := &SMTPNotifier{
		config:       config,
		recipients:   recipients,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
	n.send = n.sendSMTP
	return n, nil
}

// NotifyContact mails the contact message. Replies go to the submitter.
func (n *SMTPNotifier) NotifyContact(ctx context.Context, contact domain.Contact) error {
	data := struct {
		domain.Contact
		DashboardURL string
	}{contact, n.dashboardURL}

	var html, text bytes.Buffer
	if err := contactHTMLTmpl.Execute(&html, data); err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}
	if err := contactTextTmpl.Execute(&text, data); err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}

	return n.deliver(ctx, Email{
		To:       n.recipients,
		ReplyTo:  contact.Email,
		Subject:  "Contact form: " + contact.Subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	})
}

func (n *SMTPNotifier) deliver(ctx context.Context, email Email) error {
	msg, err := n.buildMessage(email, time.Now())
	if err != nil {
		return err
	}

	if err := n.send(ctx, n.config.From, email.To, msg); err != nil {
		n.logger.Error("failed to send email", "subject", email.Subject, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("email sent", "recipients", len(email.To), "subject", email.Subject)
	return nil
}

// sendSMTP dials with ctx so a stuck server cannot hold the request.
func (n *SMTPNotifier) sendSMTP(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(nil); err != nil {
			return err
		}
	}
	if n.config.Username != "" && n.config.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage constructs the raw multipart/alternative message.
// Header values are Q-encoded, so user input cannot inject headers.
func (n *SMTPNotifier) buildMessage(email Email, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	from := mime.QEncoding.Encode("utf-8", n.config.FromName) + " <" + n.config.From + ">"
	boundary := "carevia-" + uuid.NewString()

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(email.To, ", "))
	if email.ReplyTo != "" && domain.IsValidEmail(email.ReplyTo) {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", mime.QEncoding.Encode("utf-8", email.ReplyTo))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", email.TextBody},
		{"text/html; charset=utf-8", email.HTMLBody},
	} {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", part.contentType)
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}

var _ Notifier = (*SMTPNotifier)(nil)
