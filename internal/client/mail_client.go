package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/makeasinger/mashup/internal/config"
	"github.com/wneessen/go-mail"
)

// ErrMailNotConfigured is returned when sender credentials are missing
var ErrMailNotConfigured = errors.New("mail sender credentials are not configured")

// Mailer defines the outbound mail capability
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// MailMessage is a single-recipient message with one file attached
type MailMessage struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
	AttachmentName string
	AttachmentType string
}

// SMTPClient implements Mailer over implicit-TLS SMTP
type SMTPClient struct {
	host     string
	port     int
	sender   string
	password string
}

// NewSMTPClient creates a mail client from injected credentials
func NewSMTPClient(cfg *config.MailConfig) *SMTPClient {
	return &SMTPClient{
		host:     cfg.Host,
		port:     cfg.Port,
		sender:   cfg.SenderEmail,
		password: cfg.Password,
	}
}

// Send opens one session, authenticates, sends the message and closes.
func (c *SMTPClient) Send(ctx context.Context, m *MailMessage) error {
	if !c.IsConfigured() {
		return ErrMailNotConfigured
	}

	msg, err := c.buildMessage(m)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(c.host,
		mail.WithPort(c.port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.sender),
		mail.WithPassword(c.password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (c *SMTPClient) buildMessage(m *MailMessage) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	if m.AttachmentPath != "" {
		// go-mail skips unreadable attachments silently
		if _, err := os.Stat(m.AttachmentPath); err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}
		name := m.AttachmentName
		if name == "" {
			name = filepath.Base(m.AttachmentPath)
		}
		contentType := m.AttachmentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		msg.AttachFile(m.AttachmentPath,
			mail.WithFileName(name),
			mail.WithFileContentType(mail.ContentType(contentType)),
		)
	}
	return msg, nil
}

// IsConfigured returns true if both sender credentials are set
func (c *SMTPClient) IsConfigured() bool {
	return c.sender != "" && c.password != ""
}
