package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/makeasinger/mashup/internal/client"
)

// Message sent with every mashup
const (
	MailSubject     = "🎵 Your Custom Mashup is Ready!"
	mailBodyFormat  = "Hey! Your custom %s mashup is attached. Enjoy your listening session! 🎧"
	archiveMIMEType = "application/zip"
)

// Delivery emails the finished archive to the requester
type Delivery struct {
	mailer client.Mailer
}

// NewDelivery creates a new delivery step
func NewDelivery(mailer client.Mailer) *Delivery {
	return &Delivery{mailer: mailer}
}

// Deliver sends exactly one message. There is no retry.
func (d *Delivery) Deliver(ctx context.Context, to, artist, archivePath string) error {
	msg := &client.MailMessage{
		To:             to,
		Subject:        MailSubject,
		Body:           fmt.Sprintf(mailBodyFormat, artist),
		AttachmentPath: archivePath,
		AttachmentName: filepath.Base(archivePath),
		AttachmentType: archiveMIMEType,
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver mashup: %w", err)
	}
	return nil
}
