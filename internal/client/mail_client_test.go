package client

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/makeasinger/mashup/internal/config"
)

func TestSMTPClientRequiresCredentials(t *testing.T) {
	c := NewSMTPClient(&config.MailConfig{Host: "smtp.gmail.com", Port: 465})
	if c.IsConfigured() {
		t.Fatal("expected client without credentials to be unconfigured")
	}

	err := c.Send(context.Background(), &MailMessage{To: "user@example.com"})
	if !errors.Is(err, ErrMailNotConfigured) {
		t.Fatalf("expected ErrMailNotConfigured, got %v", err)
	}
}

func TestBuildMessageAttachesArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "mashup.zip")
	if err := os.WriteFile(archive, []byte("PK\x03\x04"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	c := NewSMTPClient(&config.MailConfig{
		Host:        "smtp.gmail.com",
		Port:        465,
		SenderEmail: "sender@example.com",
		Password:    "app-password",
	})

	msg, err := c.buildMessage(&MailMessage{
		To:             "user@example.com",
		Subject:        "Your Custom Mashup is Ready!",
		Body:           "Hey! Your custom Ed Sheeran mashup is attached.",
		AttachmentPath: archive,
		AttachmentType: "application/zip",
	})
	if err != nil {
		t.Fatalf("buildMessage returned error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}
	raw := buf.String()

	for _, want := range []string{"user@example.com", "sender@example.com", "application/zip", "mashup.zip", "Ed Sheeran mashup"} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected message to contain %q", want)
		}
	}
}

func TestBuildMessageMissingAttachment(t *testing.T) {
	c := NewSMTPClient(&config.MailConfig{SenderEmail: "sender@example.com", Password: "x"})

	_, err := c.buildMessage(&MailMessage{
		To:             "user@example.com",
		AttachmentPath: filepath.Join(t.TempDir(), "mashup.zip"),
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
