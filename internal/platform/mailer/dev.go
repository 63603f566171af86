package mailer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/diagnosis/vms/pkg/logger"
)

type SentMessage struct {
	To      string
	Subject string
	Text    string
}

// DevMailer logs messages instead of delivering them and keeps the last few for inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []SentMessage
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", fmt.Errorf("empty recipient email")
	}

	d.mu.Lock()
	d.sent = append(d.sent, SentMessage{To: toEmail, Subject: subject, Text: text})
	if len(d.sent) > 50 {
		d.sent = d.sent[len(d.sent)-50:]
	}
	n := len(d.sent)
	d.mu.Unlock()

	logger.InfoContext(ctx, "dev email", "to", toEmail, "subject", subject)
	return fmt.Sprintf("dev-%d", n), nil
}

func (d *DevMailer) Sent() []SentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]SentMessage, len(d.sent))
	copy(out, d.sent)
	return out
}
