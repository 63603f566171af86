package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

var ErrDisabled = errors.New("mailer disabled (missing MAILERSEND_API_KEY or EMAIL_FROM)")

// SendError is a non-2xx answer from the MailerSend API.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("mailersend error: status=%d body=%s", e.StatusCode, e.Body)
}

// Temporary reports whether the same message may succeed if sent again.
func (e *SendError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type MailerSend struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	tags    []string
	Enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	m := &MailerSend{
		Enabled: apiKey != "" && fromEmail != "",
		from:    mailersend.From{Name: fromName, Email: fromEmail},
		tags:    []string{"vms"},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSend) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", ErrDisabled
	}
	if strings.TrimSpace(toEmail) == "" {
		return "", errors.New("mailersend: recipient is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetTags(m.tags)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &SendError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return res.Header.Get("X-Message-Id"), nil
}
