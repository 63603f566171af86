package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/diagnosis/vms/internal/domain"
)

type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
}

// Alerter notifies the security desk about new incidents.
type Alerter struct {
	mail Service
	to   string
}

func NewAlerter(mail Service, to string) *Alerter {
	return &Alerter{mail: mail, to: strings.TrimSpace(to)}
}

func (a *Alerter) Enabled() bool {
	return a != nil && a.mail != nil && a.to != ""
}

func (a *Alerter) SendEmergencyAlert(ctx context.Context, e *domain.Emergency) error {
	if !a.Enabled() {
		return nil
	}
	subject, text, body := emergencyAlert(e)
	_, err := a.mail.Send(ctx, a.to, "Security Desk", subject, text, body)

	// One more try when the provider is throttling or briefly down.
	var sendErr *SendError
	if errors.As(err, &sendErr) && sendErr.Temporary() && ctx.Err() == nil {
		_, err = a.mail.Send(ctx, a.to, "Security Desk", subject, text, body)
	}
	return err
}

func emergencyAlert(e *domain.Emergency) (subject, text, htmlBody string) {
	subject = fmt.Sprintf("[%s] %s emergency at %s", e.IncidentCode, e.Type, e.Location)

	var b strings.Builder
	fmt.Fprintf(&b, "Incident: %s\n", e.IncidentCode)
	fmt.Fprintf(&b, "Type: %s\n", e.Type)
	fmt.Fprintf(&b, "Location: %s\n", e.Location)
	fmt.Fprintf(&b, "Reported: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	switch e.Type {
	case domain.EmergencyDepartmental:
		writeOpt(&b, "Department", e.DepartmentName)
		writeOpt(&b, "Group", e.GroupName)
		writeOpt(&b, "Point of contact", e.PocName)
		writeOpt(&b, "Contact phone", e.PocPhone)
		if e.Headcount != nil {
			fmt.Fprintf(&b, "Headcount: %d\n", *e.Headcount)
		}
	case domain.EmergencyVisitor:
		name := strings.TrimSpace(deref(e.VisitorFirstName) + " " + deref(e.VisitorLastName))
		if name != "" {
			fmt.Fprintf(&b, "Visitor: %s\n", name)
		}
		writeOpt(&b, "Visitor phone", e.VisitorPhone)
		if e.IsMinor {
			writeOpt(&b, "Minor, guardian", e.GuardianContact)
		}
	}
	writeOpt(&b, "Reason", e.Reason)
	writeOpt(&b, "Notes", e.Notes)
	text = b.String()

	htmlBody = "<pre>" + html.EscapeString(text) + "</pre>"
	return subject, text, htmlBody
}

func writeOpt(b *strings.Builder, label string, v *string) {
	if v != nil && *v != "" {
		fmt.Fprintf(b, "%s: %s\n", label, *v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
