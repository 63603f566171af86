// Package service holds the visitor, emergency and admin business rules. Handlers call into
// it; it talks to Postgres through the repository package and broadcasts through pkg/events.
package service

import (
	"context"
	"time"

	"github.com/diagnosis/vms/pkg/events"
	"github.com/diagnosis/vms/pkg/logger"
)

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// publish never fails the caller; the write it announces has already happened.
func publish(ctx context.Context, bus events.Publisher, subject string, payload any) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
