package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/repository"
)

// IdentifierResolver finds the visitor behind a scanned or typed identifier.
type IdentifierResolver interface {
	Resolve(ctx context.Context, raw string) (*domain.Visitor, error)
}

type identifierResolver struct {
	visitors repository.VisitorRepository
}

func NewIdentifierResolver(visitors repository.VisitorRepository) IdentifierResolver {
	return &identifierResolver{visitors: visitors}
}

// Resolve returns nil, nil when nothing matches. If several visits match, the most recent
// check-in wins.
func (r *identifierResolver) Resolve(ctx context.Context, raw string) (*domain.Visitor, error) {
	l := domain.ParseIdentifier(raw)
	if l.Raw == "" {
		return nil, domain.Validationf("identifier is required")
	}

	v, err := r.visitors.FindByIdentifier(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identifier: %w", err)
	}
	return v, nil
}
