package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/persistorai/backlog/internal/domain"
	"github.com/persistorai/backlog/internal/models"
)

// AuditService exposes field history. The audit rows themselves are written by
// the stores inside each update transaction, never from here.
type AuditService struct {
	store domain.AuditService
}

// NewAuditService creates an AuditService.
func NewAuditService(store domain.AuditService) *AuditService {
	return &AuditService{store: store}
}

// ListAudits returns the change history of one entity (pass-through).
func (s *AuditService) ListAudits(
	ctx context.Context, kind models.EntityKind, entityID uuid.UUID, opts models.AuditQueryOpts,
) ([]models.AuditRecord, bool, error) {
	return s.store.ListAudits(ctx, kind, entityID, opts)
}
