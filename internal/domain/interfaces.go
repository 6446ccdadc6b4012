// Package domain defines the canonical service interfaces shared across the
// REST API and the service layer. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/persistorai/backlog/internal/models"
)

// ProjectService defines all project operations.
type ProjectService interface {
	ListProjects(ctx context.Context, f models.ProjectFilter) ([]models.Project, bool, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, p *models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// BacklogService defines all backlog operations.
type BacklogService interface {
	ListBacklogs(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, bool, error)
	ListBacklogsByProject(ctx context.Context, slug string, limit, offset int) ([]models.Backlog, bool, error)
	GetBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error)
	GetBacklogByRefID(ctx context.Context, ref string) (*models.Backlog, error)
	CreateBacklog(ctx context.Context, b *models.Backlog) (*models.Backlog, error)
	UpdateBacklog(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error)
	DeleteBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error)
}

// AuditService defines field history queries.
type AuditService interface {
	ListAudits(ctx context.Context, kind models.EntityKind, entityID uuid.UUID, opts models.AuditQueryOpts) ([]models.AuditRecord, bool, error)
}
